package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"clipthread/internal/drafting"
	"clipthread/internal/research"
	"clipthread/internal/transcription/adapters"
	"clipthread/pkg/logger"
)

// EnvPrefix prefixes every environment override, e.g. CLIPTHREAD_SERVER_PORT.
const EnvPrefix = "CLIPTHREAD"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Log         LogConfig         `mapstructure:"log"`
	Transcriber TranscriberConfig `mapstructure:"transcriber"`
	Research    ResearchConfig    `mapstructure:"research"`
	Drafting    DraftingConfig    `mapstructure:"drafting"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Queue       QueueConfig       `mapstructure:"queue"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TranscriberConfig struct {
	// URL is the initial worker URL; a value saved through the API wins.
	URL                string        `mapstructure:"url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	MaxRetries         int           `mapstructure:"max_retries"`
}

type ResearchConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type DraftingConfig struct {
	Provider      string        `mapstructure:"provider"`
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	BaseURL       string        `mapstructure:"base_url"`
	MaxChunkSize  int           `mapstructure:"max_chunk_size"`
	ChunkOverlap  int           `mapstructure:"chunk_overlap"`
	SoftTarget    int           `mapstructure:"soft_target"`
	ContextDrafts int           `mapstructure:"context_drafts"`
	ChunkTimeout  time.Duration `mapstructure:"chunk_timeout"`
}

type AuthConfig struct {
	// JWTSecret enables authentication on the API when set.
	JWTSecret    string        `mapstructure:"jwt_secret"`
	Username     string        `mapstructure:"username"`
	PasswordHash string        `mapstructure:"password_hash"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	Size    int `mapstructure:"size"`
}

func (d *DraftingConfig) fillAPIKey() {
	if d.APIKey != "" {
		return
	}
	for _, env := range draftingKeyEnv[strings.ToLower(strings.TrimSpace(d.Provider))] {
		if key := os.Getenv(env); key != "" {
			d.APIKey = key
			return
		}
	}
}

// Enabled reports whether API authentication is on.
func (a AuthConfig) Enabled() bool { return a.JWTSecret != "" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8001)
	v.SetDefault("database.path", "data/clipthread.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("transcriber.url", "")
	v.SetDefault("transcriber.timeout", adapters.DefaultWorkerTimeout)
	v.SetDefault("transcriber.insecure_skip_verify", true)
	v.SetDefault("transcriber.max_retries", adapters.DefaultMaxRetries)

	v.SetDefault("research.api_key", "")
	v.SetDefault("research.base_url", research.DefaultBaseURL)
	v.SetDefault("research.model", research.DefaultModel)

	v.SetDefault("drafting.provider", "gemini")
	v.SetDefault("drafting.api_key", "")
	v.SetDefault("drafting.model", "")
	v.SetDefault("drafting.base_url", "")
	v.SetDefault("drafting.max_chunk_size", drafting.DefaultMaxChunkSize)
	v.SetDefault("drafting.chunk_overlap", drafting.DefaultChunkOverlap)
	v.SetDefault("drafting.soft_target", drafting.DefaultSoftTarget)
	v.SetDefault("drafting.context_drafts", drafting.DefaultContextDrafts)
	v.SetDefault("drafting.chunk_timeout", drafting.DefaultChunkTimeout)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password_hash", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("queue.workers", 1)
	v.SetDefault("queue.size", 100)
}

// draftingKeyEnv lists, per drafting provider, the variables that may supply
// drafting.api_key when it is not set explicitly.
var draftingKeyEnv = map[string][]string{
	"gemini": {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openai": {"OPENAI_API_KEY"},
}

// bindProviderEnv lets the usual provider variables fill in API keys. The
// drafting key depends on the provider and is resolved in Decode.
func bindProviderEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"research.api_key": {EnvPrefix + "_RESEARCH_API_KEY", "PERPLEXITY_API_KEY"},
		"drafting.api_key": {EnvPrefix + "_DRAFTING_API_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

// New builds a viper instance from an optional config file, a .env file in
// the working directory and CLIPTHREAD_* environment variables.
func New(path string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to load .env file", "error", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindProviderEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("clipthread")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/clipthread")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Debug("No config file found, using defaults and environment")
	}
	return v, nil
}

// Decode unmarshals and validates the current settings of v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Drafting.fillAPIKey()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is New followed by Decode.
func Load(path string) (*Config, *viper.Viper, error) {
	v, err := New(path)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Queue.Workers < 1 {
		return fmt.Errorf("queue.workers must be at least 1")
	}
	if _, err := drafting.NewAssembler(c.Drafting.MaxChunkSize, c.Drafting.ChunkOverlap); err != nil {
		return fmt.Errorf("invalid drafting settings: %w", err)
	}
	if c.Auth.Enabled() && c.Auth.PasswordHash == "" {
		return fmt.Errorf("auth.password_hash is required when auth.jwt_secret is set")
	}
	return nil
}

// DraftingOptions maps the drafting section onto pipeline options.
func (c *Config) DraftingOptions() drafting.Options {
	return drafting.Options{
		MaxChunkSize:  c.Drafting.MaxChunkSize,
		ChunkOverlap:  c.Drafting.ChunkOverlap,
		SoftTarget:    c.Drafting.SoftTarget,
		ContextDrafts: c.Drafting.ContextDrafts,
		ChunkTimeout:  c.Drafting.ChunkTimeout,
	}
}

// BackendOptions maps the drafting section onto backend selection.
func (c *Config) BackendOptions() drafting.BackendOptions {
	return drafting.BackendOptions{
		Provider: c.Drafting.Provider,
		APIKey:   c.Drafting.APIKey,
		Model:    c.Drafting.Model,
		BaseURL:  c.Drafting.BaseURL,
	}
}

// ResearchOptions maps the research section onto the researcher.
func (c *Config) ResearchOptions() research.Options {
	return research.Options{
		APIKey:  c.Research.APIKey,
		BaseURL: c.Research.BaseURL,
		Model:   c.Research.Model,
	}
}

// WorkerOptions maps the transcriber section onto the worker adapter.
func (c *Config) WorkerOptions() adapters.WorkerOptions {
	return adapters.WorkerOptions{
		Timeout:            c.Transcriber.Timeout,
		InsecureSkipVerify: c.Transcriber.InsecureSkipVerify,
		MaxRetries:         c.Transcriber.MaxRetries,
	}
}

// Watch re-decodes the config file on every change and hands valid results
// to onChange. Invalid edits are logged and ignored.
func Watch(v *viper.Viper, onChange func(*Config)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Decode(v)
		if err != nil {
			logger.Warn("Ignoring invalid config change", "file", e.Name, "error", err)
			return
		}
		logger.Info("Config reloaded", "file", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()
}
