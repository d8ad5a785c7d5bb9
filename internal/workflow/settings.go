package workflow

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"clipthread/internal/models"
	"clipthread/pkg/logger"
)

type SettingsStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type URLSetter interface {
	URL() string
	SetURL(u string)
}

// Settings keeps the transcription worker URL in the database and in the
// live adapter in sync.
type Settings struct {
	store  SettingsStore
	worker URLSetter
}

func NewSettings(store SettingsStore, worker URLSetter) *Settings {
	return &Settings{store: store, worker: worker}
}

// Load applies the persisted worker URL, if any, over the configured one.
func (s *Settings) Load(ctx context.Context) error {
	value, ok, err := s.store.Get(ctx, models.KeyTranscriberURL)
	if err != nil {
		return err
	}
	if ok {
		s.worker.SetURL(value)
		logger.Info("Loaded transcription worker URL", "url", s.worker.URL())
	}
	return nil
}

// TranscriberURL returns the URL in use.
func (s *Settings) TranscriberURL() string {
	return s.worker.URL()
}

// SetTranscriberURL validates, persists and applies a new worker URL. An
// empty value disables transcription.
func (s *Settings) SetTranscriberURL(ctx context.Context, raw string) error {
	value := strings.TrimSpace(raw)
	if value != "" {
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid transcriber URL %q", raw)
		}
	}
	if err := s.store.Set(ctx, models.KeyTranscriberURL, value); err != nil {
		return err
	}
	s.worker.SetURL(value)
	logger.Info("Transcription worker URL updated", "url", s.worker.URL())
	return nil
}
