package drafting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"clipthread/internal/llm"
)

// Models used when BackendOptions.Model is empty.
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o"
)

// GeminiBackend drafts with Gemini and enforces the drafts schema at the API level.
type GeminiBackend struct {
	service *llm.GeminiService
	model   string
}

// NewGeminiBackend creates a Gemini backend. An empty model uses DefaultGeminiModel.
func NewGeminiBackend(service *llm.GeminiService, model string) *GeminiBackend {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiBackend{service: service, model: model}
}

func (b *GeminiBackend) Generate(ctx context.Context, req Request) (Response, error) {
	if req.Schema == nil {
		text, err := b.service.Generate(ctx, b.model, req.SystemPrompt, req.UserContent, nil)
		if err != nil {
			return nil, err
		}
		return TextResponse{Text: text}, nil
	}

	text, err := b.service.Generate(ctx, b.model, req.SystemPrompt, req.UserContent, llm.StringListSchema(req.Schema.Field))
	if err != nil {
		return nil, err
	}
	return structuredOrText(text, req.Schema.Field), nil
}

// OpenAIBackend drafts through an OpenAI-compatible chat endpoint using a
// json_schema response format.
type OpenAIBackend struct {
	service *llm.OpenAIService
	model   string
}

// NewOpenAIBackend creates an OpenAI-compatible backend. An empty model uses
// DefaultOpenAIModel.
func NewOpenAIBackend(service *llm.OpenAIService, model string) *OpenAIBackend {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIBackend{service: service, model: model}
}

func (b *OpenAIBackend) Generate(ctx context.Context, req Request) (Response, error) {
	messages := []llm.ChatMessage{
		{Role: "system", Content: req.SystemPrompt},
		{Role: "user", Content: req.UserContent},
	}

	var opts []llm.ChatOption
	if req.Schema != nil {
		opts = append(opts, llm.WithJSONSchema(req.Schema.Name, req.Schema.JSONSchema()))
	}

	resp, err := b.service.ChatCompletion(ctx, b.model, messages, 0, opts...)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from LLM")
	}

	content := strings.TrimSpace(resp.Content())
	if req.Schema == nil {
		return TextResponse{Text: content}, nil
	}
	return structuredOrText(content, req.Schema.Field), nil
}

// structuredOrText validates a schema-constrained reply. Anything that does
// not decode to the expected shape is handed back as text for the parse ladder.
func structuredOrText(text, field string) Response {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return TextResponse{Text: text}
	}
	raw, ok := obj[field]
	if !ok {
		return TextResponse{Text: text}
	}
	var drafts []string
	if err := json.Unmarshal(raw, &drafts); err != nil {
		return TextResponse{Text: text}
	}
	return StructuredResponse{Drafts: drafts}
}

// BackendOptions selects and configures a drafting backend.
type BackendOptions struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewBackend builds the backend named by opts.Provider ("gemini" or "openai").
func NewBackend(ctx context.Context, opts BackendOptions) (Backend, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "gemini"
	}

	switch provider {
	case "gemini":
		svc, err := llm.NewGeminiService(ctx, opts.APIKey)
		if err != nil {
			return nil, err
		}
		return NewGeminiBackend(svc, opts.Model), nil
	case "openai":
		var base *string
		if opts.BaseURL != "" {
			base = &opts.BaseURL
		}
		return NewOpenAIBackend(llm.NewOpenAIService(opts.APIKey, base), opts.Model), nil
	default:
		return nil, fmt.Errorf("unsupported drafting provider: %s", opts.Provider)
	}
}
