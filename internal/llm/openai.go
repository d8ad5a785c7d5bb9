package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIService talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, Perplexity, local gateways).
type OpenAIService struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewOpenAIService creates a service. A nil baseURL targets api.openai.com.
func NewOpenAIService(apiKey string, baseURL *string) *OpenAIService {
	base := DefaultOpenAIBaseURL
	if baseURL != nil && strings.TrimSpace(*baseURL) != "" {
		base = strings.TrimSpace(*baseURL)
	}
	return &OpenAIService{
		apiKey:   apiKey,
		endpoint: chatEndpoint(base),
		client:   &http.Client{Timeout: 10 * time.Minute},
	}
}

// WithHTTPClient swaps the HTTP client, mainly for timeouts and tests.
func (s *OpenAIService) WithHTTPClient(c *http.Client) *OpenAIService {
	s.client = c
	return s
}

func chatEndpoint(base string) string {
	endpoint := strings.TrimRight(base, "/")
	if strings.HasSuffix(endpoint, "/chat/completions") {
		return endpoint
	}
	return endpoint + "/chat/completions"
}

// ChatOption customises a single request.
type ChatOption func(*ChatRequest)

// WithJSONSchema asks the provider to enforce a JSON schema on the reply.
func WithJSONSchema(name string, schema map[string]any) ChatOption {
	return func(r *ChatRequest) {
		r.ResponseFormat = &ResponseFormat{
			Type:       "json_schema",
			JSONSchema: &JSONSchemaFormat{Name: name, Schema: schema},
		}
	}
}

// ChatCompletion sends messages and returns the decoded response. A zero
// temperature leaves the provider default in place.
func (s *OpenAIService) ChatCompletion(
	ctx context.Context,
	model string,
	messages []ChatMessage,
	temperature float64,
	opts ...ChatOption,
) (*ChatResponse, error) {
	if strings.TrimSpace(s.apiKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required")
	}

	reqBody := ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	}
	for _, opt := range opts {
		opt(&reqBody)
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var parsed ChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	parsed.Raw = raw
	return &parsed, nil
}
