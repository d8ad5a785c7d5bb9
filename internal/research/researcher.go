package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"clipthread/internal/drafting"
	"clipthread/internal/llm"
	"clipthread/pkg/logger"
)

const (
	DefaultBaseURL = "https://api.perplexity.ai"
	DefaultModel   = "sonar-deep-research"
)

// ErrMissingAPIKey is returned when research is attempted without credentials.
var ErrMissingAPIKey = errors.New("research API key is missing")

var fenceRe = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*\\s*(.*?)\\s*```$")

// Options configures a Researcher.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Researcher produces a ResearchReport from a transcription using an
// OpenAI-compatible search model that returns citations alongside the answer.
type Researcher struct {
	service *llm.OpenAIService
	apiKey  string
	model   string
}

func NewResearcher(opts Options) *Researcher {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	if opts.APIKey == "" {
		logger.Warn("Research API key is not set, research will fail")
	}
	return &Researcher{
		service: llm.NewOpenAIService(opts.APIKey, &base),
		apiKey:  opts.APIKey,
		model:   model,
	}
}

// Research fact-checks transcription and returns the notes with their sources.
func (r *Researcher) Research(ctx context.Context, transcription string) (*drafting.ResearchReport, error) {
	if strings.TrimSpace(r.apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	logger.Info("Starting research", "model", r.model, "transcription_chars", len(transcription))

	messages := []llm.ChatMessage{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: fmt.Sprintf(userPromptTemplate, transcription)},
	}
	resp, err := r.service.ChatCompletion(ctx, r.model, messages, 0)
	if err != nil {
		return nil, fmt.Errorf("research request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from research model")
	}

	sources, err := extractSources(resp.Raw)
	if err != nil {
		logger.Warn("Failed to read research sources", "error", err)
	}

	report := &drafting.ResearchReport{
		Notes:   parseNotes(resp.Content()),
		Sources: sources,
	}
	logger.Info("Research complete", "notes_chars", len(report.Notes), "sources", len(report.Sources))
	return report, nil
}

// parseNotes pulls research_notes out of the model reply. Replies that are
// not the requested JSON object are kept whole as notes.
func parseNotes(content string) string {
	content = strings.TrimSpace(content)
	if m := fenceRe.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	}

	var out struct {
		Notes *string `json:"research_notes"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil || out.Notes == nil {
		logger.Debug("Research reply is not the expected JSON object, using it verbatim")
		return content
	}
	return strings.TrimSpace(*out.Notes)
}

// extractSources reads "citations" from the raw response body, falling back
// to "search_results" records when no citations are present. An entry that is
// neither a URL string nor a record becomes an empty source, so its marker is
// left unresolved and later markers keep their numbering.
func extractSources(raw []byte) ([]drafting.Source, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var body struct {
		Citations     []json.RawMessage `json:"citations"`
		SearchResults []json.RawMessage `json:"search_results"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	if len(body.Citations) > 0 {
		return decodeSources(body.Citations), nil
	}
	return decodeSources(body.SearchResults), nil
}

func decodeSources(entries []json.RawMessage) []drafting.Source {
	sources := make([]drafting.Source, len(entries))
	for i, entry := range entries {
		if err := json.Unmarshal(entry, &sources[i]); err != nil {
			logger.Warn("Unreadable source entry", "index", i, "error", err)
			sources[i] = drafting.Source{}
		}
	}
	return sources
}
