package drafting

import "context"

// DraftsField is the key of the drafts list in structured backend replies.
const DraftsField = "drafts"

// ListSchema asks a backend to return {"<Field>": ["...", ...]}.
type ListSchema struct {
	Name  string
	Field string
}

// DraftsSchema is the schema hint sent with every drafting request.
var DraftsSchema = &ListSchema{Name: "draft_list", Field: DraftsField}

// JSONSchema renders the hint as a JSON Schema document.
func (s *ListSchema) JSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			s.Field: map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required":             []string{s.Field},
		"additionalProperties": false,
	}
}

// Request is one call to a generation backend.
type Request struct {
	SystemPrompt string
	UserContent  string
	// Schema is a hint; backends that cannot enforce it return a TextResponse.
	Schema *ListSchema
}

// Response is either a StructuredResponse or a TextResponse.
type Response interface {
	isResponse()
}

// StructuredResponse is returned when the backend enforced the schema and the
// reply validated against it.
type StructuredResponse struct {
	Drafts []string
}

// TextResponse is free text that still needs parsing.
type TextResponse struct {
	Text string
}

func (StructuredResponse) isResponse() {}
func (TextResponse) isResponse()       {}

// Backend generates text for a system prompt and user content.
type Backend interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// BackendFunc adapts a plain function to Backend.
type BackendFunc func(ctx context.Context, req Request) (Response, error)

func (f BackendFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
