package drafting

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNoResearch is returned when there is no research report to draft from.
	ErrNoResearch = errors.New("no research notes to draft from")
	// ErrNoDrafts means every parse strategy came back empty for a backend response.
	ErrNoDrafts = errors.New("no drafts found in backend response")
)

// ResearchReport is the output of the research stage. Sources[i-1] is the target of marker [i].
type ResearchReport struct {
	Notes   string   `json:"research_notes"`
	Sources []Source `json:"sources"`
}

// Source is a citation target: a plain URL or a structured record such as
// {"title": ..., "url": ...}.
type Source struct {
	URL    string
	Record map[string]any
}

// URLSource wraps a plain URL.
func URLSource(u string) Source { return Source{URL: u} }

// RecordSource wraps a structured source record.
func RecordSource(r map[string]any) Source { return Source{Record: r} }

// uriKeys and urlKeys are tried in order when reading a structured record.
var (
	uriKeys = []string{"uri", "source_uri", "sourceUri"}
	urlKeys = []string{"url", "link", "href", "source_url"}
)

// Display returns the string that replaces a citation marker.
func (s Source) Display() string {
	if s.URL != "" {
		return s.URL
	}
	if len(s.Record) == 0 {
		return ""
	}
	if v := lookupString(s.Record, uriKeys); v != "" {
		return v
	}
	if v := lookupString(s.Record, urlKeys); v != "" {
		return v
	}
	b, err := json.Marshal(s.Record)
	if err != nil {
		return fmt.Sprint(s.Record)
	}
	return string(b)
}

func lookupString(rec map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := rec[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	// case-insensitive pass, deterministic over key order
	names := make([]string, 0, len(rec))
	for k := range rec {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, want := range keys {
		for _, k := range names {
			if !strings.EqualFold(k, want) {
				continue
			}
			if v, ok := rec[k].(string); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

// MarshalJSON writes a plain URL as a JSON string and a record as an object.
func (s Source) MarshalJSON() ([]byte, error) {
	if s.URL != "" || s.Record == nil {
		return json.Marshal(s.URL)
	}
	return json.Marshal(s.Record)
}

// UnmarshalJSON accepts either a string or an object.
func (s *Source) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Source{}
		return nil
	}
	switch data[0] {
	case '"':
		var u string
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		*s = Source{URL: u}
		return nil
	case '{':
		var rec map[string]any
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		*s = Source{Record: rec}
		return nil
	default:
		return fmt.Errorf("source must be a string or an object, got %s", string(data))
	}
}

// Chunk is a bounded run of text sent to the backend in one call.
type Chunk struct {
	Index int
	Text  string
}

// DraftUnit is one generated post.
type DraftUnit struct {
	ChunkIndex int
	Position   int
	Text       string
}

// Texts flattens units into their text, keeping order.
func Texts(units []DraftUnit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.Text)
	}
	return out
}
