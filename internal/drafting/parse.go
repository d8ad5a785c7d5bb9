package drafting

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// minLineDraftLength is the shortest line the line heuristic accepts as a draft.
const minLineDraftLength = 20

var (
	fenceRe     = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*[ \t]*\n?(.*?)\n?[ \t]*```$")
	listStartRe = regexp.MustCompile(`\[\s*"`)
	jsonKeyRe   = regexp.MustCompile(`^"[^"]*"\s*:`)
)

// ParseStrategy extracts drafts from a backend response. ok is false when the
// strategy found nothing usable.
type ParseStrategy struct {
	Name  string
	Parse func(resp Response) (drafts []string, ok bool)
}

// DefaultStrategies is the parse ladder, most trusted first.
func DefaultStrategies() []ParseStrategy {
	return []ParseStrategy{
		{Name: "structured", Parse: parseStructured},
		{Name: "json", Parse: parseJSONBody},
		{Name: "bracketed_list", Parse: parseBracketedList},
		{Name: "lines", Parse: parseLines},
	}
}

// ParseDrafts runs strategies in order and returns the first non-empty result
// with the name of the strategy that produced it.
func ParseDrafts(resp Response, strategies []ParseStrategy) ([]string, string, error) {
	for _, st := range strategies {
		if drafts, ok := st.Parse(resp); ok && len(drafts) > 0 {
			return drafts, st.Name, nil
		}
	}
	return nil, "", ErrNoDrafts
}

func responseText(resp Response) string {
	switch r := resp.(type) {
	case TextResponse:
		return r.Text
	case *TextResponse:
		if r != nil {
			return r.Text
		}
	}
	return ""
}

func parseStructured(resp Response) ([]string, bool) {
	var drafts []string
	switch r := resp.(type) {
	case StructuredResponse:
		drafts = r.Drafts
	case *StructuredResponse:
		if r == nil {
			return nil, false
		}
		drafts = r.Drafts
	default:
		return nil, false
	}
	out := make([]string, 0, len(drafts))
	for _, d := range drafts {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out, len(out) > 0
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

func parseJSONBody(resp Response) ([]string, bool) {
	text := stripCodeFence(responseText(resp))
	if text == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	switch t := v.(type) {
	case []any:
		items := normalizeItems(t)
		return items, len(items) > 0
	case map[string]any:
		list, ok := draftsList(t)
		if !ok {
			return nil, false
		}
		items := normalizeItems(list)
		return items, len(items) > 0
	}
	return nil, false
}

// draftsList finds the drafts array in an object: the exact key first, then
// any key mentioning "draft" or "tweet".
func draftsList(obj map[string]any) ([]any, bool) {
	if list, ok := obj[DraftsField].([]any); ok {
		return list, true
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lk := strings.ToLower(k)
		if !strings.Contains(lk, "draft") && !strings.Contains(lk, "tweet") {
			continue
		}
		if list, ok := obj[k].([]any); ok {
			return list, true
		}
	}
	return nil, false
}

// parseBracketedList decodes the first JSON array literal embedded in prose.
func parseBracketedList(resp Response) ([]string, bool) {
	text := responseText(resp)
	for _, loc := range listStartRe.FindAllStringIndex(text, -1) {
		var list []any
		dec := json.NewDecoder(strings.NewReader(text[loc[0]:]))
		if err := dec.Decode(&list); err != nil {
			continue
		}
		if items := normalizeItems(list); len(items) > 0 {
			return items, true
		}
	}
	return nil, false
}

// parseLines treats every long line that is not JSON or fence syntax as a draft.
func parseLines(resp Response) ([]string, bool) {
	var out []string
	for _, line := range strings.Split(responseText(resp), "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= minLineDraftLength || looksLikeSyntax(line) {
			continue
		}
		line = strings.TrimSuffix(line, ",")
		if unq, err := strconv.Unquote(line); err == nil {
			line = unq
		}
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out, len(out) > 0
}

func looksLikeSyntax(line string) bool {
	if strings.HasPrefix(line, "```") {
		return true
	}
	switch line[0] {
	case '{', '}', ']':
		return true
	case '[':
		rest := strings.TrimSpace(line[1:])
		return rest == "" || rest[0] == '"' || rest[0] == '{' || rest[0] == ']'
	}
	return jsonKeyRe.MatchString(line)
}

// normalizeItems keeps strings and numbers as text and drops everything else.
func normalizeItems(items []any) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		switch v := it.(type) {
		case string:
			s = strings.TrimSpace(v)
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			s = v.String()
		default:
			continue
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
