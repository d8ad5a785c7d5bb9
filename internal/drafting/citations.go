package drafting

import (
	"regexp"
	"strconv"
)

// citationRe matches [3] and tagged forms such as [cite: 3] or [Source:3].
var citationRe = regexp.MustCompile(`\[(?:(?i:cite|citation|source|ref|reference)\s*:\s*)?(\d+)\]`)

// ResolveCitations returns copies of units with citation markers replaced by
// "(<source>)". Markers outside 1..len(sources) are left as written.
func ResolveCitations(units []DraftUnit, sources []Source) []DraftUnit {
	out := make([]DraftUnit, len(units))
	for i, u := range units {
		u.Text = ResolveText(u.Text, sources)
		out[i] = u
	}
	return out
}

// ResolveText resolves the citation markers of a single text.
func ResolveText(text string, sources []Source) string {
	if len(sources) == 0 {
		return text
	}
	return citationRe.ReplaceAllStringFunc(text, func(marker string) string {
		m := citationRe.FindStringSubmatch(marker)
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(sources) {
			return marker
		}
		display := sources[n-1].Display()
		if display == "" {
			return marker
		}
		return "(" + display + ")"
	})
}
