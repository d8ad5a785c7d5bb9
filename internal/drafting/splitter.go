package drafting

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order: paragraphs, lines, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveSplitter breaks text that is too large for one chunk. It splits on
// the first separator present in the text, merges the pieces back up to
// ChunkSize carrying Overlap characters into the next piece, and recurses with
// the remaining separators on any piece that is still too large. The empty
// separator splits into single characters, so every piece fits.
type RecursiveSplitter struct {
	ChunkSize  int
	Overlap    int
	Separators []string
}

// Split breaks text into pieces of at most ChunkSize characters.
func (r *RecursiveSplitter) Split(text string) []string {
	seps := r.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}
	return r.split(text, seps)
}

func (r *RecursiveSplitter) split(text string, seps []string) []string {
	sep := seps[len(seps)-1]
	var rest []string
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.Split(text, sep)
	}

	var out, fitting []string
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if runeLen(p) <= r.ChunkSize {
			fitting = append(fitting, p)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, r.merge(fitting, sep)...)
			fitting = nil
		}
		if len(rest) == 0 {
			// no separator left to try
			out = append(out, p)
			continue
		}
		out = append(out, r.split(p, rest)...)
	}
	if len(fitting) > 0 {
		out = append(out, r.merge(fitting, sep)...)
	}
	return out
}

// merge joins pieces with sep into documents of at most ChunkSize characters.
// After each emitted document the tail that fits in Overlap is kept as the
// start of the next one.
func (r *RecursiveSplitter) merge(pieces []string, sep string) []string {
	sepLen := runeLen(sep)
	sepIf := func(b bool) int {
		if b {
			return sepLen
		}
		return 0
	}

	var docs, cur []string
	total := 0
	for _, p := range pieces {
		l := runeLen(p)
		if total+l+sepIf(len(cur) > 0) > r.ChunkSize && len(cur) > 0 {
			if doc := joinTrimmed(cur, sep); doc != "" {
				docs = append(docs, doc)
			}
			for len(cur) > 0 && (total > r.Overlap || total+l+sepIf(len(cur) > 0) > r.ChunkSize) {
				total -= runeLen(cur[0]) + sepIf(len(cur) > 1)
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		total += l + sepIf(len(cur) > 1)
	}
	if doc := joinTrimmed(cur, sep); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func joinTrimmed(parts []string, sep string) string {
	return strings.TrimSpace(strings.Join(parts, sep))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
