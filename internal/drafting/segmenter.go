package drafting

import (
	"iter"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultSoftTarget is the size the flat-document fallback merges pieces up to.
const DefaultSoftTarget = 1000

var (
	headingRe  = regexp.MustCompile(`^#{1,6} `)
	bulletRe   = regexp.MustCompile(`^ {2,}[-*+•][ \t]`)
	numberedRe = regexp.MustCompile(`^\d+\. `)
	blankRe    = regexp.MustCompile(`\n[ \t]*\n`)
)

// Segmenter splits a report into atomic blocks along its markdown structure.
type Segmenter struct {
	softTarget int
}

// NewSegmenter creates a segmenter that merges flat-text pieces up to
// softTarget characters. Non-positive values use DefaultSoftTarget.
func NewSegmenter(softTarget int) *Segmenter {
	if softTarget <= 0 {
		softTarget = DefaultSoftTarget
	}
	return &Segmenter{softTarget: softTarget}
}

// Segment returns all blocks of text in order.
func (s *Segmenter) Segment(text string) []string {
	return slices.Collect(s.Blocks(text))
}

// Blocks yields the atomic blocks of text lazily. Structural boundaries are
// blank lines, headings, indented bullets and numbered items; the marker stays
// at the start of the block it opens. A document with no usable structure is
// re-split on paragraphs, lines or sentences and merged up to the soft target.
func (s *Segmenter) Blocks(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		text := normalizeNewlines(text)

		var first string
		n := 0
		stopped := false
		scanStructural(text, func(block string) bool {
			n++
			if n == 1 {
				first = block
				return true
			}
			if n == 2 && !yield(first) {
				stopped = true
				return false
			}
			if !yield(block) {
				stopped = true
				return false
			}
			return true
		})
		if stopped || n >= 2 {
			return
		}

		for _, block := range s.fallback(text) {
			if !yield(block) {
				return
			}
		}
	}
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, `\r\n`, "\n")
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func isBoundaryLine(line string) bool {
	return headingRe.MatchString(line) || bulletRe.MatchString(line) || numberedRe.MatchString(line)
}

// scanStructural walks text line by line and emits trimmed, non-empty blocks
// until emit returns false.
func scanStructural(text string, emit func(string) bool) {
	var cur []string
	flush := func() bool {
		block := strings.TrimSpace(strings.Join(cur, "\n"))
		cur = cur[:0]
		if block == "" {
			return true
		}
		return emit(block)
	}

	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			if !flush() {
				return
			}
			continue
		}
		if isBoundaryLine(line) && len(cur) > 0 {
			if !flush() {
				return
			}
		}
		cur = append(cur, line)
	}
	flush()
}

func (s *Segmenter) fallback(text string) []string {
	pieces := nonEmpty(blankRe.Split(text, -1))
	sep := "\n\n"
	if len(pieces) <= 1 {
		pieces = nonEmpty(strings.Split(text, "\n"))
		sep = "\n"
	}
	if len(pieces) <= 1 {
		pieces = splitSentences(text)
		sep = " "
	}
	return mergeShort(pieces, sep, s.softTarget)
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences cuts after '.', '!' or '?' when followed by whitespace.
func splitSentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
			if unicode.IsSpace(runes[i+1]) {
				out = append(out, string(runes[start:i+1]))
				start = i + 1
			}
		}
	}
	out = append(out, string(runes[start:]))
	return nonEmpty(out)
}

// mergeShort greedily joins adjacent pieces while the result stays within target.
// Pieces already over target are kept as they are.
func mergeShort(pieces []string, sep string, target int) []string {
	var out []string
	var acc strings.Builder
	accLen := 0
	sepLen := utf8.RuneCountInString(sep)
	for _, p := range pieces {
		l := utf8.RuneCountInString(p)
		if accLen > 0 && accLen+sepLen+l <= target {
			acc.WriteString(sep)
			acc.WriteString(p)
			accLen += sepLen + l
			continue
		}
		if accLen > 0 {
			out = append(out, acc.String())
			acc.Reset()
		}
		acc.WriteString(p)
		accLen = l
	}
	if accLen > 0 {
		out = append(out, acc.String())
	}
	return out
}
