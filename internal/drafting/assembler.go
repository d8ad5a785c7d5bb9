package drafting

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

const (
	// DefaultMaxChunkSize is the largest chunk, in characters, sent in one call.
	DefaultMaxChunkSize = 3000

	// DefaultChunkOverlap is carried between pieces of an oversized block.
	DefaultChunkOverlap = 200

	paragraphSep = "\n\n"
)

// Assembler packs atomic blocks into chunks of at most maxSize characters.
type Assembler struct {
	maxSize  int
	splitter *RecursiveSplitter
}

// NewAssembler creates an assembler. overlap must be non-negative and smaller
// than maxSize.
func NewAssembler(maxSize, overlap int) (*Assembler, error) {
	if maxSize <= 0 {
		return nil, errors.New("assembler: max chunk size must be > 0")
	}
	if overlap < 0 {
		return nil, errors.New("assembler: chunk overlap must be >= 0")
	}
	if overlap >= maxSize {
		return nil, fmt.Errorf("assembler: chunk overlap %d must be smaller than max chunk size %d", overlap, maxSize)
	}
	return &Assembler{
		maxSize:  maxSize,
		splitter: &RecursiveSplitter{ChunkSize: maxSize, Overlap: overlap},
	}, nil
}

// MaxSize returns the configured chunk limit.
func (a *Assembler) MaxSize() int { return a.maxSize }

// Assemble merges blocks in order. A block larger than the limit is emitted as
// its own run of split chunks after flushing whatever was accumulated.
func (a *Assembler) Assemble(blocks iter.Seq[string]) []Chunk {
	var chunks []Chunk
	var acc strings.Builder
	accLen := 0

	emit := func(text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: text})
	}
	flush := func() {
		if accLen == 0 {
			return
		}
		emit(acc.String())
		acc.Reset()
		accLen = 0
	}

	for block := range blocks {
		if strings.TrimSpace(block) == "" {
			continue
		}
		l := runeLen(block)

		if l > a.maxSize {
			flush()
			for _, piece := range a.splitter.Split(block) {
				emit(piece)
			}
			continue
		}

		if accLen > 0 && accLen+len(paragraphSep)+l <= a.maxSize {
			acc.WriteString(paragraphSep)
			acc.WriteString(block)
			accLen += len(paragraphSep) + l
			continue
		}

		flush()
		acc.WriteString(block)
		accLen = l
	}
	flush()

	return chunks
}
