package drafting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clipthread/pkg/logger"
)

// Options configures a Drafter.
type Options struct {
	MaxChunkSize  int
	ChunkOverlap  int
	SoftTarget    int
	ContextDrafts int
	ChunkTimeout  time.Duration
}

// DefaultOptions returns the stock chunking and generation settings.
func DefaultOptions() Options {
	return Options{
		MaxChunkSize:  DefaultMaxChunkSize,
		ChunkOverlap:  DefaultChunkOverlap,
		SoftTarget:    DefaultSoftTarget,
		ContextDrafts: DefaultContextDrafts,
		ChunkTimeout:  DefaultChunkTimeout,
	}
}

// Drafter turns a research report into an ordered list of post drafts.
type Drafter struct {
	segmenter *Segmenter
	assembler *Assembler
	generator *Generator
}

// NewDrafter wires a segmenter, assembler and generator from opts.
func NewDrafter(backend Backend, opts Options) (*Drafter, error) {
	assembler, err := NewAssembler(opts.MaxChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Drafter{
		segmenter: NewSegmenter(opts.SoftTarget),
		assembler: assembler,
		generator: NewGenerator(backend, GeneratorOptions{
			ContextDrafts: opts.ContextDrafts,
			ChunkTimeout:  opts.ChunkTimeout,
		}),
	}, nil
}

// Chunks exposes the segmentation and assembly steps on their own.
func (d *Drafter) Chunks(notes string) []Chunk {
	return d.assembler.Assemble(d.segmenter.Blocks(notes))
}

// Draft runs the full pipeline. It fails when there are no research notes or
// when ctx ends before every chunk was attempted; otherwise it returns
// whatever the chunks produced, possibly nothing.
func (d *Drafter) Draft(ctx context.Context, report ResearchReport, transcription string) ([]string, error) {
	if strings.TrimSpace(report.Notes) == "" {
		return nil, ErrNoResearch
	}

	chunks := d.Chunks(report.Notes)
	logger.Info("Starting drafting",
		"notes_chars", runeLen(report.Notes),
		"chunks", len(chunks),
		"max_chunk_size", d.assembler.MaxSize(),
		"sources", len(report.Sources))

	units := d.generator.Generate(ctx, chunks, transcription)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("drafting interrupted after %d drafts: %w", len(units), err)
	}
	resolved := ResolveCitations(units, report.Sources)

	logger.Info("Drafting complete", "chunks", len(chunks), "drafts", len(resolved))
	return Texts(resolved), nil
}
