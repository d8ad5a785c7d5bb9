package drafting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clipthread/internal/metrics"
	"clipthread/pkg/logger"
)

const (
	// DefaultContextDrafts is how many earlier drafts a continuation prompt shows.
	DefaultContextDrafts = 2

	// DefaultChunkTimeout bounds a single backend call.
	DefaultChunkTimeout = 3 * time.Minute
)

// GeneratorOptions tunes a Generator. Zero values take the defaults.
type GeneratorOptions struct {
	// ContextDrafts is how many of the latest drafts are shown to the backend
	// as thread context.
	ContextDrafts int
	// ChunkTimeout bounds each backend call. Negative disables the timeout.
	ChunkTimeout time.Duration
	// Strategies overrides the parse ladder.
	Strategies []ParseStrategy
}

// Generator drafts posts chunk by chunk. Chunks are processed strictly in
// order because every prompt embeds the drafts produced before it.
type Generator struct {
	backend       Backend
	strategies    []ParseStrategy
	contextDrafts int
	chunkTimeout  time.Duration
}

// NewGenerator creates a generator over backend. Zero options take the defaults.
func NewGenerator(backend Backend, opts GeneratorOptions) *Generator {
	g := &Generator{
		backend:       backend,
		strategies:    opts.Strategies,
		contextDrafts: opts.ContextDrafts,
		chunkTimeout:  opts.ChunkTimeout,
	}
	if len(g.strategies) == 0 {
		g.strategies = DefaultStrategies()
	}
	if g.contextDrafts <= 0 {
		g.contextDrafts = DefaultContextDrafts
	}
	if g.chunkTimeout == 0 {
		g.chunkTimeout = DefaultChunkTimeout
	}
	return g
}

// Generate returns the drafts for all chunks in chunk order. A chunk whose
// backend call or parsing fails is logged and contributes nothing.
func (g *Generator) Generate(ctx context.Context, chunks []Chunk, source string) []DraftUnit {
	var units []DraftUnit

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			logger.Warn("Drafting cancelled",
				"chunk", chunk.Index, "total", len(chunks), "error", err)
			break
		}

		logger.Debug("Drafting chunk", "chunk", chunk.Index+1, "total", len(chunks), "chars", runeLen(chunk.Text))

		drafts, err := g.draftChunk(ctx, chunk, source, g.previousContext(units))
		if err != nil {
			metrics.ChunksProcessed.WithLabelValues("failed").Inc()
			logger.Warn("Chunk drafting failed, skipping",
				"chunk", chunk.Index, "error", err)
			continue
		}

		metrics.ChunksProcessed.WithLabelValues("ok").Inc()
		metrics.DraftsGenerated.Add(float64(len(drafts)))
		for i, d := range drafts {
			units = append(units, DraftUnit{ChunkIndex: chunk.Index, Position: i, Text: d})
		}
	}

	return units
}

func (g *Generator) draftChunk(ctx context.Context, chunk Chunk, source, previous string) (drafts []string, err error) {
	callCtx := ctx
	if g.chunkTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.chunkTimeout)
		defer cancel()
	}

	// Backends are pluggable; a panicking one must not take the pipeline down.
	defer func() {
		if r := recover(); r != nil {
			drafts, err = nil, fmt.Errorf("backend panic: %v", r)
		}
	}()

	req := Request{
		SystemPrompt: SystemPrompt(chunk.Index, previous),
		UserContent:  UserContent(chunk.Text, source),
		Schema:       DraftsSchema,
	}

	start := time.Now()
	resp, err := g.backend.Generate(callCtx, req)
	metrics.ChunkDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("empty response from backend")
	}

	drafts, strategy, err := ParseDrafts(resp, g.strategies)
	if err != nil {
		return nil, fmt.Errorf("failed to parse backend response: %w", err)
	}
	metrics.ParseStrategyHits.WithLabelValues(strategy).Inc()
	logger.Debug("Parsed chunk drafts", "chunk", chunk.Index, "strategy", strategy, "drafts", len(drafts))

	return drafts, nil
}

// previousContext renders the latest drafts for the continuation prompt.
func (g *Generator) previousContext(units []DraftUnit) string {
	if len(units) == 0 {
		return noPreviousDrafts
	}
	from := len(units) - g.contextDrafts
	if from < 0 {
		from = 0
	}
	return strings.Join(Texts(units[from:]), "\n\n")
}

// SystemPrompt picks the opening prompt for chunk 0 and the continuation
// prompt, carrying previous, for every other chunk.
func SystemPrompt(chunkIndex int, previous string) string {
	if chunkIndex == 0 {
		return InitialDraftingPrompt
	}
	if strings.TrimSpace(previous) == "" {
		previous = noPreviousDrafts
	}
	return fmt.Sprintf(continuationPromptTemplate, previous)
}

// UserContent combines a chunk with the original transcription.
func UserContent(chunkText, source string) string {
	return fmt.Sprintf(userPromptTemplate, chunkText, source)
}
