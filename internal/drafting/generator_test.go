package drafting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBackend answers chunk i with replies[i] and records every request.
type scriptedBackend struct {
	mu       sync.Mutex
	replies  []func(ctx context.Context) (Response, error)
	requests []Request
}

func (b *scriptedBackend) Generate(ctx context.Context, req Request) (Response, error) {
	b.mu.Lock()
	i := len(b.requests)
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	if i >= len(b.replies) {
		return nil, errors.New("unexpected call")
	}
	return b.replies[i](ctx)
}

func reply(drafts ...string) func(context.Context) (Response, error) {
	return func(context.Context) (Response, error) { return StructuredResponse{Drafts: drafts}, nil }
}

func fail(err error) func(context.Context) (Response, error) {
	return func(context.Context) (Response, error) { return nil, err }
}

func chunksOf(texts ...string) []Chunk {
	out := make([]Chunk, len(texts))
	for i, t := range texts {
		out[i] = Chunk{Index: i, Text: t}
	}
	return out
}

func TestGenerate_FailedChunkIsSkipped(t *testing.T) {
	backend := &scriptedBackend{replies: []func(context.Context) (Response, error){
		fail(errors.New("quota exceeded")),
		reply("second chunk draft A", "second chunk draft B"),
	}}
	g := NewGenerator(backend, GeneratorOptions{})

	units := g.Generate(context.Background(), chunksOf("lead", "body"), "transcript")

	assert.Equal(t, []DraftUnit{
		{ChunkIndex: 1, Position: 0, Text: "second chunk draft A"},
		{ChunkIndex: 1, Position: 1, Text: "second chunk draft B"},
	}, units)
}

func TestGenerate_PromptSelectionAndContext(t *testing.T) {
	backend := &scriptedBackend{replies: []func(context.Context) (Response, error){
		reply("alpha-opening"),
		reply("bravo-one", "bravo-two", "bravo-three"),
		reply("charlie-one"),
	}}
	g := NewGenerator(backend, GeneratorOptions{})

	units := g.Generate(context.Background(), chunksOf("lead section", "middle section", "last section"), "the transcript")
	require.Len(t, units, 5)
	require.Len(t, backend.requests, 3)

	assert.Equal(t, InitialDraftingPrompt, backend.requests[0].SystemPrompt)
	assert.Contains(t, backend.requests[1].SystemPrompt, "alpha-opening")
	assert.Contains(t, backend.requests[2].SystemPrompt, "bravo-two\n\nbravo-three")
	assert.NotContains(t, backend.requests[2].SystemPrompt, "bravo-one")
	assert.NotContains(t, backend.requests[2].SystemPrompt, "alpha-opening")

	for i, req := range backend.requests {
		assert.Contains(t, req.UserContent, chunksOf("lead section", "middle section", "last section")[i].Text)
		assert.Contains(t, req.UserContent, "the transcript")
		assert.Equal(t, DraftsSchema, req.Schema)
	}
}

func TestGenerate_ContextSentinelAfterFailedFirstChunk(t *testing.T) {
	backend := &scriptedBackend{replies: []func(context.Context) (Response, error){
		fail(errors.New("boom")),
		reply("draft"),
	}}
	g := NewGenerator(backend, GeneratorOptions{})

	g.Generate(context.Background(), chunksOf("a", "b"), "")
	require.Len(t, backend.requests, 2)
	assert.Contains(t, backend.requests[1].SystemPrompt, noPreviousDrafts)
}

func TestGenerate_ContextDraftsOption(t *testing.T) {
	backend := &scriptedBackend{replies: []func(context.Context) (Response, error){
		reply("d1", "d2", "d3"),
		reply("d4"),
	}}
	g := NewGenerator(backend, GeneratorOptions{ContextDrafts: 3})

	g.Generate(context.Background(), chunksOf("a", "b"), "")
	assert.Contains(t, backend.requests[1].SystemPrompt, "d1\n\nd2\n\nd3")
}

func TestGenerate_UnparseableResponseIsSkipped(t *testing.T) {
	backend := &scriptedBackend{replies: []func(context.Context) (Response, error){
		func(context.Context) (Response, error) { return TextResponse{Text: "no"}, nil },
		func(context.Context) (Response, error) {
			return TextResponse{Text: "```json\n{\"drafts\": [\"parsed from text\"]}\n```"}, nil
		},
	}}
	g := NewGenerator(backend, GeneratorOptions{})

	units := g.Generate(context.Background(), chunksOf("a", "b"), "")
	require.Len(t, units, 1)
	assert.Equal(t, "parsed from text", units[0].Text)
	assert.Equal(t, 1, units[0].ChunkIndex)
}

func TestGenerate_TimeoutIsChunkFailure(t *testing.T) {
	backend := &scriptedBackend{replies: []func(context.Context) (Response, error){
		func(ctx context.Context) (Response, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
		reply("after timeout"),
	}}
	g := NewGenerator(backend, GeneratorOptions{ChunkTimeout: 20 * time.Millisecond})

	units := g.Generate(context.Background(), chunksOf("slow", "fast"), "")
	require.Len(t, units, 1)
	assert.Equal(t, "after timeout", units[0].Text)
}

func TestGenerate_PanickingBackendIsContained(t *testing.T) {
	backend := &scriptedBackend{replies: []func(context.Context) (Response, error){
		func(context.Context) (Response, error) { panic("bad backend") },
		reply("still here"),
	}}
	g := NewGenerator(backend, GeneratorOptions{})

	units := g.Generate(context.Background(), chunksOf("a", "b"), "")
	require.Len(t, units, 1)
	assert.Equal(t, "still here", units[0].Text)
}

func TestGenerate_CancelledContext(t *testing.T) {
	backend := &scriptedBackend{}
	g := NewGenerator(backend, GeneratorOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	units := g.Generate(ctx, chunksOf("a", "b"), "")
	assert.Empty(t, units)
	assert.Empty(t, backend.requests)
}

func TestSystemPrompt(t *testing.T) {
	assert.Equal(t, InitialDraftingPrompt, SystemPrompt(0, "ignored"))
	assert.Contains(t, SystemPrompt(1, "previous post"), "previous post")
	assert.Contains(t, SystemPrompt(2, "  "), noPreviousDrafts)
}
