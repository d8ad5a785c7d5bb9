package drafting

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDrafter_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.ChunkOverlap = opts.MaxChunkSize

	_, err := NewDrafter(BackendFunc(func(context.Context, Request) (Response, error) {
		return nil, nil
	}), opts)
	assert.Error(t, err)
}

func TestDraft_NoResearch(t *testing.T) {
	called := false
	d, err := NewDrafter(BackendFunc(func(context.Context, Request) (Response, error) {
		called = true
		return StructuredResponse{Drafts: []string{"x"}}, nil
	}), DefaultOptions())
	require.NoError(t, err)

	_, err = d.Draft(context.Background(), ResearchReport{Notes: "  \n\t "}, "transcript")
	assert.ErrorIs(t, err, ErrNoResearch)
	assert.False(t, called)
}

func TestDraft_EndToEnd(t *testing.T) {
	notes := "# Findings\nOpen models are closing the gap [1].\n\n# Costs\nInference costs fell sharply [2]."
	report := ResearchReport{
		Notes:   notes,
		Sources: []Source{URLSource("https://a.test"), RecordSource(map[string]any{"url": "https://b.test"})},
	}

	var requests []Request
	backend := BackendFunc(func(_ context.Context, req Request) (Response, error) {
		requests = append(requests, req)
		return TextResponse{Text: "```json\n{\"drafts\": [\"Gap is closing [1]\", \"Costs are down [2]\"]}\n```"}, nil
	})

	d, err := NewDrafter(backend, DefaultOptions())
	require.NoError(t, err)

	drafts, err := d.Draft(context.Background(), report, "video transcript")
	require.NoError(t, err)

	// both sections fit in one chunk
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].UserContent, "Open models are closing the gap [1].")
	assert.Contains(t, requests[0].UserContent, "Inference costs fell sharply [2].")
	assert.Equal(t, []string{"Gap is closing (https://a.test)", "Costs are down (https://b.test)"}, drafts)
}

func TestDraft_ManyChunksPartialFailure(t *testing.T) {
	var sections []string
	for i := 0; i < 6; i++ {
		sections = append(sections, "# Section\n"+strings.Repeat("word ", 150))
	}
	report := ResearchReport{Notes: strings.Join(sections, "\n\n")}

	opts := DefaultOptions()
	opts.MaxChunkSize = 1000
	opts.ChunkOverlap = 100

	calls := 0
	backend := BackendFunc(func(_ context.Context, req Request) (Response, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return StructuredResponse{Drafts: []string{"draft"}}, nil
	})

	d, err := NewDrafter(backend, opts)
	require.NoError(t, err)

	chunks := d.Chunks(report.Notes)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, runeLen(c.Text), 1000)
	}

	drafts, err := d.Draft(context.Background(), report, "")
	require.NoError(t, err)
	assert.Len(t, drafts, len(chunks)-1)
}

func TestDraft_AllChunksFail(t *testing.T) {
	backend := BackendFunc(func(context.Context, Request) (Response, error) {
		return nil, errors.New("down")
	})
	d, err := NewDrafter(backend, DefaultOptions())
	require.NoError(t, err)

	drafts, err := d.Draft(context.Background(), ResearchReport{Notes: "# Title\nSomething to say."}, "")
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestDraft_CancelledMidRun(t *testing.T) {
	var sections []string
	for i := 0; i < 4; i++ {
		sections = append(sections, "# Section\n"+strings.Repeat("word ", 150))
	}
	report := ResearchReport{Notes: strings.Join(sections, "\n\n")}

	opts := DefaultOptions()
	opts.MaxChunkSize = 1000
	opts.ChunkOverlap = 100

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	backend := BackendFunc(func(context.Context, Request) (Response, error) {
		calls++
		cancel()
		return StructuredResponse{Drafts: []string{"draft"}}, nil
	})
	d, err := NewDrafter(backend, opts)
	require.NoError(t, err)
	require.Greater(t, len(d.Chunks(report.Notes)), 1)

	drafts, err := d.Draft(ctx, report, "")
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, drafts)
	assert.Equal(t, 1, calls)
}
