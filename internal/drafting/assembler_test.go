package drafting

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAssembler_InvalidConfig(t *testing.T) {
	_, err := NewAssembler(0, 0)
	assert.Error(t, err)

	_, err = NewAssembler(100, -1)
	assert.Error(t, err)

	_, err = NewAssembler(100, 100)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be smaller")
}

func TestAssemble_MergesUnderMax(t *testing.T) {
	a, err := NewAssembler(1000, 100)
	require.NoError(t, err)

	s := NewSegmenter(0)
	chunks := a.Assemble(s.Blocks("# Intro\nHello world.\n\n## Body\nMore text here."))

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "# Intro\nHello world.\n\n## Body\nMore text here.", chunks[0].Text)
}

func TestAssemble_FlushesWhenFull(t *testing.T) {
	a, err := NewAssembler(25, 0)
	require.NoError(t, err)

	block := strings.Repeat("a", 10)
	chunks := a.Assemble(slices.Values([]string{block, block, block}))

	require.Len(t, chunks, 2)
	assert.Equal(t, block+"\n\n"+block, chunks[0].Text)
	assert.Equal(t, block, chunks[1].Text)
	assert.Equal(t, 1, chunks[1].Index)
}

func TestAssemble_ExactFit(t *testing.T) {
	a, err := NewAssembler(22, 0)
	require.NoError(t, err)

	block := strings.Repeat("b", 10)
	chunks := a.Assemble(slices.Values([]string{block, block}))
	require.Len(t, chunks, 1)
	assert.Equal(t, 22, runeLen(chunks[0].Text))
}

func TestAssemble_OversizedBlockIsSplitInPlace(t *testing.T) {
	a, err := NewAssembler(50, 10)
	require.NoError(t, err)

	big := strings.TrimSpace(strings.Repeat("word ", 100))
	chunks := a.Assemble(slices.Values([]string{"short", big, "tail"}))

	require.Greater(t, len(chunks), 3)
	assert.Equal(t, "short", chunks[0].Text)
	assert.Equal(t, "tail", chunks[len(chunks)-1].Text)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.NotEmpty(t, c.Text)
		assert.LessOrEqual(t, runeLen(c.Text), 50)
	}
}

func TestAssemble_NeverExceedsMax(t *testing.T) {
	a, err := NewAssembler(120, 20)
	require.NoError(t, err)

	var blocks []string
	for i := 0; i < 40; i++ {
		blocks = append(blocks, strings.Repeat("x", (i*37)%150+1))
	}
	for _, c := range a.Assemble(slices.Values(blocks)) {
		assert.LessOrEqual(t, runeLen(c.Text), 120)
	}
}

func TestAssemble_PreservesBlockOrder(t *testing.T) {
	a, err := NewAssembler(40, 0)
	require.NoError(t, err)

	blocks := []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}
	chunks := a.Assemble(slices.Values(blocks))

	var rejoined []string
	for _, c := range chunks {
		rejoined = append(rejoined, strings.Split(c.Text, "\n\n")...)
	}
	assert.Equal(t, blocks, rejoined)
}

func TestAssemble_CountsCharactersNotBytes(t *testing.T) {
	a, err := NewAssembler(10, 0)
	require.NoError(t, err)

	chunks := a.Assemble(slices.Values([]string{"你好世界", "再见"}))
	require.Len(t, chunks, 1)
	assert.Equal(t, "你好世界\n\n再见", chunks[0].Text)
}

func TestAssemble_SkipsBlankBlocks(t *testing.T) {
	a, err := NewAssembler(100, 0)
	require.NoError(t, err)

	chunks := a.Assemble(slices.Values([]string{"", "  ", "text"}))
	require.Len(t, chunks, 1)
	assert.Equal(t, "text", chunks[0].Text)
}
