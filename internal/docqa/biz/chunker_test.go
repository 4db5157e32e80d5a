package biz

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_ShortParagraphKeptWhole(t *testing.T) {
	c := NewChunker(ChunkerConfig{})

	para := strings.Repeat("coverage terms apply here. ", 10) // ~270 runes
	chunks := c.Split(para)

	require.Len(t, chunks, 1)
	assert.Equal(t, strings.TrimSpace(para), chunks[0])
}

func TestChunker_DropsShortFragments(t *testing.T) {
	c := NewChunker(ChunkerConfig{})

	chunks := c.Split("Too short.\n\n" + strings.Repeat("long enough paragraph text. ", 5))
	require.Len(t, chunks, 1)
	assert.NotContains(t, chunks[0], "Too short")
}

func TestChunker_LongParagraphSplitBySentence(t *testing.T) {
	c := NewChunker(ChunkerConfig{ChunkSize: 100, ChunkFloor: 10})

	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString("This sentence has about forty characters in it. ")
	}
	chunks := c.Split(sb.String())

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 100)
		// No sentence is cut mid-way.
		assert.True(t, strings.HasSuffix(chunk, "."), "chunk should end at a sentence boundary: %q", chunk)
	}
}

func TestChunker_ContentPreservedAcrossSplit(t *testing.T) {
	c := NewChunker(ChunkerConfig{ChunkSize: 120, ChunkFloor: 5})

	sentences := []string{
		"The waiting period for cataract surgery is twenty four months.",
		"Plan A covers ambulance charges up to two thousand rupees.",
		"Maternity benefits begin after thirty six months of coverage.",
		"Room rent is capped at one percent of the sum insured daily.",
	}
	chunks := c.Split(strings.Join(sentences, " "))

	joined := strings.Join(chunks, " ")
	for _, sent := range sentences {
		assert.Contains(t, joined, sent)
	}
}

func TestChunker_OversizedSentenceKeptIntact(t *testing.T) {
	c := NewChunker(ChunkerConfig{ChunkSize: 50, ChunkFloor: 5})

	long := "This single sentence runs well past the configured maximum chunk size without any terminal punctuation until the very end."
	chunks := c.Split(long)

	require.Len(t, chunks, 1)
	assert.Equal(t, long, chunks[0])
}

func TestChunker_MultipleParagraphs(t *testing.T) {
	c := NewChunker(ChunkerConfig{ChunkSize: 500, ChunkFloor: 20})

	text := strings.Repeat("first paragraph sentence here. ", 4) +
		"\n\n" +
		strings.Repeat("second paragraph sentence here. ", 4)
	chunks := c.Split(text)

	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], "first paragraph")
	assert.Contains(t, chunks[1], "second paragraph")
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("One here. Two there! Three anywhere? Trailing tail without period")
	require.Len(t, sentences, 4)
	assert.Equal(t, "One here.", sentences[0])
	assert.Equal(t, "Two there!", sentences[1])
	assert.Equal(t, "Three anywhere?", sentences[2])
	assert.Equal(t, "Trailing tail without period", sentences[3])
}
