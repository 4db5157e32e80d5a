package biz

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the maximum chunk length in runes.
	DefaultChunkSize = 500
	// DefaultChunkFloor drops fragments shorter than this many runes.
	DefaultChunkFloor = 80
)

// sentenceEnd matches a sentence boundary: terminal punctuation followed by whitespace.
var sentenceEnd = regexp.MustCompile(`(?s)(.*?[.!?])(?:\s+|$)`)

// ChunkerConfig controls how documents are split into chunks.
type ChunkerConfig struct {
	// ChunkSize is the maximum chunk length in runes.
	ChunkSize int
	// ChunkFloor is the minimum chunk length in runes. Shorter
	// fragments carry too little signal to be worth embedding.
	ChunkFloor int
}

// Chunker splits normalized document text into retrieval chunks.
// Paragraphs are the primary unit; oversized paragraphs are re-split
// at sentence boundaries and greedily re-packed up to ChunkSize.
type Chunker struct {
	cfg ChunkerConfig
}

// NewChunker creates a Chunker. Zero config fields fall back to defaults.
func NewChunker(cfg ChunkerConfig) *Chunker {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkFloor <= 0 {
		cfg.ChunkFloor = DefaultChunkFloor
	}
	return &Chunker{cfg: cfg}
}

// Split breaks text into chunks. Paragraphs at or under ChunkSize are
// kept whole; longer ones are re-split by sentence. A single sentence
// longer than ChunkSize is kept intact rather than cut mid-sentence.
func (c *Chunker) Split(text string) []string {
	var chunks []string

	for _, para := range splitParagraphs(text) {
		if utf8.RuneCountInString(para) <= c.cfg.ChunkSize {
			if utf8.RuneCountInString(para) >= c.cfg.ChunkFloor {
				chunks = append(chunks, para)
			}
			continue
		}
		for _, chunk := range c.packSentences(splitSentences(para)) {
			if utf8.RuneCountInString(chunk) >= c.cfg.ChunkFloor {
				chunks = append(chunks, chunk)
			}
		}
	}

	return chunks
}

// packSentences greedily joins consecutive sentences into chunks not
// exceeding ChunkSize, flushing the current chunk when the next
// sentence would overflow it.
func (c *Chunker) packSentences(sentences []string) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, sent := range sentences {
		n := utf8.RuneCountInString(sent)
		if n > c.cfg.ChunkSize {
			// Oversized sentence stands alone.
			flush()
			chunks = append(chunks, sent)
			continue
		}
		// +1 accounts for the joining space.
		if curLen > 0 && curLen+1+n > c.cfg.ChunkSize {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(sent)
		curLen += n
	}
	flush()

	return chunks
}

// splitParagraphs splits on blank lines and trims each paragraph.
func splitParagraphs(text string) []string {
	var paras []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// splitSentences splits text at sentence-ending punctuation. Trailing
// text without terminal punctuation becomes the final sentence.
func splitSentences(text string) []string {
	var sentences []string
	rest := text
	for {
		loc := sentenceEnd.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		sent := strings.TrimSpace(rest[loc[2]:loc[3]])
		if sent != "" {
			sentences = append(sentences, sent)
		}
		rest = rest[loc[1]:]
		if rest == "" {
			break
		}
	}
	if tail := strings.TrimSpace(rest); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
