package chunker

import (
	"strings"

	"github.com/google/uuid"
)

// Chunk is a window of words taken from one ingested text.
type Chunk struct {
	ID       string
	Position int
	Text     string
}

// WordChunker splits text into fixed-size word windows with overlap.
type WordChunker struct {
	size    int
	overlap int
}

func NewWordChunker(size, overlap int) *WordChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &WordChunker{size: size, overlap: overlap}
}

// Chunk returns the windows of text in order. Position counts windows from
// zero; consecutive windows share overlap words.
func (c *WordChunker) Chunk(text string) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := c.size - c.overlap
	var chunks []Chunk
	for start := 0; start < len(words); start += step {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			ID:       uuid.NewString(),
			Position: start / step,
			Text:     strings.Join(words[start:end], " "),
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}
