package devserver

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"minirag/internal/chunker"
)

var (
	unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
	sentenceRe    = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// storedChunk is a chunk with the source label it was ingested under.
type storedChunk struct {
	chunker.Chunk
	Source string
	tokens map[string]struct{}
}

// hit is a search match with its relevance score.
type hit struct {
	chunk storedChunk
	score float64
}

// Index is an in-memory lexical index. Safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	chunks []storedChunk
}

func NewIndex() *Index { return &Index{} }

// Add stores chunks under source.
func (ix *Index) Add(source string, chunks []chunker.Chunk) {
	stored := make([]storedChunk, len(chunks))
	for i, ch := range chunks {
		stored[i] = storedChunk{Chunk: ch, Source: source, tokens: toTokenSet(ch.Text)}
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.chunks = append(ix.chunks, stored...)
}

// Len returns the number of stored chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// Clear drops all stored chunks.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.chunks = nil
}

// Search returns up to topK chunks sharing at least one token with the
// query, best first.
func (ix *Index) Search(qset map[string]struct{}, topK int) []hit {
	if topK <= 0 {
		topK = 5
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var hits []hit
	for _, ch := range ix.chunks {
		if s := overlapOchiai(qset, ch.tokens); s > 0 {
			hits = append(hits, hit{chunk: ch, score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK]
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// overlapOchiai is |A∩B| / sqrt(|A||B|).
func overlapOchiai(qset, cset map[string]struct{}) float64 {
	if len(qset) == 0 || len(cset) == 0 {
		return 0
	}
	inter := 0
	for t := range qset {
		if _, ok := cset[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(cset)))
}

// rerank orders hits by how many query tokens their best sentence shares,
// keeping retrieval order for ties, and trims to topK.
func rerank(hits []hit, qset map[string]struct{}, topK int) []hit {
	type scored struct {
		hit
		overlap int
	}
	ranked := make([]scored, len(hits))
	for i, h := range hits {
		ranked[i] = scored{hit: h, overlap: sentenceOverlap(bestSentence(h.chunk.Text, qset), qset)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].overlap > ranked[j].overlap })
	if topK > len(ranked) {
		topK = len(ranked)
	}
	out := make([]hit, topK)
	for i := range out {
		out[i] = ranked[i].hit
	}
	return out
}

func sentenceOverlap(sentence string, qset map[string]struct{}) int {
	score := 0
	for t := range toTokenSet(sentence) {
		if _, ok := qset[t]; ok {
			score++
		}
	}
	return score
}

// bestSentence picks the sentence of text sharing the most tokens with the query.
func bestSentence(text string, qset map[string]struct{}) string {
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	best, bestScore := "", -1
	for _, s := range sentences {
		score := sentenceOverlap(s, qset)
		if score > bestScore {
			best, bestScore = strings.TrimSpace(s), score
		}
	}
	return best
}

// estimateTokens approximates four characters per token.
func estimateTokens(texts ...string) int {
	total := 0
	for _, t := range texts {
		n := len([]rune(t))
		if n == 0 {
			continue
		}
		total += max(1, int(math.Ceil(float64(n)/4)))
	}
	return total
}
