package domain

import "encoding/json"

// DefaultSource labels ingested text when no source is configured.
const DefaultSource = "user"

// Recognized query timing stages.
const (
	StageEmbedding  = "embedding_ms"
	StageRetrieval  = "retrieval_ms"
	StageRerank     = "rerank_ms"
	StageGeneration = "generation_ms"
)

// Timings maps a pipeline stage name to its duration in milliseconds.
type Timings map[string]float64

// Stage returns the duration recorded for key and whether it was present.
func (t Timings) Stage(key string) (float64, bool) {
	v, ok := t[key]
	return v, ok
}

// IngestRequest is the body of an ingest call.
type IngestRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// IngestResult is returned by the backend after text has been stored.
type IngestResult struct {
	ChunksInserted int     `json:"chunks_inserted"`
	TokenEstimate  int     `json:"token_estimate"`
	Timings        Timings `json:"timings"`
}

// QueryRequest is the body of a query call.
type QueryRequest struct {
	Query string `json:"query"`
}

// Citation links a marker in an answer back to a stored chunk.
// ID is the rank of use in the answer and is never renumbered.
type Citation struct {
	ID            int    `json:"id"`
	Source        string `json:"source"`
	ChunkID       string `json:"chunk_id"`
	ChunkPosition int    `json:"chunk_position"`
}

// QueryResult is a generated answer with its citations.
type QueryResult struct {
	Answer        string     `json:"answer"`
	Citations     []Citation `json:"citations"`
	Timings       Timings    `json:"timings"`
	TokenEstimate int        `json:"token_estimate"`

	// RetrievedChunks is passed through without interpretation.
	RetrievedChunks []json.RawMessage `json:"retrieved_chunks"`
}
