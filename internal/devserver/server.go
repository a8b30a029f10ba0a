// Package devserver is an in-memory stand-in for the knowledge base backend.
// It speaks the same JSON contract as the real service so the client can be
// exercised without the retrieval stack: chunks are word windows, retrieval
// is lexical and answers are extracted sentences with citation markers.
package devserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"minirag/internal/chunker"
	"minirag/internal/domain"
)

const (
	noAnswer = "I don't know based on the provided text."
	// retrieval over-fetches and rerank trims to topK
	candidateFactor = 3
)

// Options configures the development server.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

// Server handles the ingest and query endpoints.
type Server struct {
	chunker *chunker.WordChunker
	index   *Index
	topK    int
	logger  *logrus.Logger
}

func New(opts Options, logger *logrus.Logger) *Server {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Server{
		chunker: chunker.NewWordChunker(opts.ChunkSize, opts.ChunkOverlap),
		index:   NewIndex(),
		topK:    opts.TopK,
		logger:  logger,
	}
}

// Router returns the HTTP routes with middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/ingest", s.HandleIngest)
		r.Post("/query", s.HandleQuery)
	})
	return r
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type retrievedChunk struct {
	Source        string  `json:"source"`
	ChunkID       string  `json:"chunk_id"`
	ChunkPosition int     `json:"chunk_position"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// HandleHealth reports liveness and the number of stored chunks.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "chunks": s.index.Len()})
}

// HandleIngest chunks and stores text.
func (s *Server) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req domain.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text is required.")
		return
	}
	if req.Source == "" {
		req.Source = domain.DefaultSource
	}

	start := time.Now()
	chunks := s.chunker.Chunk(req.Text)
	chunkMS := elapsedMS(start)

	start = time.Now()
	s.index.Add(req.Source, chunks)
	insertMS := elapsedMS(start)

	s.logger.WithFields(logrus.Fields{
		"source": req.Source,
		"chunks": len(chunks),
	}).Info("Inserted chunks")

	writeJSON(w, http.StatusOK, domain.IngestResult{
		ChunksInserted: len(chunks),
		TokenEstimate:  estimateTokens(req.Text),
		Timings: domain.Timings{
			"chunking_ms":  chunkMS,
			"embedding_ms": 0,
			"insert_ms":    insertMS,
		},
	})
}

// HandleQuery answers a question from the stored chunks.
func (s *Server) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req domain.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Query is required.")
		return
	}

	start := time.Now()
	qset := toTokenSet(req.Query)
	embedMS := elapsedMS(start)

	start = time.Now()
	hits := s.index.Search(qset, s.topK*candidateFactor)
	retrieveMS := elapsedMS(start)

	if len(hits) == 0 {
		writeJSON(w, http.StatusOK, domain.QueryResult{
			Answer:    noAnswer,
			Citations: []domain.Citation{},
			Timings: domain.Timings{
				domain.StageEmbedding:  embedMS,
				domain.StageRetrieval:  retrieveMS,
				domain.StageRerank:     0,
				domain.StageGeneration: 0,
			},
			TokenEstimate:   estimateTokens(req.Query),
			RetrievedChunks: []json.RawMessage{},
		})
		return
	}

	start = time.Now()
	hits = rerank(hits, qset, s.topK)
	rerankMS := elapsedMS(start)

	start = time.Now()
	parts := make([]string, 0, len(hits))
	citations := make([]domain.Citation, 0, len(hits))
	retrieved := make([]json.RawMessage, 0, len(hits))
	texts := []string{req.Query}
	for i, h := range hits {
		parts = append(parts, fmt.Sprintf("%s [%d]", bestSentence(h.chunk.Text, qset), i+1))
		citations = append(citations, domain.Citation{
			ID:            i + 1,
			Source:        h.chunk.Source,
			ChunkID:       h.chunk.ID,
			ChunkPosition: h.chunk.Position,
		})
		raw, err := json.Marshal(retrievedChunk{
			Source:        h.chunk.Source,
			ChunkID:       h.chunk.ID,
			ChunkPosition: h.chunk.Position,
			Content:       h.chunk.Text,
			Score:         h.score,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to encode retrieved chunks.")
			return
		}
		retrieved = append(retrieved, raw)
		texts = append(texts, h.chunk.Text)
	}
	answer := strings.Join(parts, " ")
	genMS := elapsedMS(start)

	writeJSON(w, http.StatusOK, domain.QueryResult{
		Answer:    answer,
		Citations: citations,
		Timings: domain.Timings{
			domain.StageEmbedding:  embedMS,
			domain.StageRetrieval:  retrieveMS,
			domain.StageRerank:     rerankMS,
			domain.StageGeneration: genMS,
		},
		TokenEstimate:   estimateTokens(texts...),
		RetrievedChunks: retrieved,
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": ww.Status(),
			"request_id":  middleware.GetReqID(r.Context()),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Handled request")
	})
}
