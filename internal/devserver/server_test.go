package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minirag/internal/api"
	"minirag/internal/domain"
	"minirag/internal/session"
)

func setupTestServer(t *testing.T) (*Server, *httptest.Server) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	srv := New(Options{ChunkSize: 8, ChunkOverlap: 2, TopK: 2}, logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestHandleHealth(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestHandleIngest_Validation(t *testing.T) {
	srv, _ := setupTestServer(t)

	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"blank text", `{"text":"   "}`, "Text is required."},
		{"invalid json", `{`, "Invalid JSON body."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/ingest", bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()
			srv.Router().ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp errorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.detail, resp.Detail)
		})
	}
}

func TestIngestThenQuery(t *testing.T) {
	srv, ts := setupTestServer(t)
	client := api.NewClient(api.Config{BaseURL: ts.URL}, nil)
	ctx := context.Background()

	res, err := client.SubmitIngest(ctx, domain.IngestRequest{Text: "The sky is blue.", Source: "sky.txt"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ChunksInserted)
	assert.Equal(t, 4, res.TokenEstimate)
	_, ok := res.Timings.Stage("chunking_ms")
	assert.True(t, ok)

	_, err = client.SubmitIngest(ctx, domain.IngestRequest{Text: "Grass is green. Roses are red."})
	require.NoError(t, err)
	assert.Equal(t, 2, srv.index.Len())

	q, err := client.SubmitQuery(ctx, domain.QueryRequest{Query: "what color is the sky"})
	require.NoError(t, err)
	require.NotEmpty(t, q.Citations)
	assert.Equal(t, 1, q.Citations[0].ID)
	assert.Equal(t, "sky.txt", q.Citations[0].Source)
	assert.Equal(t, 0, q.Citations[0].ChunkPosition)
	assert.Contains(t, q.Answer, "The sky is blue. [1]")
	assert.Len(t, q.RetrievedChunks, len(q.Citations))
	for _, key := range []string{domain.StageEmbedding, domain.StageRetrieval, domain.StageRerank, domain.StageGeneration} {
		_, ok := q.Timings.Stage(key)
		assert.True(t, ok, key)
	}
}

func TestQuery_NoMatches(t *testing.T) {
	_, ts := setupTestServer(t)
	client := api.NewClient(api.Config{BaseURL: ts.URL}, nil)

	q, err := client.SubmitQuery(context.Background(), domain.QueryRequest{Query: "anything"})
	require.NoError(t, err)
	assert.Equal(t, noAnswer, q.Answer)
	assert.Empty(t, q.Citations)
	assert.Empty(t, q.RetrievedChunks)
	assert.Equal(t, 2, q.TokenEstimate)
}

func TestQuery_EmptyIsRemoteError(t *testing.T) {
	_, ts := setupTestServer(t)
	client := api.NewClient(api.Config{BaseURL: ts.URL}, nil)

	_, err := client.SubmitQuery(context.Background(), domain.QueryRequest{Query: ""})
	var remote *api.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "Query is required.", remote.Message)
}

func TestControllerAgainstDevServer(t *testing.T) {
	_, ts := setupTestServer(t)
	ctl := session.New(api.NewClient(api.Config{BaseURL: ts.URL}, nil), session.Options{})

	ctl.SetInputText("The sky is blue.")
	require.NoError(t, ctl.SubmitIngest(context.Background()))
	assert.Equal(t, "✓ Ingested 1 chunks (4 tokens)", ctl.State().IngestStatus)

	ctl.SetQueryText("sky")
	require.NoError(t, ctl.SubmitQuery(context.Background()))
	v := ctl.View()
	require.NotNil(t, v.Answer)
	assert.Equal(t, []string{"[1] user (chunk 0)"}, v.Answer.Citations)
	assert.Empty(t, v.Error)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
	assert.Equal(t, 1, estimateTokens("abc"))
	assert.Equal(t, 2, estimateTokens("abcde"))
	assert.Equal(t, 3, estimateTokens("abcd", "efgh"))
}

func TestRerankPrefersSentenceOverlap(t *testing.T) {
	qset := toTokenSet("blue sky")
	hits := []hit{
		{chunk: storedChunk{Source: "a"}, score: 0.9},
		{chunk: storedChunk{Source: "b"}, score: 0.5},
	}
	hits[0].chunk.Text = "Only blue here."
	hits[1].chunk.Text = "The sky is blue."

	out := rerank(hits, qset, 1)
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].chunk.Source)
}
