package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minirag/internal/domain"
)

func TestRender_IsPure(t *testing.T) {
	st := State{
		IngestStatus: "✓ Ingested 3 chunks (120 tokens)",
		QueryResult: &domain.QueryResult{
			Answer:        "Blue [1].",
			Citations:     []domain.Citation{{ID: 1, Source: "user", ChunkID: "c1", ChunkPosition: 0}},
			Timings:       domain.Timings{domain.StageEmbedding: 10.4},
			TokenEstimate: 7,
		},
		QueryInFlight: true,
	}
	assert.Equal(t, Render(st), Render(st))
}

func TestFormatIngestStatus(t *testing.T) {
	s := FormatIngestStatus(&domain.IngestResult{ChunksInserted: 3, TokenEstimate: 120})
	assert.Contains(t, s, "3")
	assert.Contains(t, s, "120")
	assert.Equal(t, "✓ Ingested 3 chunks (120 tokens)", s)
}

func TestRender_CitationOrderPreserved(t *testing.T) {
	v := Render(State{QueryResult: &domain.QueryResult{
		Citations: []domain.Citation{
			{ID: 2, Source: "b.txt", ChunkID: "x", ChunkPosition: 5},
			{ID: 1, Source: "a.txt", ChunkID: "y", ChunkPosition: 0},
		},
	}})
	require.NotNil(t, v.Answer)
	assert.Equal(t, []string{"[2] b.txt (chunk 5)", "[1] a.txt (chunk 0)"}, v.Answer.Citations)
}

func TestRender_MissingTimingsRenderEmpty(t *testing.T) {
	v := Render(State{QueryResult: &domain.QueryResult{Timings: domain.Timings{}}})
	require.NotNil(t, v.Answer)
	require.Len(t, v.Answer.Metrics, 5)
	for _, m := range v.Answer.Metrics[:4] {
		assert.Empty(t, m.Value, m.Label)
		assert.NotContains(t, m.Value, "0")
	}

	v = Render(State{QueryResult: &domain.QueryResult{}})
	require.NotNil(t, v.Answer)
	assert.Empty(t, v.Answer.Metrics[0].Value)
}

func TestRender_Metrics(t *testing.T) {
	v := Render(State{QueryResult: &domain.QueryResult{
		Timings: domain.Timings{
			domain.StageEmbedding:  12.4,
			domain.StageRetrieval:  0,
			domain.StageGeneration: 1503.6,
		},
		TokenEstimate: 88,
	}})
	assert.Equal(t, []Metric{
		{Label: "Embedding", Value: "12ms"},
		{Label: "Retrieval", Value: "0ms"},
		{Label: "Rerank", Value: ""},
		{Label: "Generation", Value: "1504ms"},
		{Label: "Tokens", Value: "88"},
	}, v.Answer.Metrics)
}

func TestRender_BusyAndIdle(t *testing.T) {
	v := Render(State{})
	assert.Nil(t, v.Answer)
	assert.Equal(t, LabelIngest, v.IngestLabel)
	assert.Equal(t, LabelQuery, v.QueryLabel)
	assert.False(t, v.IngestBusy)

	v = Render(State{IngestInFlight: true, Err: "boom"})
	assert.True(t, v.IngestBusy)
	assert.Equal(t, LabelIngesting, v.IngestLabel)
	assert.Equal(t, "boom", v.Error)
}
