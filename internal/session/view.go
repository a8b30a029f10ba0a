package session

import (
	"fmt"
	"strconv"

	"minirag/internal/domain"
)

// Button labels.
const (
	LabelIngest    = "Ingest Text"
	LabelIngesting = "Ingesting..."
	LabelQuery     = "Search"
	LabelQuerying  = "Searching..."
)

// View is everything the presentation layer needs to draw one frame.
type View struct {
	IngestBusy  bool
	QueryBusy   bool
	IngestLabel string
	QueryLabel  string
	Status      string
	Error       string
	// Answer is nil until a query has succeeded.
	Answer      *AnswerView
}

// AnswerView is the answer panel for a successful query.
type AnswerView struct {
	Text      string
	Citations []string
	Metrics   []Metric
}

// Metric is one cell of the metrics grid. Value is empty when the backend
// did not report the stage.
type Metric struct {
	Label string
	Value string
}

var metricStages = []struct {
	label string
	key   string
}{
	{"Embedding", domain.StageEmbedding},
	{"Retrieval", domain.StageRetrieval},
	{"Rerank", domain.StageRerank},
	{"Generation", domain.StageGeneration},
}

// FormatIngestStatus is the status line shown after a successful ingest.
func FormatIngestStatus(r *domain.IngestResult) string {
	return fmt.Sprintf("✓ Ingested %d chunks (%d tokens)", r.ChunksInserted, r.TokenEstimate)
}

// FormatCitation renders one citation list entry.
func FormatCitation(c domain.Citation) string {
	return fmt.Sprintf("[%d] %s (chunk %d)", c.ID, c.Source, c.ChunkPosition)
}

// Render maps state to a view. It has no side effects.
func Render(s State) View {
	v := View{
		IngestBusy:  s.IngestInFlight,
		QueryBusy:   s.QueryInFlight,
		IngestLabel: LabelIngest,
		QueryLabel:  LabelQuery,
		Status:      s.IngestStatus,
		Error:       s.Err,
	}
	if s.IngestInFlight {
		v.IngestLabel = LabelIngesting
	}
	if s.QueryInFlight {
		v.QueryLabel = LabelQuerying
	}
	if s.QueryResult != nil {
		v.Answer = renderAnswer(s.QueryResult)
	}
	return v
}

func renderAnswer(r *domain.QueryResult) *AnswerView {
	a := &AnswerView{Text: r.Answer}
	if len(r.Citations) > 0 {
		a.Citations = make([]string, 0, len(r.Citations))
		for _, c := range r.Citations {
			a.Citations = append(a.Citations, FormatCitation(c))
		}
	}
	a.Metrics = make([]Metric, 0, len(metricStages)+1)
	for _, st := range metricStages {
		m := Metric{Label: st.label}
		if ms, ok := r.Timings.Stage(st.key); ok {
			m.Value = fmt.Sprintf("%.0fms", ms)
		}
		a.Metrics = append(a.Metrics, m)
	}
	a.Metrics = append(a.Metrics, Metric{Label: "Tokens", Value: strconv.Itoa(r.TokenEstimate)})
	return a
}
