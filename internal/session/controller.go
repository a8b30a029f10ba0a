// Package session holds the interaction state of the client and the
// transitions that sequence ingest and query calls.
//
// A Controller is owned by a single goroutine. Remote calls are the only
// suspension points: Start* runs on the owner, Attempt.Run may run anywhere,
// and Finish* must be called back on the owner.
package session

import (
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"minirag/internal/api"
	"minirag/internal/domain"
)

// State is the observable interaction state. An empty string means absent
// for IngestStatus and Err; a nil QueryResult means no answer.
type State struct {
	InputText      string
	QueryText      string
	IngestStatus   string
	QueryResult    *domain.QueryResult
	IngestInFlight bool
	QueryInFlight  bool
	Err            string
}

// Controller gates and sequences the ingest and query operations.
type Controller struct {
	kb     domain.KnowledgeBase
	source string
	logger *logrus.Logger

	state State

	// current attempt ids; outcomes tagged with any other id are stale
	ingestAttempt uint64
	queryAttempt  uint64
	lastID        uint64
}

// Options configures a Controller.
type Options struct {
	// Source labels ingested text. Defaults to domain.DefaultSource.
	Source string
	Logger *logrus.Logger
}

// New creates a controller issuing calls against kb.
func New(kb domain.KnowledgeBase, opts Options) *Controller {
	if opts.Source == "" {
		opts.Source = domain.DefaultSource
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
		opts.Logger.SetOutput(io.Discard)
	}
	return &Controller{kb: kb, source: opts.Source, logger: opts.Logger}
}

// State returns a copy of the current state.
func (c *Controller) State() State { return c.state }

// View renders the current state.
func (c *Controller) View() View { return Render(c.state) }

// SetInputText replaces the text to ingest.
func (c *Controller) SetInputText(s string) { c.state.InputText = s }

// SetQueryText replaces the question text.
func (c *Controller) SetQueryText(s string) { c.state.QueryText = s }

// Reset discards all results, errors and input. Attempts still in flight
// are invalidated and their outcomes will be dropped.
func (c *Controller) Reset() {
	c.state = State{}
	c.ingestAttempt = 0
	c.queryAttempt = 0
	c.logger.Debug("Session reset")
}

func (c *Controller) nextAttempt() uint64 {
	c.lastID++
	return c.lastID
}

// IngestAttempt is an ingest call that passed validation.
type IngestAttempt struct {
	ID      uint64
	Request domain.IngestRequest
	kb      domain.KnowledgeBase
}

// IngestOutcome is the settled result of an IngestAttempt.
type IngestOutcome struct {
	ID     uint64
	Result *domain.IngestResult
	Err    error
}

// Run performs the remote call. It does not touch controller state.
func (a *IngestAttempt) Run(ctx context.Context) IngestOutcome {
	res, err := a.kb.SubmitIngest(ctx, a.Request)
	return IngestOutcome{ID: a.ID, Result: res, Err: err}
}

// StartIngest validates the input text and moves ingest in flight.
func (c *Controller) StartIngest() (*IngestAttempt, error) {
	if c.state.IngestInFlight {
		return nil, ErrInFlight
	}
	if strings.TrimSpace(c.state.InputText) == "" {
		c.state.Err = MsgEmptyIngest
		return nil, &ValidationError{Field: "text", Message: MsgEmptyIngest}
	}
	c.state.Err = ""
	c.state.IngestStatus = ""
	c.state.IngestInFlight = true
	c.ingestAttempt = c.nextAttempt()

	c.logger.WithFields(logrus.Fields{
		"op":      api.OpIngest,
		"attempt": c.ingestAttempt,
		"chars":   len(c.state.InputText),
	}).Debug("Ingest in flight")

	return &IngestAttempt{
		ID:      c.ingestAttempt,
		Request: domain.IngestRequest{Text: c.state.InputText, Source: c.source},
		kb:      c.kb,
	}, nil
}

// FinishIngest applies an outcome. It reports false when the outcome
// belongs to a superseded attempt and was discarded.
func (c *Controller) FinishIngest(o IngestOutcome) bool {
	if !c.state.IngestInFlight || o.ID != c.ingestAttempt {
		c.logger.WithFields(logrus.Fields{"op": api.OpIngest, "attempt": o.ID}).Debug("Discarding stale outcome")
		return false
	}
	c.state.IngestInFlight = false
	if o.Err == nil && o.Result == nil {
		o.Err = &api.TransportError{Op: api.OpIngest}
	}
	if o.Err != nil {
		c.state.Err = errorMessage(o.Err, "Ingest failed")
		c.logger.WithFields(logrus.Fields{"op": api.OpIngest, "attempt": o.ID}).WithError(o.Err).Info("Ingest failed")
		return true
	}
	c.state.IngestStatus = FormatIngestStatus(o.Result)
	c.state.Err = ""
	c.logger.WithFields(logrus.Fields{
		"op":              api.OpIngest,
		"attempt":         o.ID,
		"chunks_inserted": o.Result.ChunksInserted,
		"token_estimate":  o.Result.TokenEstimate,
	}).Info("Ingest succeeded")
	return true
}

// SubmitIngest runs a whole ingest attempt synchronously.
func (c *Controller) SubmitIngest(ctx context.Context) error {
	a, err := c.StartIngest()
	if err != nil {
		return err
	}
	o := a.Run(ctx)
	c.FinishIngest(o)
	return o.Err
}

// QueryAttempt is a query call that passed validation.
type QueryAttempt struct {
	ID      uint64
	Request domain.QueryRequest
	kb      domain.KnowledgeBase
}

// QueryOutcome is the settled result of a QueryAttempt.
type QueryOutcome struct {
	ID     uint64
	Result *domain.QueryResult
	Err    error
}

// Run performs the remote call. It does not touch controller state.
func (a *QueryAttempt) Run(ctx context.Context) QueryOutcome {
	res, err := a.kb.SubmitQuery(ctx, a.Request)
	return QueryOutcome{ID: a.ID, Result: res, Err: err}
}

// StartQuery validates the question and moves query in flight.
func (c *Controller) StartQuery() (*QueryAttempt, error) {
	if c.state.QueryInFlight {
		return nil, ErrInFlight
	}
	if strings.TrimSpace(c.state.QueryText) == "" {
		c.state.Err = MsgEmptyQuery
		return nil, &ValidationError{Field: "query", Message: MsgEmptyQuery}
	}
	c.state.Err = ""
	c.state.QueryResult = nil
	c.state.QueryInFlight = true
	c.queryAttempt = c.nextAttempt()

	c.logger.WithFields(logrus.Fields{
		"op":      api.OpQuery,
		"attempt": c.queryAttempt,
	}).Debug("Query in flight")

	return &QueryAttempt{
		ID:      c.queryAttempt,
		Request: domain.QueryRequest{Query: c.state.QueryText},
		kb:      c.kb,
	}, nil
}

// FinishQuery applies an outcome. It reports false when the outcome
// belongs to a superseded attempt and was discarded.
func (c *Controller) FinishQuery(o QueryOutcome) bool {
	if !c.state.QueryInFlight || o.ID != c.queryAttempt {
		c.logger.WithFields(logrus.Fields{"op": api.OpQuery, "attempt": o.ID}).Debug("Discarding stale outcome")
		return false
	}
	c.state.QueryInFlight = false
	if o.Err == nil && o.Result == nil {
		o.Err = &api.TransportError{Op: api.OpQuery}
	}
	if o.Err != nil {
		c.state.Err = errorMessage(o.Err, "Query failed")
		c.logger.WithFields(logrus.Fields{"op": api.OpQuery, "attempt": o.ID}).WithError(o.Err).Info("Query failed")
		return true
	}
	c.state.QueryResult = o.Result
	c.state.Err = ""
	c.logger.WithFields(logrus.Fields{
		"op":        api.OpQuery,
		"attempt":   o.ID,
		"citations": len(o.Result.Citations),
	}).Info("Query succeeded")
	return true
}

// SubmitQuery runs a whole query attempt synchronously.
func (c *Controller) SubmitQuery(ctx context.Context) error {
	a, err := c.StartQuery()
	if err != nil {
		return err
	}
	o := a.Run(ctx)
	c.FinishQuery(o)
	return o.Err
}
