package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"minirag/internal/domain"
)

const (
	ingestPath = "/api/ingest"
	queryPath  = "/api/query"
)

// Client talks to the knowledge base over its JSON API. It holds no
// per-request state and may be shared between goroutines.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// Config configures the API client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// NewClient creates a client using the provided configuration.
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: t}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  hc,
		logger:  logger,
	}
}

// BaseURL returns the normalized base address.
func (c *Client) BaseURL() string { return c.baseURL }

// SubmitIngest sends text to be chunked and stored.
func (c *Client) SubmitIngest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	var out domain.IngestResult
	if err := c.post(ctx, OpIngest, ingestPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitQuery asks a question against the stored text.
func (c *Client) SubmitQuery(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	var out domain.QueryResult
	if err := c.post(ctx, OpQuery, queryPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type errorBody struct {
	Detail *string `json:"detail"`
}

func (c *Client) post(ctx context.Context, op, endpoint string, payload, result any) error {
	url := c.baseURL + endpoint
	requestID := uuid.NewString()

	data, err := json.Marshal(payload)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	fields := logrus.Fields{
		"op":           op,
		"url":          url,
		"request_id":   requestID,
		"payload_size": len(data),
	}
	c.logger.WithFields(fields).Debug("Sending request")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithFields(fields).WithError(err).Warn("Request failed")
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.WithFields(fields).WithError(err).Warn("Failed to read response")
		return &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	fields["status_code"] = resp.StatusCode
	fields["response_size"] = len(body)
	fields["duration_ms"] = time.Since(start).Milliseconds()
	c.logger.WithFields(fields).Debug("Response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fallbackMessage(op)
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Detail != nil && *eb.Detail != "" {
			msg = *eb.Detail
		}
		c.logger.WithFields(fields).WithField("detail", msg).Warn("Backend rejected request")
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to decode %s response: %w", op, err)}
	}
	return nil
}
