package api

import "fmt"

// Operation names used in errors and logs.
const (
	OpIngest = "ingest"
	OpQuery  = "query"
)

// RemoteError is returned when the backend answers with a non-2xx status.
// Message is the backend's detail, or a per-operation fallback.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string { return e.Message }

// TransportError is returned when the backend could not be reached or its
// response could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: transport failure", e.Op)
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

func fallbackMessage(op string) string {
	switch op {
	case OpIngest:
		return "Ingest failed"
	case OpQuery:
		return "Query failed"
	}
	return "Request failed"
}
