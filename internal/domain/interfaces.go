package domain

import "context"

// KnowledgeBase is the remote service behind the two endpoints.
// Implementations must be safe for concurrent use.
type KnowledgeBase interface {
	SubmitIngest(ctx context.Context, req IngestRequest) (*IngestResult, error)
	SubmitQuery(ctx context.Context, req QueryRequest) (*QueryResult, error)
}
