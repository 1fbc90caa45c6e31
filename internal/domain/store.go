package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// AnalysisStore persists completed recommendations keyed by set and time.
type AnalysisStore interface {
	Insert(ctx context.Context, rec Recommendation) error
	GetByID(ctx context.Context, analysisID string) (Recommendation, error)
	LatestBySet(ctx context.Context, setID string) (Recommendation, error)
	ListBySet(ctx context.Context, setID string, opts ListOpts) ([]Recommendation, error)
	ListRecent(ctx context.Context, opts ListOpts) ([]Recommendation, error)
	ListBefore(ctx context.Context, before time.Time) ([]Recommendation, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
