package domain

import (
	"context"
	"time"
)

// ObjectReader fetches whole objects from cold storage. A missing key yields
// ErrNotFound.
type ObjectReader interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// ObjectWriter stores whole objects, replacing any existing object at key.
type ObjectWriter interface {
	Store(ctx context.Context, key string, data []byte, contentType string) error
}

// Archiver moves old analyses from the database to cold storage.
type Archiver interface {
	ArchiveAnalyses(ctx context.Context, before time.Time) (int64, error)
}
