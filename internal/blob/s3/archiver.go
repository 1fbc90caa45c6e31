package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

const jsonlContentType = "application/x-ndjson"

// AnalysisArchiveStore is the part of the analysis store the archiver needs.
type AnalysisArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Recommendation, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ArchiveImpl implements domain.Archiver. Old analyses are written as JSONL
// to archive/analyses/YYYY-MM.jsonl, one file per month of their timestamp,
// appending to any file already there. Rows are deleted from the store only
// after every upload succeeded.
type ArchiveImpl struct {
	writer domain.ObjectWriter
	reader domain.ObjectReader
	store  AnalysisArchiveStore
}

// NewArchiver creates an ArchiveImpl.
func NewArchiver(writer domain.ObjectWriter, reader domain.ObjectReader, store AnalysisArchiveStore) *ArchiveImpl {
	return &ArchiveImpl{writer: writer, reader: reader, store: store}
}

// ArchiveAnalyses moves analyses created before the cutoff to object storage
// and returns how many were archived.
func (a *ArchiveImpl) ArchiveAnalyses(ctx context.Context, before time.Time) (int64, error) {
	recs, err := a.store.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive analyses query: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	byMonth := make(map[string][]domain.Recommendation)
	for _, r := range recs {
		m := r.Timestamp.UTC().Format("2006-01")
		byMonth[m] = append(byMonth[m], r)
	}
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	for _, m := range months {
		if err := a.appendMonth(ctx, archivePath("analyses", m), byMonth[m]); err != nil {
			return 0, err
		}
	}

	if _, err := a.store.DeleteBefore(ctx, before); err != nil {
		return int64(len(recs)), fmt.Errorf("s3blob: archive analyses delete: %w", err)
	}
	return int64(len(recs)), nil
}

func (a *ArchiveImpl) appendMonth(ctx context.Context, path string, recs []domain.Recommendation) error {
	existing, err := a.reader.Fetch(ctx, path)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("s3blob: read existing archive %s: %w", path, err)
	}

	lines, err := marshalJSONL(recs)
	if err != nil {
		return fmt.Errorf("s3blob: archive analyses marshal: %w", err)
	}

	data := make([]byte, 0, len(existing)+len(lines))
	data = append(data, existing...)
	data = append(data, lines...)
	if err := a.writer.Store(ctx, path, data, jsonlContentType); err != nil {
		return fmt.Errorf("s3blob: archive analyses upload %s: %w", path, err)
	}
	return nil
}

// archivePath builds the key of a monthly archive file, e.g.
// archive/analyses/2026-01.jsonl.
func archivePath(kind, month string) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, month)
}

// marshalJSONL encodes records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
