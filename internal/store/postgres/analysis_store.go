package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// AnalysisStore implements domain.AnalysisStore. The full recommendation is
// kept as JSONB; the indexed columns exist for querying only.
type AnalysisStore struct {
	pool *pgxpool.Pool
}

// NewAnalysisStore creates an AnalysisStore backed by the given pool.
func NewAnalysisStore(pool *pgxpool.Pool) *AnalysisStore {
	return &AnalysisStore{pool: pool}
}

// Insert stores rec. Re-inserting the same analysis id overwrites it.
func (s *AnalysisStore) Insert(ctx context.Context, rec domain.Recommendation) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("postgres: marshal analysis %s: %w", rec.AnalysisID, err)
	}

	const query = `
		INSERT INTO analyses (
			analysis_id, set_id, set_name, product_name,
			recommendation, category, strategy,
			ev_open, sealed_price, confidence, created_at, data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (analysis_id) DO UPDATE SET
			recommendation = EXCLUDED.recommendation,
			category       = EXCLUDED.category,
			strategy       = EXCLUDED.strategy,
			ev_open        = EXCLUDED.ev_open,
			sealed_price   = EXCLUDED.sealed_price,
			confidence     = EXCLUDED.confidence,
			data           = EXCLUDED.data`

	_, err = s.pool.Exec(ctx, query,
		rec.AnalysisID, rec.SetID, rec.SetName, rec.ProductName,
		rec.Label, string(rec.Category), rec.Strategy,
		rec.Pricing.ExpectedValueOpen, rec.Pricing.SealedBoxCost, rec.ConfidenceScore,
		rec.Timestamp, data,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert analysis %s: %w", rec.AnalysisID, err)
	}
	return nil
}

func scanAnalysisRows(rows pgx.Rows) ([]domain.Recommendation, error) {
	recs := []domain.Recommendation{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var rec domain.Recommendation
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *AnalysisStore) getOne(ctx context.Context, query string, arg any) (domain.Recommendation, error) {
	var data []byte
	if err := s.pool.QueryRow(ctx, query, arg).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Recommendation{}, domain.ErrNotFound
		}
		return domain.Recommendation{}, err
	}
	var rec domain.Recommendation
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Recommendation{}, err
	}
	return rec, nil
}

// GetByID returns the analysis with the given id, or domain.ErrNotFound.
func (s *AnalysisStore) GetByID(ctx context.Context, analysisID string) (domain.Recommendation, error) {
	rec, err := s.getOne(ctx, `SELECT data FROM analyses WHERE analysis_id = $1`, analysisID)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("postgres: get analysis %s: %w", analysisID, err)
	}
	return rec, nil
}

// LatestBySet returns the most recent analysis of a set, or
// domain.ErrNotFound.
func (s *AnalysisStore) LatestBySet(ctx context.Context, setID string) (domain.Recommendation, error) {
	rec, err := s.getOne(ctx,
		`SELECT data FROM analyses WHERE set_id = $1 ORDER BY created_at DESC LIMIT 1`, setID)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("postgres: latest analysis for %s: %w", setID, err)
	}
	return rec, nil
}

// listQuery appends the ListOpts filters, ordering and paging to a query
// whose WHERE clause already uses len(args) placeholders.
func listQuery(query string, args []any, opts domain.ListOpts) (string, []any) {
	argIdx := len(args) + 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}
	return query, args
}

func (s *AnalysisStore) list(ctx context.Context, query string, args []any) ([]domain.Recommendation, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnalysisRows(rows)
}

// ListBySet returns analyses of a set, newest first.
func (s *AnalysisStore) ListBySet(ctx context.Context, setID string, opts domain.ListOpts) ([]domain.Recommendation, error) {
	query, args := listQuery(`SELECT data FROM analyses WHERE set_id = $1`, []any{setID}, opts)
	recs, err := s.list(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("postgres: list analyses for %s: %w", setID, err)
	}
	return recs, nil
}

// ListRecent returns analyses across all sets, newest first.
func (s *AnalysisStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.Recommendation, error) {
	query, args := listQuery(`SELECT data FROM analyses WHERE TRUE`, nil, opts)
	recs, err := s.list(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent analyses: %w", err)
	}
	return recs, nil
}

// ListBefore returns every analysis created before the cutoff, oldest first.
func (s *AnalysisStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Recommendation, error) {
	recs, err := s.list(ctx,
		`SELECT data FROM analyses WHERE created_at < $1 ORDER BY created_at ASC`, []any{before})
	if err != nil {
		return nil, fmt.Errorf("postgres: list analyses before %s: %w", before.Format(time.RFC3339), err)
	}
	return recs, nil
}

// DeleteBefore removes analyses created before the cutoff and returns how
// many were deleted.
func (s *AnalysisStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM analyses WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete analyses before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.AnalysisStore = (*AnalysisStore)(nil)
