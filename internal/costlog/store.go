package costlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ziadkadry99/chunkdoc/internal/db"
)

// Store reads and writes the generation_log table.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Record inserts a ledger row. If rec.ID is empty a UUID is generated and
// if rec.CreatedAt is zero the current time is used.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if rec.DurationMS == 0 {
		rec.DurationMS = rec.Duration.Milliseconds()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_log (
			id, request_id, file_path, cache_key, cached, chunked,
			total_chunks, cache_hits, failed_chunks, cost, tokens,
			duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.RequestID,
		rec.FilePath,
		rec.CacheKey,
		boolInt(rec.Cached),
		boolInt(rec.Chunked),
		rec.TotalChunks,
		rec.CacheHits,
		rec.FailedChunks,
		rec.Cost.String(),
		rec.Tokens,
		rec.DurationMS,
		rec.CreatedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("inserting generation record: %w", err)
	}
	return nil
}

// Filter controls which rows Query returns.
type Filter struct {
	FilePath  string
	RequestID string
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

func (f Filter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.FilePath != "" {
		clauses = append(clauses, "file_path = ?")
		args = append(args, f.FilePath)
	}
	if f.RequestID != "" {
		clauses = append(clauses, "request_id = ?")
		args = append(args, f.RequestID)
	}
	if f.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.Since.UTC().Format(time.DateTime))
	}
	if f.Until != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.Until.UTC().Format(time.DateTime))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

const selectColumns = "SELECT id, request_id, file_path, cache_key, cached, chunked, total_chunks, cache_hits, failed_chunks, cost, tokens, duration_ms, created_at FROM generation_log"

// Query returns ledger rows matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter Filter) ([]Record, error) {
	where, args := filter.where()
	query := selectColumns + where + " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying generation log: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Summary totals every row created at or after since. Costs are added as
// decimals so the total matches the sum of the recorded values exactly.
func (s *Store) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cached, chunked, total_chunks, cache_hits, failed_chunks, cost, tokens
		FROM generation_log WHERE created_at >= ?`,
		since.UTC().Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("summarising generation log: %w", err)
	}
	defer rows.Close()

	sum := &Summary{Since: since.UTC(), TotalCost: decimal.Zero}
	for rows.Next() {
		var (
			cached, chunked      int
			chunks, hits, failed int
			cost                 string
			tokens               int64
		)
		if err := rows.Scan(&cached, &chunked, &chunks, &hits, &failed, &cost, &tokens); err != nil {
			return nil, fmt.Errorf("scanning generation record: %w", err)
		}
		d, err := decimal.NewFromString(cost)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded cost %q: %w", cost, err)
		}
		sum.Requests++
		if cached != 0 {
			sum.CachedRequests++
		}
		if chunked != 0 {
			sum.ChunkedRequests++
		}
		sum.TotalChunks += chunks
		sum.ChunkCacheHits += hits
		sum.FailedChunks += failed
		sum.TotalCost = sum.TotalCost.Add(d)
		sum.TotalTokens += tokens
	}
	return sum, rows.Err()
}

// DeleteBefore removes all rows older than before and returns how many
// were deleted.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM generation_log WHERE created_at < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old generation records: %w", err)
	}
	return res.RowsAffected()
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		rec             Record
		cached, chunked int
		cost, created   string
	)
	err := rows.Scan(
		&rec.ID, &rec.RequestID, &rec.FilePath, &rec.CacheKey, &cached, &chunked,
		&rec.TotalChunks, &rec.CacheHits, &rec.FailedChunks, &cost, &rec.Tokens,
		&rec.DurationMS, &created,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning generation record: %w", err)
	}
	rec.Cached = cached != 0
	rec.Chunked = chunked != 0
	rec.Duration = time.Duration(rec.DurationMS) * time.Millisecond
	if rec.Cost, err = decimal.NewFromString(cost); err != nil {
		return nil, fmt.Errorf("parsing recorded cost %q: %w", cost, err)
	}
	if t, parseErr := time.Parse(time.DateTime, created); parseErr == nil {
		rec.CreatedAt = t
	} else if t, parseErr := time.Parse(time.RFC3339, created); parseErr == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
