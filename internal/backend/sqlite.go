package backend

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ziadkadry99/chunkdoc/internal/cache"
	"github.com/ziadkadry99/chunkdoc/internal/db"
)

// SQLite stores cache entries in the cache_entries table.
type SQLite struct {
	db *db.DB
}

// NewSQLite creates a store over an opened database.
func NewSQLite(d *db.DB) *SQLite {
	return &SQLite{db: d}
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Get(ctx context.Context, key cache.Key) (*cache.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT cache_key, file_path, documentation, metadata, created_at, expires_at, source_code
		 FROM cache_entries WHERE cache_key = ?`, key.String())

	var (
		e         cache.Entry
		k         string
		metaJSON  string
		createdAt int64
		expiresAt int64
		source    sql.NullString
	)
	err := row.Scan(&k, &e.FilePath, &e.Documentation, &metaJSON, &createdAt, &expiresAt, &source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	meta, err := decodeMetadata(metaJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding metadata for %s: %w", cache.Key(k).Short(), err)
	}
	e.Key = cache.Key(k)
	e.Metadata = meta
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	e.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	if source.Valid {
		src := source.String
		e.Source = &src
	}
	return &e, nil
}

func (s *SQLite) Put(ctx context.Context, e *cache.Entry) error {
	metaJSON, err := encodeMetadata(e.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	var source sql.NullString
	if e.Source != nil {
		source = sql.NullString{String: *e.Source, Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (cache_key, file_path, documentation, metadata, created_at, expires_at, source_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
		   file_path = excluded.file_path,
		   documentation = excluded.documentation,
		   metadata = excluded.metadata,
		   created_at = excluded.created_at,
		   expires_at = excluded.expires_at,
		   source_code = excluded.source_code`,
		e.Key.String(), e.FilePath, e.Documentation, metaJSON,
		e.CreatedAt.Unix(), e.ExpiresAt.Unix(), source)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key cache.Key) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key = ?`, key.String()); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

func (s *SQLite) Status(ctx context.Context) (cache.StoreStatus, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&count); err != nil {
		return cache.StoreStatus{}, fmt.Errorf("counting cache entries: %w", err)
	}
	return cache.StoreStatus{Name: s.Name(), ItemCount: count, Status: "ACTIVE"}, nil
}

// PurgeExpired deletes rows whose expiry is at or before now.
func (s *SQLite) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("purging expired entries: %w", err)
	}
	return res.RowsAffected()
}

// encodeMetadata writes decimals as bare JSON number literals so they
// round-trip without passing through float64.
func encodeMetadata(m cache.Metadata) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(toJSONValue(map[string]any(m)))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func toJSONValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return json.Number(x.String())
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = toJSONValue(e)
		}
		return out
	case cache.Metadata:
		return toJSONValue(map[string]any(x))
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = toJSONValue(e)
		}
		return out
	default:
		return v
	}
}

func decodeMetadata(s string) (cache.Metadata, error) {
	if s == "" {
		return cache.Metadata{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	// Normalize turns every json.Number into a decimal.
	return cache.Metadata(raw).Normalize()
}
