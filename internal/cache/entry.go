package cache

import (
	"strconv"
	"time"
)

// Entry is one persisted documentation record.
type Entry struct {
	Key           Key       `json:"file_hash"`
	FilePath      string    `json:"file_path"`
	Documentation string    `json:"documentation"`
	Metadata      Metadata  `json:"metadata"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	// Source is the verbatim input that was hashed to produce Key. It is
	// nil unless source retention was requested when the entry was stored.
	Source *string `json:"source_code,omitempty"`
}

// Expired reports whether the entry's TTL has passed at now.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// HasSource reports whether the entry carries a source copy.
func (e *Entry) HasSource() bool {
	return e.Source != nil
}

// Clone returns a copy of e that shares no mutable state with it.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	out := *e
	out.Metadata = e.Metadata.Clone()
	if e.Source != nil {
		s := *e.Source
		out.Source = &s
	}
	return &out
}

// ChunkPath returns the path label used for a chunk entry, "path#chunkN".
func ChunkPath(filePath string, ordinal int) string {
	return filePath + "#chunk" + strconv.Itoa(ordinal)
}
