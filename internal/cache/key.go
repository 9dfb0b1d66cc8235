package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// keySeparator joins the components of a chunk key. It keeps the same
// chunk text at a different position, or in a different file, from
// hashing to the same key.
const keySeparator = "::"

// Key is a lowercase hex SHA-256 digest identifying a cache entry.
type Key string

// FileKey returns the whole-file key: the digest of the content alone.
func FileKey(content string) Key {
	return digest(content)
}

// ChunkKey returns the key of a single chunk. It covers the file path,
// the chunk ordinal and the chunk text.
func ChunkKey(filePath string, ordinal int, content string) Key {
	var b strings.Builder
	b.Grow(len(filePath) + len(content) + 2*len(keySeparator) + 4)
	b.WriteString(filePath)
	b.WriteString(keySeparator)
	b.WriteString(strconv.Itoa(ordinal))
	b.WriteString(keySeparator)
	b.WriteString(content)
	return digest(b.String())
}

// ParseKey validates s as a digest and normalises it to lowercase.
func ParseKey(s string) (Key, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != sha256.Size*2 {
		return "", fmt.Errorf("invalid cache key %q: want %d hex characters", s, sha256.Size*2)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("invalid cache key %q: %w", s, err)
	}
	return Key(s), nil
}

// String returns the key as a plain string.
func (k Key) String() string { return string(k) }

// Short returns a prefix suitable for log lines.
func (k Key) Short() string {
	if len(k) <= 16 {
		return string(k)
	}
	return string(k[:16])
}

// Equal reports whether two keys are the same digest, ignoring case.
func (k Key) Equal(other Key) bool {
	return strings.EqualFold(string(k), string(other))
}

func digest(s string) Key {
	h := sha256.Sum256([]byte(s))
	return Key(hex.EncodeToString(h[:]))
}
