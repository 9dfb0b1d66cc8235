package cache

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Well-known metadata fields.
const (
	MetaCost           = "cost"
	MetaTokens         = "tokens"
	MetaChunkID        = "chunk_id"
	MetaChunkLines     = "chunk_lines"
	MetaAnalysis       = "analysis"
	MetaProcessingTime = "processing_time"
)

// Metadata is the attribute map persisted next to the documentation.
//
// Values are strings, bools, decimal.Decimal, nil, or nested
// map[string]any / []any built from those. Numbers are always
// decimal.Decimal so that backends with exact-decimal number types
// round-trip them without a float in between.
type Metadata map[string]any

// Cost returns the "cost" field, or zero.
func (m Metadata) Cost() decimal.Decimal {
	if d, ok := m[MetaCost].(decimal.Decimal); ok {
		return d
	}
	return decimal.Zero
}

// Tokens returns the "tokens" field, or zero.
func (m Metadata) Tokens() int64 {
	if d, ok := m[MetaTokens].(decimal.Decimal); ok {
		return d.IntPart()
	}
	return 0
}

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case Metadata:
		return map[string]any(x.Clone())
	case map[string]any:
		return map[string]any(Metadata(x).Clone())
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Normalize converts every numeric value in m to decimal.Decimal and
// nested maps/slices to map[string]any / []any. Floats are converted
// through their shortest decimal representation, so any value that was
// written as a base-10 literal survives exactly.
func (m Metadata) Normalize() (Metadata, error) {
	if m == nil {
		return Metadata{}, nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("metadata field %q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int8:
		return decimal.NewFromInt(int64(x)), nil
	case int16:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(x)), 0), nil
	case uint8:
		return decimal.NewFromInt(int64(x)), nil
	case uint16:
		return decimal.NewFromInt(int64(x)), nil
	case uint32:
		return decimal.NewFromInt(int64(x)), nil
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(x), 0), nil
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return nil, fmt.Errorf("non-finite number %v", x)
		}
		return decimal.NewFromFloat32(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("non-finite number %v", x)
		}
		return decimal.NewFromFloat(x), nil
	case json.Number:
		d, err := decimal.NewFromString(string(x))
		if err != nil {
			return nil, err
		}
		return d, nil
	case Metadata:
		return x.Normalize()
	case map[string]any:
		nm, err := Metadata(x).Normalize()
		if err != nil {
			return nil, err
		}
		return map[string]any(nm), nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			ne, err := normalizeValue(e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = ne
		}
		return out, nil
	case []string:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported metadata type %T", v)
	}
}
