package types

import (
	"fmt"
	"math"
)

// Key is the primary key of a record. Zero means the record carries no key.
type Key int64

// NoKey is the zero Key.
const NoKey Key = 0

// Record is a structured value stored in a collection. The primary key lives
// in-line at the collection's key path.
type Record map[string]any

// Key extracts the primary key stored at keyPath.
// A missing, nil, or zero value reports ok=false. Values that are not
// integral numbers return ErrInvalidKey.
func (r Record) Key(keyPath string) (key Key, ok bool, err error) {
	v, present := r[keyPath]
	if !present || v == nil {
		return NoKey, false, nil
	}
	key, err = toKey(v)
	if err != nil {
		return NoKey, false, fmt.Errorf("%w: field %q: %v", ErrInvalidKey, keyPath, err)
	}
	return key, key != NoKey, nil
}

// Without returns a shallow copy of r with field removed.
func (r Record) Without(field string) Record {
	out := r.Clone()
	delete(out, field)
	return out
}

// Clone returns a shallow copy of r. A nil record clones to an empty one.
func (r Record) Clone() Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

func toKey(v any) (Key, error) {
	switch n := v.(type) {
	case Key:
		return n, nil
	case int:
		return Key(n), nil
	case int8:
		return Key(n), nil
	case int16:
		return Key(n), nil
	case int32:
		return Key(n), nil
	case int64:
		return Key(n), nil
	case uint8:
		return Key(n), nil
	case uint16:
		return Key(n), nil
	case uint32:
		return Key(n), nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return NoKey, fmt.Errorf("%d overflows int64", n)
		}
		return Key(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return NoKey, fmt.Errorf("%d overflows int64", n)
		}
		return Key(n), nil
	case float32:
		return floatKey(float64(n))
	case float64:
		return floatKey(n)
	default:
		return NoKey, fmt.Errorf("unsupported key type %T", v)
	}
}

// floatKey accepts JSON-decoded numbers that hold an integral value.
func floatKey(f float64) (Key, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return NoKey, fmt.Errorf("%v is not an integer", f)
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return NoKey, fmt.Errorf("%v overflows int64", f)
	}
	return Key(f), nil
}
