// Package codec converts records to and from their stored JSON form.
// The primary key is kept out of the stored value; engines hold it in their
// own key column and put it back on decode.
package codec

import (
	"bytes"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/mesh-intelligence/recordstore/pkg/types"
)

// Encode returns the JSON form of rec without the field at keyPath.
func Encode(rec types.Record, keyPath string) ([]byte, error) {
	data, err := json.Marshal(rec.Without(keyPath))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidRecord, err)
	}
	return data, nil
}

// Decode parses data and stores key at keyPath.
func Decode(data []byte, keyPath string, key types.Key) (types.Record, error) {
	rec, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decoding record %d: %w", key, err)
	}
	if rec == nil {
		rec = types.Record{}
	}
	rec[keyPath] = key
	return rec, nil
}

// Unmarshal parses one JSON object. Integral numbers that fit in int64
// decode as int64, every other number as float64, at any depth.
// A JSON null yields a nil record.
func Unmarshal(data []byte) (types.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rec types.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after object")
	}
	for k, v := range rec {
		rec[k] = normalize(v)
	}
	return rec, nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return n
		}
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return string(x)
		}
		return f
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	default:
		return v
	}
}

// PrepareWrite extracts the record's key for def and encodes its body.
// ok is false when the record carries no key; that is only allowed for
// auto-increment collections.
func PrepareWrite(def types.CollectionDef, rec types.Record) (key types.Key, ok bool, data []byte, err error) {
	if rec == nil {
		return types.NoKey, false, nil, fmt.Errorf("%w: nil record", types.ErrInvalidRecord)
	}
	key, ok, err = rec.Key(def.KeyPath)
	if err != nil {
		return types.NoKey, false, nil, err
	}
	if !ok && !def.AutoIncrement {
		return types.NoKey, false, nil, fmt.Errorf("%w: %s requires %q", types.ErrInvalidKey, def.Name, def.KeyPath)
	}
	data, err = Encode(rec, def.KeyPath)
	if err != nil {
		return types.NoKey, false, nil, err
	}
	return key, ok, data, nil
}
