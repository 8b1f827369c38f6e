package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKey(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantKey Key
		wantOK  bool
		wantErr bool
	}{
		{name: "missing field", record: Record{"name": "Ana"}},
		{name: "nil value", record: Record{"id": nil}},
		{name: "zero is no key", record: Record{"id": 0}},
		{name: "int", record: Record{"id": 7}, wantKey: 7, wantOK: true},
		{name: "int64", record: Record{"id": int64(9)}, wantKey: 9, wantOK: true},
		{name: "Key", record: Record{"id": Key(3)}, wantKey: 3, wantOK: true},
		{name: "json float", record: Record{"id": float64(12)}, wantKey: 12, wantOK: true},
		{name: "negative", record: Record{"id": -4}, wantKey: -4, wantOK: true},
		{name: "fractional float", record: Record{"id": 1.5}, wantErr: true},
		{name: "string", record: Record{"id": "12"}, wantErr: true},
		{name: "huge uint64", record: Record{"id": uint64(1 << 63)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok, err := tt.record.Key("id")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestRecordCopies(t *testing.T) {
	orig := Record{"id": 1, "name": "Ana"}

	without := orig.Without("id")
	assert.NotContains(t, without, "id")
	assert.Contains(t, orig, "id")

	var nilRecord Record
	assert.NotNil(t, nilRecord.Clone())
}
