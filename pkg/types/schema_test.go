package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchema(t *testing.T) {
	s := DefaultSchema()
	assert.Equal(t, uint64(4), s.Version)
	assert.Equal(t, []CollectionDef{{Name: "user", KeyPath: "id", AutoIncrement: true}}, s.Collections)
	assert.NoError(t, s.Validate())
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		wantErr error
	}{
		{name: "zero version", schema: Schema{}, wantErr: ErrInvalidVersion},
		{
			name:    "bad name",
			schema:  Schema{Version: 1, Collections: []CollectionDef{{Name: "1user", KeyPath: "id"}}},
			wantErr: ErrInvalidCollection,
		},
		{
			name:    "quote in name",
			schema:  Schema{Version: 1, Collections: []CollectionDef{{Name: `user"; DROP`, KeyPath: "id"}}},
			wantErr: ErrInvalidCollection,
		},
		{
			name:    "empty key path",
			schema:  Schema{Version: 1, Collections: []CollectionDef{{Name: "user"}}},
			wantErr: ErrInvalidCollection,
		},
		{
			name: "duplicate",
			schema: Schema{Version: 1, Collections: []CollectionDef{
				{Name: "user", KeyPath: "id"},
				{Name: "user", KeyPath: "id"},
			}},
			wantErr: ErrInvalidCollection,
		},
		{
			name:   "no collections",
			schema: Schema{Version: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
