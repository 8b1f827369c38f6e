package types

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		kind  error
		cause error
		text  string
	}{
		{
			name:  "connection",
			err:   &ConnectionError{Name: "db", Version: 4, Err: ErrVersionDowngrade},
			kind:  ErrConnection,
			cause: ErrVersionDowngrade,
			text:  `open "db" at version 4: requested version is lower than the stored version`,
		},
		{
			name:  "write with key",
			err:   &WriteError{Collection: "user", Key: 3, Err: ErrKeyExists},
			kind:  ErrWrite,
			cause: ErrKeyExists,
			text:  "write user/3: key already exists",
		},
		{
			name:  "read without key",
			err:   &ReadError{Collection: "user", Err: context.DeadlineExceeded},
			kind:  ErrRead,
			cause: context.DeadlineExceeded,
			text:  "read user: context deadline exceeded",
		},
		{
			name:  "delete",
			err:   &DeleteError{Collection: "pets", Key: 1, Err: ErrCollectionNotFound},
			kind:  ErrDelete,
			cause: ErrCollectionNotFound,
			text:  "delete pets/1: collection not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.ErrorIs(t, tt.err, tt.cause)
			assert.EqualError(t, tt.err, tt.text)
		})
	}
}

func TestNotInitializedError(t *testing.T) {
	err := error(&NotInitializedError{Op: "scan", State: StateClosed})
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.False(t, errors.Is(err, ErrRead))
	assert.EqualError(t, err, "scan: store handle is closed, call Open first")
}
