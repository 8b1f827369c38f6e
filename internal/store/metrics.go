package store

import (
	"context"
	"errors"
	"fmt"
)

// Outcome labels of recordstore_operations_total.
const (
	resultOK             = "ok"
	resultError          = "error"
	resultTimeout        = "timeout"
	resultNotInitialized = "not_initialized"
)

func operationsCounterName(op, result string) string {
	return fmt.Sprintf(`recordstore_operations_total{op=%q,result=%q}`, op, result)
}

func (h *Handle) count(op string, err error) {
	h.metrics.GetOrCreateCounter(operationsCounterName(op, resultOf(err))).Inc()
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, errNotInitialized):
		return resultNotInitialized
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return resultTimeout
	default:
		return resultError
	}
}
