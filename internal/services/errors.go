package services

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyInput is returned for a question that is blank after trimming.
var ErrEmptyInput = errors.New("no question provided")

// UpstreamError wraps a failure from the embedding, index or chat provider.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}

// retryable reports whether another attempt could succeed. Errors that know
// their own status (HTTP 4xx, auth) opt out through Retryable.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}
