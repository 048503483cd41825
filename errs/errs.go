// Package errs holds the error taxonomy shared by every layer of pdfrag.
// Callers wrap these sentinels with fmt.Errorf("%w: ...") and match them with errors.Is.
package errs

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers missing files, unknown documents and indices that were never built.
	ErrNotFound = errors.New("not found")
	// ErrConfig covers invalid chunking parameters and missing credentials.
	ErrConfig = errors.New("invalid configuration")
	// ErrGeneration covers upstream model, embedding and search failures.
	ErrGeneration = errors.New("generation failed")
	// ErrNotReady is returned for documents whose index is still being built or whose build failed.
	ErrNotReady = errors.New("not ready")
	// ErrTimeout is returned when a caller deadline expires during a query.
	ErrTimeout = errors.New("timed out")
	// ErrInvalid covers malformed requests.
	ErrInvalid = errors.New("invalid input")
)

// Upstream classifies an error from a model, embedding or search call.
// Deadline expiry becomes ErrTimeout, everything else ErrGeneration. The cause stays inspectable.
func Upstream(step string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrTimeout, step, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrGeneration, step, err)
}
