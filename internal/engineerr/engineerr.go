// Package engineerr implements the error taxonomy of §7: a ValidationError
// distinguishes category-1 (bad-input) failures, which the request facade
// must surface as `{error: "Validation error: ..."}`, from every other
// category (I/O, invariant violation), surfaced as a plain `{error: ...}`.
package engineerr

import "fmt"

// ValidationError wraps a request-validation failure (§7 category 1): bad
// input shape, unsupported extension, missing file, malformed id, or
// out-of-range page/limit. Never retried by the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Invariant wraps an invariant-violation failure (§7 category 5): the
// catalog refers to a missing position table, or the position table's size
// disagrees with total_records. The caller should purge the file-id and
// require re-indexing.
type Invariant struct {
	Message string
}

func (e *Invariant) Error() string { return e.Message }

func Invariantf(format string, args ...interface{}) *Invariant {
	return &Invariant{Message: fmt.Sprintf(format, args...)}
}

// Cancelled marks a job that ended because the caller requested
// cancellation (§7 category 4): terminal, no error payload surfaced to the
// request API, but distinguishable internally from a real failure.
type Cancelled struct{}

func (Cancelled) Error() string { return "cancelled" }
