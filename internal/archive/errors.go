package archive

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why an archive operation failed. Callers decide per kind
// whether a failure is fatal or can be absorbed.
type Kind int

const (
	KindConnectionFailed Kind = iota + 1
	KindResolutionFailed
	KindQueryFailed
)

func (k Kind) String() string {
	switch k {
	case KindConnectionFailed:
		return "connection failed"
	case KindResolutionFailed:
		return "resolution failed"
	case KindQueryFailed:
		return "query failed"
	default:
		return fmt.Sprintf("unknown kind %d", int(k))
	}
}

// Error is returned by every archive operation that touches the database.
// Unknown numbers and hashes are not errors; they are simply absent from
// the result.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Cause() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether err, or any error it wraps, is an *Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var archiveErr *Error
	if !errors.As(err, &archiveErr) {
		return false
	}

	return archiveErr.Kind == kind
}
