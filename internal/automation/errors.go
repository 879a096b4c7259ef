package automation

import (
	"errors"
	"fmt"
)

// ErrorKind is a coarse-grained categorization for automation errors.
type ErrorKind string

const (
	KindMemberResolution  ErrorKind = "member_resolution"
	KindInvocation        ErrorKind = "invocation"
	KindUnsupportedType   ErrorKind = "unsupported_type"
	KindWireAllocation    ErrorKind = "wire_allocation"
	KindServerUnavailable ErrorKind = "server_unavailable"
)

// Sentinel errors for causes that have no underlying platform error.
var (
	ErrNotSupported  = errors.New("COM automation is only available on windows")
	ErrForeignObject = errors.New("object does not belong to this runtime")
)

// Error wraps an underlying error with the operation, the member name it
// concerned and a kind.
type Error struct {
	Op     string
	Kind   ErrorKind
	Member string // Optional: the dispatch member involved
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Member != "" {
		base += fmt.Sprintf(" (member=%s)", e.Member)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind helps callers classify errors returned anywhere in the call chain.
func IsKind(err error, kind ErrorKind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}
