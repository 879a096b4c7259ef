//go:build !windows

package automation

// Connect always fails outside windows: there is no automation server to
// reach.
func Connect(progID string, opts ...Option) (*Session, error) {
	return nil, &Error{Op: "connect", Kind: KindServerUnavailable, Err: ErrNotSupported}
}
