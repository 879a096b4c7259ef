package automation

import (
	"sync"

	"github.com/rs/zerolog"
)

// DefaultProgID is the program identifier of the spreadsheet server.
const DefaultProgID = "Excel.Application"

type options struct {
	log zerolog.Logger
}

// Option configures a Session.
type Option func(*options)

// WithLogger sets the logger used by the session and every handle it hands out.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(opts []Option) options {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Session is one connection to an automation server. It owns the top-level
// object and the platform state set up to reach it; Close releases both
// exactly once.
type Session struct {
	m        *Marshaller
	root     *Handle
	progID   string
	teardown func()
	once     sync.Once
}

// NewSession builds a session around root, taking over the reference the
// caller holds on it. teardown, when non-nil, runs once after root is
// released.
func NewSession(rt Runtime, root Dispatcher, teardown func(), opts ...Option) *Session {
	o := buildOptions(opts)
	m := NewMarshaller(rt, o.log)
	return &Session{
		m:        m,
		root:     m.adopt(root),
		teardown: teardown,
	}
}

// Root returns the handle to the top-level object. It stays owned by the
// session; Clone it to keep it beyond Close.
func (s *Session) Root() *Handle { return s.root }

// Close releases the top-level object and tears down the platform state.
// Calls after the first do nothing.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.m.log.Debug().Str("progID", s.progID).Msg("closing automation session")
		s.root.Release()
		if s.teardown != nil {
			s.teardown()
		}
	})
	return nil
}
