package excel

import (
	"errors"
	"sync"

	"github.com/negokaz/excel-com/internal/automation"
)

// ErrShutdown is returned by Shared once Shutdown has run.
var ErrShutdown = errors.New("shared application has been shut down")

var connect = automation.Connect

var shared struct {
	mu      sync.Mutex
	session *automation.Session
	app     *Application
	closed  bool
}

// Shared returns the process-wide application, connecting to the server
// identified by progID on first use. Later calls return the same
// application and ignore their arguments. A failed connection is not
// cached, so the next call tries again.
//
// The server is bound to the OS thread that made the first call; every
// later call on the application must come from that thread, usually by
// going through an automation.Apartment.
func Shared(progID string, opts ...automation.Option) (*Application, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.closed {
		return nil, ErrShutdown
	}
	if shared.app != nil {
		return shared.app, nil
	}
	if progID == "" {
		progID = automation.DefaultProgID
	}
	s, err := connect(progID, opts...)
	if err != nil {
		return nil, err
	}
	shared.session = s
	shared.app = NewApplication(s.Root().Clone())
	return shared.app, nil
}

// Shutdown releases the shared application and closes its session. It runs
// its teardown at most once; Shared fails afterwards.
func Shutdown() error {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.closed {
		return nil
	}
	shared.closed = true
	if shared.app == nil {
		return nil
	}
	shared.app.Release()
	err := shared.session.Close()
	shared.app, shared.session = nil, nil
	return err
}
