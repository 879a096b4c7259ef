//go:build windows

package automation

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/go-ole/go-ole"
)

// sFalse is what CoInitializeEx reports when the thread was already
// initialized; it still has to be balanced by CoUninitialize.
const sFalse = 0x00000001

// Connect launches the automation server registered under progID and
// returns a session bound to the calling OS thread. The thread stays locked
// until the session is closed.
func Connect(progID string, opts ...Option) (*Session, error) {
	runtime.LockOSThread()
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil && !isSFalse(err) {
		runtime.UnlockOSThread()
		return nil, &Error{
			Op:   "connect",
			Kind: KindServerUnavailable,
			Err:  fmt.Errorf("failed to initialize COM: %w", err),
		}
	}
	teardown := func() {
		ole.CoUninitialize()
		runtime.UnlockOSThread()
	}

	clsid, err := ole.CLSIDFromProgID(progID)
	if err != nil {
		teardown()
		return nil, &Error{
			Op:   "connect",
			Kind: KindServerUnavailable,
			Err:  fmt.Errorf("program id %q is not registered: %w", progID, err),
		}
	}

	unknown, err := ole.CreateInstance(clsid, ole.IID_IUnknown)
	if err != nil {
		teardown()
		return nil, &Error{
			Op:   "connect",
			Kind: KindServerUnavailable,
			Err:  fmt.Errorf("failed to launch %s: %w", progID, err),
		}
	}
	disp, err := unknown.QueryInterface(ole.IID_IDispatch)
	unknown.Release()
	if err != nil {
		teardown()
		return nil, &Error{
			Op:   "connect",
			Kind: KindServerUnavailable,
			Err:  fmt.Errorf("failed to query %s interface: %w", progID, err),
		}
	}

	s := NewSession(oleRuntime{}, (*oleDispatcher)(disp), teardown, opts...)
	s.progID = progID
	s.m.log.Debug().Str("progID", progID).Msg("automation session opened")
	return s, nil
}

func isSFalse(err error) bool {
	var oleErr *ole.OleError
	return errors.As(err, &oleErr) && oleErr.Code() == sFalse
}
