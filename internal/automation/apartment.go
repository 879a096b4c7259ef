package automation

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// ErrApartmentClosed is returned by Do once the apartment has been closed.
var ErrApartmentClosed = errors.New("apartment closed")

// Apartment runs functions one at a time on a single locked OS thread.
// COM objects created inside it must only be touched from inside it.
type Apartment struct {
	calls chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func NewApartment() *Apartment {
	a := &Apartment{
		calls: make(chan func()),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Apartment) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(a.done)

	for {
		select {
		case fn := <-a.calls:
			fn()
		case <-a.quit:
			return
		}
	}
}

// Do runs fn on the apartment thread and waits for it. ctx bounds only the
// wait for the thread to become free; once fn starts it runs to completion.
func (a *Apartment) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	call := func() {
		defer func() {
			if r := recover(); r != nil {
				result <- &panicError{value: r}
			}
		}()
		result <- fn()
	}

	select {
	case a.calls <- call:
	case <-a.quit:
		return ErrApartmentClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-result
}

// Close stops the apartment thread after the running function, if any,
// returns. It is safe to call more than once.
func (a *Apartment) Close() {
	a.once.Do(func() { close(a.quit) })
	<-a.done
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic in apartment: %v", e.value)
}
