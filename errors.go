package dbgmon

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPlatform is returned by Start on operating systems
	// that do not provide the debug output broadcast facility.
	ErrUnsupportedPlatform = errors.New("the debug output broadcast facility is only available on windows")

	// ErrAlreadyRunning is returned by Start when the monitor is not
	// stopped, or when another process already owns the consumer
	// singleton lock.
	ErrAlreadyRunning = errors.New("a debug output monitor is already running")

	// ErrNotRunning is returned by Stop when the monitor is not running.
	ErrNotRunning = errors.New("the debug output monitor is not running")

	// ErrStopTimeout is returned by Stop when the capture loop did not
	// exit within Config.StopTimeout. The monitor remains stoppable;
	// Stop may be retried.
	ErrStopTimeout = errors.New("timed out waiting for the capture loop to exit")
)

// ResourceError describes a failure to create, map, signal, wait on,
// or release one of the named operating system objects the capture
// protocol is built on.
type ResourceError struct {
	// Op is the operation that failed: "create", "map", "signal",
	// "wait on", or "release".
	Op string

	// Resource is the name of the named object involved.
	Resource string

	// Code is the underlying operating system error code, when known.
	Code uintptr

	// Err is the underlying error.
	Err error
}

func (o *ResourceError) Error() string {
	return fmt.Sprintf("failed to %s '%s' - %s", o.Op, o.Resource, o.Err)
}

func (o *ResourceError) Unwrap() error {
	return o.Err
}
