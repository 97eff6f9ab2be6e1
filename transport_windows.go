//go:build windows

package dbgmon

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// winTransport implements Transport on Win32 named objects.
type winTransport struct{}

func platformTransport() Transport {
	return winTransport{}
}

func (winTransport) CreateLock(name string) (Lock, error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, winResourceError("create", name, err)
	}

	// ERROR_ALREADY_EXISTS arrives alongside a valid handle to the
	// other owner's mutex; that handle must be closed, not kept.
	handle, err := windows.CreateMutex(nil, true, namePtr)
	if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("%w - lock '%s' is owned by another process", ErrAlreadyRunning, name)
	}
	if err != nil {
		return nil, winResourceError("create", name, err)
	}

	return &winLock{name: name, handle: handle}, nil
}

func (winTransport) CreateEvent(name string) (Event, error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, winResourceError("create", name, err)
	}

	// Auto-reset and initially unsignaled. If a producer created the
	// event first this opens the existing one, which is fine - the
	// names are the protocol's rendezvous point.
	handle, err := windows.CreateEvent(nil, 0, 0, namePtr)
	if err != nil && !errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		return nil, winResourceError("create", name, err)
	}

	return &winEvent{name: name, handle: handle}, nil
}

func (winTransport) MapBuffer(name string, size, view uint32) (Buffer, error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, winResourceError("map", name, err)
	}

	// The backing section is writable so producers can fill the
	// mailbox; this process only ever maps a read-only view. An
	// already existing section is expected when producers or an
	// earlier consumer created it first.
	handle, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, size, namePtr)
	if err != nil && !errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		return nil, winResourceError("map", name, err)
	}

	addr, err := windows.MapViewOfFile(handle, windows.FILE_MAP_READ, 0, 0, uintptr(view))
	if err != nil {
		windows.CloseHandle(handle)
		return nil, winResourceError("map", name, err)
	}

	return &winBuffer{
		name:   name,
		handle: handle,
		addr:   addr,
		view:   unsafe.Slice((*byte)(unsafe.Pointer(addr)), view),
	}, nil
}

type winLock struct {
	name   string
	handle windows.Handle
}

func (o *winLock) Release() error {
	if o.handle == 0 {
		return nil
	}

	releaseErr := windows.ReleaseMutex(o.handle)
	closeErr := windows.CloseHandle(o.handle)
	o.handle = 0

	if releaseErr != nil {
		return winResourceError("release", o.name, releaseErr)
	}
	if closeErr != nil {
		return winResourceError("release", o.name, closeErr)
	}

	return nil
}

type winEvent struct {
	name   string
	handle windows.Handle
}

func (o *winEvent) Set() error {
	if err := windows.SetEvent(o.handle); err != nil {
		return winResourceError("signal", o.name, err)
	}

	return nil
}

func (o *winEvent) Wait() error {
	status, err := windows.WaitForSingleObject(o.handle, windows.INFINITE)
	if err != nil {
		return winResourceError("wait on", o.name, err)
	}

	if status != windows.WAIT_OBJECT_0 {
		return &ResourceError{
			Op:       "wait on",
			Resource: o.name,
			Code:     uintptr(status),
			Err:      fmt.Errorf("unexpected wait status %#x", status),
		}
	}

	return nil
}

func (o *winEvent) Close() error {
	if o.handle == 0 {
		return nil
	}

	err := windows.CloseHandle(o.handle)
	o.handle = 0
	if err != nil {
		return winResourceError("release", o.name, err)
	}

	return nil
}

type winBuffer struct {
	name   string
	handle windows.Handle
	addr   uintptr
	view   []byte
}

func (o *winBuffer) Bytes() []byte {
	return o.view
}

func (o *winBuffer) Close() error {
	if o.handle == 0 {
		return nil
	}

	unmapErr := windows.UnmapViewOfFile(o.addr)
	closeErr := windows.CloseHandle(o.handle)
	o.handle = 0
	o.addr = 0
	o.view = nil

	if unmapErr != nil {
		return winResourceError("release", o.name, unmapErr)
	}
	if closeErr != nil {
		return winResourceError("release", o.name, closeErr)
	}

	return nil
}

func winResourceError(op, resource string, err error) *ResourceError {
	resourceErr := &ResourceError{
		Op:       op,
		Resource: resource,
		Err:      err,
	}

	var errno windows.Errno
	if errors.As(err, &errno) {
		resourceErr.Code = uintptr(errno)
	}

	return resourceErr
}
