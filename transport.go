package dbgmon

// Transport abstracts the operating system's named synchronization
// facilities so the capture protocol and lifecycle logic can be tested
// without real OS objects. Exactly one implementation exists per
// platform; on systems without the broadcast facility there is none
// and Start fails before any resource is touched.
type Transport interface {
	// CreateLock creates a machine-wide named exclusive lock. It fails
	// with an error wrapping ErrAlreadyRunning when a lock of the same
	// name is already owned by another process.
	CreateLock(name string) (Lock, error)

	// CreateEvent creates (or opens, if a producer got there first) a
	// named auto-reset event in the unsignaled state.
	CreateEvent(name string) (Event, error)

	// MapBuffer creates (or opens) the named shared memory section of
	// size bytes and maps a read-only view of its first view bytes.
	MapBuffer(name string, size, view uint32) (Buffer, error)
}

// Lock is an exclusively owned machine-wide named lock.
type Lock interface {
	// Release relinquishes and closes the lock. Releasing an already
	// released lock is a no-op.
	Release() error
}

// Event is a named auto-reset synchronization event: signaling wakes
// at most one waiter, after which the event re-arms to unsignaled.
type Event interface {
	// Set signals the event.
	Set() error

	// Wait blocks until the event is signaled. There is no timeout;
	// a blocked Wait can only be released by signaling the event.
	Wait() error

	// Close releases the event handle. Closing an already closed
	// event is a no-op.
	Close() error
}

// Buffer is a mapped read-only view of a named shared memory section.
type Buffer interface {
	// Bytes returns the mapped view. The slice is valid until Close
	// and must never be written to.
	Bytes() []byte

	// Close unmaps the view and closes the backing section handle.
	Close() error
}
