package dbgmon

import (
	"encoding/binary"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTransport is an in-memory stand-in for the platform's named
// object facilities. Events keep auto-reset semantics (a signal wakes
// exactly one waiter, then the event re-arms), locks are exclusive per
// name across every monitor sharing the transport, and the mailbox is
// a plain byte slice tests write into the way a producer would.
type fakeTransport struct {
	mu     sync.Mutex
	locks  map[string]bool
	events map[string]*fakeEvent
	mem    []byte

	failLock   bool
	failEvents map[string]bool
	failMap    bool

	released []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		locks:      make(map[string]bool),
		events:     make(map[string]*fakeEvent),
		failEvents: make(map[string]bool),
		mem:        make([]byte, viewSize),
	}
}

func (o *fakeTransport) CreateLock(name string) (Lock, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.failLock {
		return nil, &ResourceError{Op: "create", Resource: name, Err: fmt.Errorf("injected lock failure")}
	}

	if o.locks[name] {
		return nil, fmt.Errorf("%w - lock '%s' is owned by another process", ErrAlreadyRunning, name)
	}

	o.locks[name] = true

	return &fakeLock{transport: o, name: name}, nil
}

func (o *fakeTransport) CreateEvent(name string) (Event, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.failEvents[name] {
		return nil, &ResourceError{Op: "create", Resource: name, Err: fmt.Errorf("injected event failure")}
	}

	event, ok := o.events[name]
	if !ok {
		event = &fakeEvent{
			transport: o,
			name:      name,
			signals:   make(chan struct{}, 1),
		}
		o.events[name] = event
	}

	return event, nil
}

func (o *fakeTransport) MapBuffer(name string, size, view uint32) (Buffer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.failMap {
		return nil, &ResourceError{Op: "map", Resource: name, Err: fmt.Errorf("injected mapping failure")}
	}

	return &fakeBuffer{transport: o, name: name, view: o.mem[:view]}, nil
}

// emit behaves like a well-behaved producer: wait for the consumer's
// ready signal, write the mailbox, then signal data ready. The
// protocol's turn taking is what makes the unlocked mailbox write
// safe, exactly as it is for real producers.
func (o *fakeTransport) emit(t *testing.T, pid uint32, text string) {
	t.Helper()

	ready := o.event(t, bufferReadyEventName)
	data := o.event(t, dataReadyEventName)

	require.NoError(t, ready.waitTimeout(2*time.Second))

	o.write(pid, text)

	require.NoError(t, data.Set())
}

// write fills the mailbox the way a producer would: pid first, then
// NUL-terminated text, truncated at the view boundary.
func (o *fakeTransport) write(pid uint32, text string) {
	clear(o.mem)
	binary.LittleEndian.PutUint32(o.mem, pid)
	copy(o.mem[pidFieldSize:], text)
}

func (o *fakeTransport) event(t *testing.T, name string) *fakeEvent {
	t.Helper()

	o.mu.Lock()
	defer o.mu.Unlock()

	event, ok := o.events[name]
	require.True(t, ok, "event '%s' was never created", name)

	return event
}

func (o *fakeTransport) lockHeld(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.locks[name]
}

func (o *fakeTransport) recordRelease(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.released = append(o.released, name)
}

func (o *fakeTransport) releaseOrder() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]string(nil), o.released...)
}

type fakeLock struct {
	transport *fakeTransport
	name      string
	released  bool
}

func (o *fakeLock) Release() error {
	if o.released {
		return nil
	}
	o.released = true

	o.transport.mu.Lock()
	delete(o.transport.locks, o.name)
	o.transport.mu.Unlock()

	o.transport.recordRelease(o.name)

	return nil
}

type fakeEvent struct {
	transport *fakeTransport
	name      string
	signals   chan struct{}
}

func (o *fakeEvent) Set() error {
	select {
	case o.signals <- struct{}{}:
	default:
		// Already signaled. Auto-reset events coalesce signals.
	}

	return nil
}

func (o *fakeEvent) Wait() error {
	<-o.signals
	return nil
}

// waitTimeout lets test producers wait for the consumer's turn without
// hanging the test run on a bug.
func (o *fakeEvent) waitTimeout(d time.Duration) error {
	select {
	case <-o.signals:
		return nil
	case <-time.After(d):
		return fmt.Errorf("event '%s' was not signaled within %s", o.name, d)
	}
}

func (o *fakeEvent) Close() error {
	o.transport.recordRelease(o.name)
	return nil
}

type fakeBuffer struct {
	transport *fakeTransport
	name      string
	view      []byte
}

func (o *fakeBuffer) Bytes() []byte {
	return o.view
}

func (o *fakeBuffer) Close() error {
	o.transport.recordRelease(o.name)
	return nil
}
