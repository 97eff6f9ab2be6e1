package dbgmon

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	Stopped  Status = "stopped"
	Starting Status = "starting"
	Running  Status = "running"
	Stopping Status = "stopping"
)

// Status represents the lifecycle state of a Monitor.
type Status string

func (o Status) String() string {
	return string(o)
}

// OutputFunc receives one captured debug message: the process id of
// the producer and the message text.
type OutputFunc func(pid uint32, text string)

// Config configures a Monitor. The zero value is usable.
type Config struct {
	// Logger receives teardown failures and subscriber panics. When
	// nil, slog.Default() is used. The monitor never fails a Start or
	// Stop call because of something it only needed to log.
	Logger *slog.Logger

	// StopTimeout bounds how long Stop waits for the capture loop to
	// drain. Zero means wait indefinitely.
	StopTimeout time.Duration
}

// Monitor is the machine's one consumer of the debug output broadcast
// channel. Create it with NewMonitor; the zero value is not usable.
type Monitor struct {
	transport Transport
	log       *slog.Logger
	stopWait  time.Duration

	mu      sync.Mutex
	status  Status
	channel *captureChannel
	done    chan struct{}

	// alive is the capture loop's liveness sentinel. Stop clears it
	// before force-signaling the data event, which is how the loop
	// tells a shutdown wake apart from a producer write.
	alive atomic.Bool

	subMu sync.RWMutex
	subs  map[string]OutputFunc
}

// NewMonitor returns a stopped Monitor.
func NewMonitor(config Config) *Monitor {
	return newMonitor(config, platformTransport())
}

func newMonitor(config Config, transport Transport) *Monitor {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		transport: transport,
		log:       logger,
		stopWait:  config.StopTimeout,
		status:    Stopped,
		subs:      make(map[string]OutputFunc),
	}
}

// Start acquires the consumer singleton lock and the broadcast
// channel's named objects, then spawns the capture loop. It fails with
// ErrUnsupportedPlatform on systems without the broadcast facility,
// with ErrAlreadyRunning when this monitor is not stopped or another
// process already holds the singleton lock, and with a ResourceError
// when a named object cannot be created. Any failure rolls back every
// resource acquired so far; callers never observe a half-started
// monitor.
func (o *Monitor) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != Stopped {
		return fmt.Errorf("%w - status is '%s'", ErrAlreadyRunning, o.status)
	}

	if o.transport == nil {
		return fmt.Errorf("%w - not available on %s", ErrUnsupportedPlatform, runtime.GOOS)
	}

	o.status = Starting

	channel, err := openCaptureChannel(o.transport, o.log)
	if err != nil {
		o.status = Stopped
		return err
	}

	o.channel = channel
	o.done = make(chan struct{})
	o.alive.Store(true)

	go o.captureLoop(channel, o.done)

	o.status = Running

	return nil
}

// Stop asks the capture loop to exit, blocks until it has torn down
// every named resource, and returns the monitor to Stopped. It fails
// with ErrNotRunning when the monitor is not running. When
// Config.StopTimeout is set and the loop does not drain in time, Stop
// returns ErrStopTimeout and the monitor stays in Running so Stop can
// be retried; the loop still owns teardown and completes it whenever
// it finally wakes.
func (o *Monitor) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != Running {
		return fmt.Errorf("%w - status is '%s'", ErrNotRunning, o.status)
	}

	o.status = Stopping

	// Clear the sentinel first, then wake the loop out of its data
	// wait. The loop checks the sentinel after every wake, so this
	// wake is understood as shutdown rather than data.
	o.alive.Store(false)
	if err := o.channel.wake(); err != nil {
		o.log.Error("failed to signal capture loop during stop", "error", err)
	}

	if o.stopWait > 0 {
		timer := time.NewTimer(o.stopWait)
		defer timer.Stop()

		select {
		case <-o.done:
		case <-timer.C:
			o.status = Running
			return fmt.Errorf("%w after %s", ErrStopTimeout, o.stopWait)
		}
	} else {
		<-o.done
	}

	o.channel = nil
	o.status = Stopped

	return nil
}

// Status returns the monitor's current lifecycle state.
func (o *Monitor) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.status
}

// Subscribe registers a callback for captured messages and returns an
// id for Unsubscribe. Callbacks run on the capture loop; a slow
// callback delays the handshake, and a panicking one is logged and
// contained.
func (o *Monitor) Subscribe(callback OutputFunc) string {
	id := uuid.NewString()

	o.subMu.Lock()
	o.subs[id] = callback
	o.subMu.Unlock()

	return id
}

// Unsubscribe removes a previously registered callback. Unknown ids
// are ignored.
func (o *Monitor) Unsubscribe(id string) {
	o.subMu.Lock()
	delete(o.subs, id)
	o.subMu.Unlock()
}

// captureLoop is the only goroutine that touches the mailbox or
// dispatches to subscribers. It owns the channel teardown: whichever
// way the loop exits, every named object is released exactly once
// before done is closed, which gives Stop a well-defined drain
// completion signal.
func (o *Monitor) captureLoop(channel *captureChannel, done chan struct{}) {
	defer close(done)
	defer channel.release()

	for {
		if err := channel.signalReady(); err != nil {
			o.log.Error("capture loop failed to signal readiness", "error", err)
			return
		}

		if err := channel.waitData(); err != nil {
			o.log.Error("capture loop failed waiting for data", "error", err)
			return
		}

		if !o.alive.Load() {
			// Shutdown wake from Stop, not a producer write. The
			// mailbox must not be read.
			return
		}

		pid, text := channel.read()
		o.dispatch(pid, text)
	}
}

// dispatch delivers one captured message to a snapshot of the current
// subscribers. Snapshotting keeps Subscribe and Unsubscribe callable
// while a dispatch is in progress.
func (o *Monitor) dispatch(pid uint32, text string) {
	o.subMu.RLock()
	callbacks := make([]OutputFunc, 0, len(o.subs))
	for _, callback := range o.subs {
		callbacks = append(callbacks, callback)
	}
	o.subMu.RUnlock()

	for _, callback := range callbacks {
		o.deliver(callback, pid, text)
	}
}

// deliver invokes a single subscriber. A panicking subscriber must not
// take down the capture loop or starve the remaining subscribers.
func (o *Monitor) deliver(callback OutputFunc, pid uint32, text string) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("subscriber panicked during dispatch", "pid", pid, "panic", r)
		}
	}()

	callback(pid, text)
}
