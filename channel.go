package dbgmon

import (
	"log/slog"
	"sync"
)

// captureChannel owns the named objects that make up the consumer half
// of the broadcast protocol: the singleton lock, the two handshake
// events, and the mapped mailbox view.
//
// The handshake is strictly alternating. Signaling the ready event
// hands the mailbox to producers; after that the view must not be
// touched until the data event fires again. Turn taking is the only
// ordering guarantee the protocol has, and it holds only because the
// singleton lock keeps every other consumer out.
type captureChannel struct {
	log *slog.Logger

	mu     sync.Mutex
	lock   Lock
	ready  Event // consumer is listening, mailbox is free
	data   Event // a producer has written the mailbox
	buffer Buffer
}

// openCaptureChannel acquires every named object the protocol needs.
// Acquisition order is lock, ready event, data event, mailbox; any
// failure releases whatever was already acquired so a failed Start
// leaves nothing behind.
func openCaptureChannel(transport Transport, logger *slog.Logger) (*captureChannel, error) {
	channel := &captureChannel{log: logger}

	lock, err := transport.CreateLock(monitorLockName)
	if err != nil {
		return nil, err
	}
	channel.lock = lock

	ready, err := transport.CreateEvent(bufferReadyEventName)
	if err != nil {
		channel.release()
		return nil, err
	}
	channel.ready = ready

	data, err := transport.CreateEvent(dataReadyEventName)
	if err != nil {
		channel.release()
		return nil, err
	}
	channel.data = data

	buffer, err := transport.MapBuffer(bufferName, bufferSize, viewSize)
	if err != nil {
		channel.release()
		return nil, err
	}
	channel.buffer = buffer

	return channel, nil
}

// signalReady tells producers the mailbox is free and the consumer is
// listening.
func (o *captureChannel) signalReady() error {
	return o.ready.Set()
}

// waitData blocks until a producer signals the data event, or until
// wake force-signals it to request shutdown. There is deliberately no
// timeout on the wait itself.
func (o *captureChannel) waitData() error {
	return o.data.Wait()
}

// wake force-signals the data event so a blocked waitData returns.
// Calling wake on a released channel is a no-op.
func (o *captureChannel) wake() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.data == nil {
		return nil
	}

	return o.data.Set()
}

// read decodes the producer pid and message text from the mapped view.
func (o *captureChannel) read() (uint32, string) {
	return decodeMailbox(o.buffer.Bytes())
}

// release closes every object the channel still holds: ready event,
// data event, mailbox, then the singleton lock. Individual failures
// are logged and do not stop the remaining releases. Safe to call
// more than once.
func (o *captureChannel) release() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ready != nil {
		if err := o.ready.Close(); err != nil {
			o.log.Error("failed to release buffer ready event", "error", err)
		}
		o.ready = nil
	}

	if o.data != nil {
		if err := o.data.Close(); err != nil {
			o.log.Error("failed to release data ready event", "error", err)
		}
		o.data = nil
	}

	if o.buffer != nil {
		if err := o.buffer.Close(); err != nil {
			o.log.Error("failed to release mailbox mapping", "error", err)
		}
		o.buffer = nil
	}

	if o.lock != nil {
		if err := o.lock.Release(); err != nil {
			o.log.Error("failed to release singleton lock", "error", err)
		}
		o.lock = nil
	}
}
