// Package dbgmon captures the operating system's debug output
// broadcast channel.
//
// Any process on the machine can publish a short text message tagged
// with its process id to the broadcast channel. At most one consumer
// may listen machine-wide at any time; dbgmon implements that
// consumer. The broadcast facility is built from named synchronization
// objects and a shared memory mailbox, so the names and the mailbox
// layout used here must match the platform convention exactly.
//
// Supported systems
//
//	- Windows
//
// Usage
//
// Create a Monitor, subscribe a callback, and start it:
//
//	monitor := dbgmon.NewMonitor(dbgmon.Config{})
//	monitor.Subscribe(func(pid uint32, text string) {
//		log.Printf("[%d] %s", pid, text)
//	})
//	if err := monitor.Start(); err != nil {
//		// ...
//	}
//	defer monitor.Stop()
//
// Start fails with ErrAlreadyRunning when another consumer (in this
// process or any other) is already listening, and with
// ErrUnsupportedPlatform on operating systems that do not provide the
// broadcast facility. Messages published while no consumer is
// listening are lost; that is a property of the underlying facility,
// not of this library.
package dbgmon
