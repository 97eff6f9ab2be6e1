//go:build windows

package main

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dbgmon/dbgmon"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"
)

func isInteractive() (bool, error) {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false, err
	}

	return !isService, nil
}

// runAsService hands control to the service control manager. Captured
// debug output is forwarded to the Windows event log under the
// service's source name.
func runAsService() error {
	events, err := eventlog.Open(serviceName)
	if err != nil {
		return err
	}
	defer events.Close()

	wrapper := &serviceWrapper{
		events: events,
	}

	runErr := svc.Run(serviceName, wrapper)

	// Start and stop errors take precedence: they describe why the
	// service wrapper gave up, which svc.Run only reports as a
	// service-specific exit code.
	if err := wrapper.startStopErr(); err != nil {
		return err
	}

	return runErr
}

// serviceWrapper adapts a Monitor to the service control manager's
// Execute callback. Start and stop errors surface through a mutex
// guarded field because Execute runs on a thread owned by Windows.
type serviceWrapper struct {
	events *eventlog.Log

	errMutex sync.Mutex
	lastErr  error
}

func (o *serviceWrapper) Execute(args []string, requests <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	const acceptedCommands = svc.AcceptStop | svc.AcceptShutdown

	changes <- svc.Status{State: svc.StartPending}

	monitor := dbgmon.NewMonitor(dbgmon.Config{
		StopTimeout: stopTimeout,
	})

	monitor.Subscribe(func(pid uint32, text string) {
		if err := o.events.Info(1, fmt.Sprintf("[%d] %s", pid, text)); err != nil {
			slog.Error("failed to write captured output to event log", "pid", pid, "error", err)
		}
	})

	if err := monitor.Start(); err != nil {
		o.setStartStopError(err)
		return true, 1
	}

	changes <- svc.Status{State: svc.Running, Accepts: acceptedCommands}

loop:
	for {
		request := <-requests
		switch request.Cmd {
		case svc.Interrogate:
			changes <- request.CurrentStatus
		case svc.Stop, svc.Shutdown:
			changes <- svc.Status{State: svc.StopPending}
			if err := monitor.Stop(); err != nil {
				o.setStartStopError(err)
				return true, 2
			}
			break loop
		default:
			continue loop
		}
	}

	return false, 0
}

func (o *serviceWrapper) setStartStopError(err error) {
	o.errMutex.Lock()
	o.lastErr = err
	o.errMutex.Unlock()
}

func (o *serviceWrapper) startStopErr() error {
	o.errMutex.Lock()
	defer o.errMutex.Unlock()

	return o.lastErr
}
