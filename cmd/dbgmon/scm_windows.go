//go:build windows

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"
	"golang.org/x/sys/windows/svc/mgr"
)

const serviceDescription = "Captures the system-wide debug output broadcast and forwards it to the Windows event log."

func installService() error {
	exePath, err := os.Executable()
	if err != nil {
		return err
	}

	m, err := mgr.Connect()
	if err != nil {
		return err
	}
	defer m.Disconnect()

	config := mgr.Config{
		DisplayName: serviceName,
		Description: serviceDescription,
		StartType:   mgr.StartManual,
	}

	s, err := m.CreateService(serviceName, exePath, config)
	if err != nil {
		return err
	}
	defer s.Close()

	err = eventlog.InstallAsEventCreate(serviceName, eventlog.Error|eventlog.Warning|eventlog.Info)
	if err != nil {
		s.Delete()
		return err
	}

	return nil
}

func uninstallService() error {
	m, err := mgr.Connect()
	if err != nil {
		return err
	}
	defer m.Disconnect()

	s, err := m.OpenService(serviceName)
	if err != nil {
		return err
	}
	defer s.Close()

	// Windows does not stop the service's process when the service
	// is deleted, so attempt a stop first. Nothing to do if it fails.
	stopAndWait(s)

	if err := s.Delete(); err != nil {
		return err
	}

	return eventlog.Remove(serviceName)
}

func startService() error {
	m, err := mgr.Connect()
	if err != nil {
		return err
	}
	defer m.Disconnect()

	s, err := m.OpenService(serviceName)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.Start()
}

func stopService() error {
	m, err := mgr.Connect()
	if err != nil {
		return err
	}
	defer m.Disconnect()

	s, err := m.OpenService(serviceName)
	if err != nil {
		return err
	}
	defer s.Close()

	return stopAndWait(s)
}

func serviceStatus() (string, error) {
	m, err := mgr.Connect()
	if err != nil {
		return "", err
	}
	defer m.Disconnect()

	s, err := m.OpenService(serviceName)
	if err != nil {
		if errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST) {
			return "not installed", nil
		}

		return "", err
	}
	defer s.Close()

	status, err := s.Query()
	if err != nil {
		return "", err
	}

	switch status.State {
	case svc.Stopped:
		return "stopped", nil
	case svc.StartPending:
		return "starting", nil
	case svc.StopPending:
		return "stopping", nil
	case svc.Running:
		return "running", nil
	case svc.Paused, svc.PausePending, svc.ContinuePending:
		return "paused", nil
	}

	return "unknown", nil
}

// stopAndWait issues a stop control and polls until the service
// reports stopped, bounded by the machine's service kill timeout.
func stopAndWait(s *mgr.Service) error {
	status, err := s.Control(svc.Stop)
	if err != nil {
		return err
	}

	interval := 50 * time.Millisecond
	timeout := systemStopTimeout()

	onTimeout := time.After(timeout + interval*2)
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for status.State != svc.Stopped {
		select {
		case <-tick.C:
			status, err = s.Query()
			if err != nil {
				return err
			}
		case <-onTimeout:
			return fmt.Errorf("service failed to stop after %s", timeout)
		}
	}

	return nil
}

// systemStopTimeout reads the machine's service kill timeout from the
// registry, falling back to 20 seconds.
func systemStopTimeout() time.Duration {
	const fallback = 20 * time.Second

	key, err := registry.OpenKey(registry.LOCAL_MACHINE, `SYSTEM\CurrentControlSet\Control`, registry.READ)
	if err != nil {
		return fallback
	}
	defer key.Close()

	value, _, err := key.GetStringValue("WaitToKillServiceTimeout")
	if err != nil {
		return fallback
	}

	millis, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}

	return time.Duration(millis) * time.Millisecond
}
