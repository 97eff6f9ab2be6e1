//go:build !windows

package main

import "github.com/dbgmon/dbgmon"

// The service surface exists only where the broadcast facility does.

func isInteractive() (bool, error) {
	return true, nil
}

func runAsService() error {
	return dbgmon.ErrUnsupportedPlatform
}

func installService() error {
	return dbgmon.ErrUnsupportedPlatform
}

func uninstallService() error {
	return dbgmon.ErrUnsupportedPlatform
}

func startService() error {
	return dbgmon.ErrUnsupportedPlatform
}

func stopService() error {
	return dbgmon.ErrUnsupportedPlatform
}

func serviceStatus() (string, error) {
	return "", dbgmon.ErrUnsupportedPlatform
}
