//go:build !windows

package dbgmon

// platformTransport reports that this platform has no debug output
// broadcast facility. Start surfaces ErrUnsupportedPlatform before
// touching any resource.
func platformTransport() Transport {
	return nil
}
