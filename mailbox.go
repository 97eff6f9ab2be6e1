package dbgmon

import (
	"bytes"
	"encoding/binary"
)

// Well-known names of the broadcast facility's objects. Producers
// address the events and the mailbox by these exact names, so they
// must never change. The singleton lock name is this library's own;
// it exists to keep a second consumer process out.
const (
	monitorLockName      = "DBWinDebugMonitor"
	bufferReadyEventName = "DBWIN_BUFFER_READY"
	dataReadyEventName   = "DBWIN_DATA_READY"
	bufferName           = "DBWIN_BUFFER"
)

// Mailbox geometry. The backing section is 4096 bytes, but the
// consumer maps only the first 512 read-only: a little-endian uint32
// producer pid at offset 0 followed by NUL-terminated ASCII text.
// This is a fixed legacy layout - no versioning, no checksum.
const (
	bufferSize   = 4096
	viewSize     = 512
	pidFieldSize = 4

	// TextCapacity is the longest message text the consumer view can
	// carry. Producer text beyond this is silently truncated.
	TextCapacity = viewSize - pidFieldSize
)

// decodeMailbox extracts the producer pid and message text from a
// mapped view. Text without a NUL terminator runs to the end of the
// view, never past it.
func decodeMailbox(view []byte) (pid uint32, text string) {
	if len(view) < pidFieldSize {
		return 0, ""
	}

	pid = binary.LittleEndian.Uint32(view)

	raw := view[pidFieldSize:]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}

	return pid, string(raw)
}
