package dbgmon

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func mailboxView(pid uint32, text []byte) []byte {
	view := make([]byte, viewSize)
	binary.LittleEndian.PutUint32(view, pid)
	copy(view[pidFieldSize:], text)
	return view
}

func TestDecodeMailbox(t *testing.T) {
	pid, text := decodeMailbox(mailboxView(4321, []byte("boot sequence complete\x00garbage")))

	assert.Equal(t, uint32(4321), pid)
	assert.Equal(t, "boot sequence complete", text)
}

func TestDecodeMailboxEmptyText(t *testing.T) {
	pid, text := decodeMailbox(mailboxView(1, nil))

	assert.Equal(t, uint32(1), pid)
	assert.Empty(t, text)
}

func TestDecodeMailboxWithoutTerminator(t *testing.T) {
	// A producer that filled the entire view leaves no room for the
	// NUL. The text runs to the view boundary and no further.
	full := []byte(strings.Repeat("x", TextCapacity))

	pid, text := decodeMailbox(mailboxView(2, full))

	assert.Equal(t, uint32(2), pid)
	assert.Equal(t, string(full), text)
	assert.Len(t, text, TextCapacity)
}

func TestDecodeMailboxShortView(t *testing.T) {
	pid, text := decodeMailbox([]byte{1, 2})

	assert.Zero(t, pid)
	assert.Empty(t, text)
}

func TestDecodeMailboxLittleEndianPid(t *testing.T) {
	view := mailboxView(0, []byte("x"))
	view[0] = 0x01
	view[1] = 0x02
	view[2] = 0x00
	view[3] = 0x00

	pid, _ := decodeMailbox(view)

	assert.Equal(t, uint32(0x0201), pid)
}
