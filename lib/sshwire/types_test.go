package sshwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderWriter_RoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteByte(42)
	w.WriteBoolean(true)
	w.WriteUint32(0xdeadbeef)
	w.WriteString([]byte("payload"))
	w.WriteNameList([]string{"aes128-ctr", "aes256-ctr"})

	payload := w.Bytes()
	r := NewReader(payload, len(payload))

	b, err := r.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(42), b)

	v, err := r.ReadBoolean()
	require.NoError(t, err)
	assert.True(t, v)

	u, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u)

	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), s)

	names, err := r.ReadNameList()
	require.NoError(t, err)
	assert.Equal(t, []string{"aes128-ctr", "aes256-ctr"}, names)

	assert.Equal(t, 0, r.Remaining())
}

func TestReader_EmptyNameList(t *testing.T) {
	w := NewWriter()
	w.WriteNameList(nil)
	payload := w.Bytes()

	r := NewReader(payload, len(payload))
	names, err := r.ReadNameList()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestReader_ShortPayload(t *testing.T) {
	r := NewReader([]byte{0, 0}, 2)
	_, err := r.ReadUint32()
	assert.ErrorIs(t, err, ErrShortPacket)
}

func TestReader_StringLengthBeyondPayload(t *testing.T) {
	// Claims 100 bytes of string data, provides 2.
	r := NewReader([]byte{0, 0, 0, 100, 'a', 'b'}, 6)
	_, err := r.ReadString()
	assert.ErrorIs(t, err, ErrShortPacket)
}
