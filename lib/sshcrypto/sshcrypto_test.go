package sshcrypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeKeyIV(t *testing.T, name string) (key, iv []byte) {
	t.Helper()
	keySize, err := KeySize(name)
	require.NoError(t, err)
	blockSize, err := BlockSizeOf(name)
	require.NoError(t, err)
	key = bytes.Repeat([]byte{0x5a}, keySize)
	iv = bytes.Repeat([]byte{0xa5}, blockSize)
	return key, iv
}

func TestBlockCipher_EncryptDecrypt(t *testing.T) {
	for _, name := range []string{"aes128-ctr", "aes256-ctr", "aes256-cbc", "blowfish-cbc", "3des-cbc"} {
		t.Run(name, func(t *testing.T) {
			key, iv := makeKeyIV(t, name)
			enc, err := NewBlockCipher(name, key, iv, true)
			require.NoError(t, err)
			dec, err := NewBlockCipher(name, key, iv, false)
			require.NoError(t, err)

			plaintext := bytes.Repeat([]byte("ssh-packet-data!"), 4) // 64 bytes, block aligned
			ciphertext := make([]byte, len(plaintext))
			enc.Transform(ciphertext, plaintext)
			assert.NotEqual(t, plaintext, ciphertext)

			recovered := make([]byte, len(ciphertext))
			dec.Transform(recovered, ciphertext)
			assert.Equal(t, plaintext, recovered)
		})
	}
}

func TestBlockCipher_InPlace(t *testing.T) {
	key, iv := makeKeyIV(t, "aes128-ctr")
	enc, err := NewBlockCipher("aes128-ctr", key, iv, true)
	require.NoError(t, err)
	dec, err := NewBlockCipher("aes128-ctr", key, iv, false)
	require.NoError(t, err)

	data := bytes.Repeat([]byte{0x11}, 32)
	orig := append([]byte(nil), data...)
	enc.Transform(data, data)
	assert.NotEqual(t, orig, data)
	dec.Transform(data, data)
	assert.Equal(t, orig, data)
}

func TestNewBlockCipher_Unknown(t *testing.T) {
	_, err := NewBlockCipher("rot13-ctr", nil, nil, true)
	assert.ErrorIs(t, err, ErrUnknownCipher)
}

func TestNewBlockCipher_WrongKeySize(t *testing.T) {
	_, err := NewBlockCipher("aes128-ctr", make([]byte, 5), make([]byte, 16), true)
	assert.ErrorIs(t, err, ErrKeySize)
}

func TestMAC_ComputeAndSizes(t *testing.T) {
	for name, wantSize := range map[string]int{
		"hmac-sha1":     20,
		"hmac-sha1-96":  12,
		"hmac-sha2-256": 32,
	} {
		t.Run(name, func(t *testing.T) {
			keySize, err := MACKeySize(name)
			require.NoError(t, err)
			m, err := NewMAC(name, bytes.Repeat([]byte{7}, keySize))
			require.NoError(t, err)
			assert.Equal(t, wantSize, m.Size())

			tag := m.Compute(nil, 0, []byte("packet"))
			assert.Len(t, tag, wantSize)
		})
	}
}

func TestMAC_SequenceNumberChangesTag(t *testing.T) {
	m, err := NewMAC("hmac-sha2-256", bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	tag0 := m.Compute(nil, 0, []byte("packet"))
	tag1 := m.Compute(nil, 1, []byte("packet"))
	assert.NotEqual(t, tag0, tag1)

	// Same inputs reproduce the same tag.
	again := m.Compute(nil, 0, []byte("packet"))
	assert.Equal(t, tag0, again)
}

func TestNewMAC_Unknown(t *testing.T) {
	_, err := NewMAC("hmac-md5", nil)
	assert.ErrorIs(t, err, ErrUnknownMAC)
}

func TestZlibCompressor_RoundTrip(t *testing.T) {
	comp, err := NewCompressor(CompressionZlib)
	require.NoError(t, err)
	decomp, err := NewDecompressor(CompressionZlib)
	require.NoError(t, err)

	data := bytes.Repeat([]byte("channel data "), 100)
	packed, err := comp.Compress(data)
	require.NoError(t, err)
	assert.Less(t, len(packed), len(data))

	unpacked, err := decomp.Uncompress(packed)
	require.NoError(t, err)
	assert.Equal(t, data, unpacked)
}

func TestZlibCompressor_ConsecutivePackets(t *testing.T) {
	comp, err := NewCompressor(CompressionZlib)
	require.NoError(t, err)
	decomp, err := NewDecompressor(CompressionZlib)
	require.NoError(t, err)

	for _, msg := range []string{"first", "second packet", "third"} {
		packed, err := comp.Compress([]byte(msg))
		require.NoError(t, err)
		unpacked, err := decomp.Uncompress(packed)
		require.NoError(t, err)
		assert.Equal(t, []byte(msg), unpacked)
	}
}

func TestCompression_DelayedFlag(t *testing.T) {
	comp, err := NewCompressor(CompressionZlibDelayed)
	require.NoError(t, err)
	assert.True(t, comp.Delayed())

	plain, err := NewCompressor(CompressionZlib)
	require.NoError(t, err)
	assert.False(t, plain.Delayed())

	none, err := NewCompressor(CompressionNone)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestNewCompressor_Unknown(t *testing.T) {
	_, err := NewCompressor("lzma")
	assert.ErrorIs(t, err, ErrUnknownCompression)
	_, err = NewDecompressor("lzma")
	assert.ErrorIs(t, err, ErrUnknownCompression)
}
