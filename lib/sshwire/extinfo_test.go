package sshwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoExtInfoSeen(t *testing.T) {
	ei := NoExtInfoSeen()
	assert.Equal(t, 0, ei.Len())
	_, ok := ei.Extension("server-sig-algs")
	assert.False(t, ok)
}

func TestParseExtInfo(t *testing.T) {
	exts := map[string][]byte{
		"server-sig-algs": []byte("rsa-sha2-256,rsa-sha2-512"),
		"no-flow-control": []byte("p"),
		"publickey-hostbound@openssh.com": []byte("0"),
	}
	payload := BuildExtInfo(exts, []string{"server-sig-algs", "no-flow-control", "publickey-hostbound@openssh.com"})

	ei, err := ParseExtInfo(payload, len(payload))
	require.NoError(t, err)
	assert.Equal(t, 3, ei.Len())

	algs, ok := ei.Extension("server-sig-algs")
	require.True(t, ok)
	assert.Equal(t, []byte("rsa-sha2-256,rsa-sha2-512"), algs)
	assert.ElementsMatch(t, []string{"server-sig-algs", "no-flow-control", "publickey-hostbound@openssh.com"}, ei.Names())
}

func TestParseExtInfo_DuplicateNameLastWins(t *testing.T) {
	w := NewWriter()
	w.WriteByte(MsgExtInfo)
	w.WriteUint32(2)
	w.WriteString([]byte("a"))
	w.WriteString([]byte("1"))
	w.WriteString([]byte("a"))
	w.WriteString([]byte("2"))
	payload := w.Bytes()

	ei, err := ParseExtInfo(payload, len(payload))
	require.NoError(t, err)
	v, ok := ei.Extension("a")
	require.True(t, ok)
	assert.Equal(t, []byte("2"), v)
}

func TestParseExtInfo_TruncatedValue(t *testing.T) {
	w := NewWriter()
	w.WriteByte(MsgExtInfo)
	w.WriteUint32(1)
	w.WriteString([]byte("name"))
	payload := w.Bytes()

	_, err := ParseExtInfo(payload, len(payload))
	assert.ErrorIs(t, err, ErrShortPacket)
}

func TestParseKexInit_RoundTrip(t *testing.T) {
	in := &KexInit{
		KexAlgorithms:             []string{"diffie-hellman-group14-sha256", StrictKexServerToken},
		ServerHostKeyAlgos:        []string{"ssh-ed25519"},
		CiphersClientToServer:     []string{"aes128-ctr"},
		CiphersServerToClient:     []string{"aes128-ctr"},
		MACsClientToServer:        []string{"hmac-sha2-256"},
		MACsServerToClient:        []string{"hmac-sha2-256"},
		CompressionClientToServer: []string{"none"},
		CompressionServerToClient: []string{"none"},
	}
	copy(in.Cookie[:], []byte("0123456789abcdef"))

	payload := BuildKexInit(in)
	out, err := ParseKexInit(payload, len(payload))
	require.NoError(t, err)
	assert.Equal(t, in.Cookie, out.Cookie)
	assert.Equal(t, in.KexAlgorithms, out.KexAlgorithms)
	assert.Equal(t, in.CiphersServerToClient, out.CiphersServerToClient)
	assert.False(t, out.FirstKexPacketFollows)

	assert.True(t, out.AdvertisesStrictKex(StrictKexServerToken))
	assert.False(t, out.AdvertisesStrictKex(StrictKexClientToken))
}

func TestIsKexMessage(t *testing.T) {
	assert.True(t, IsKexMessage(MsgKexInit))
	assert.True(t, IsKexMessage(MsgNewKeys))
	assert.True(t, IsKexMessage(30))
	assert.True(t, IsKexMessage(49))
	assert.False(t, IsKexMessage(50))
	assert.False(t, IsKexMessage(MsgIgnore))
	assert.False(t, IsKexMessage(MsgDisconnect))
}
