package sshwire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeText_ReplacesControlCharacters(t *testing.T) {
	out := SanitizeText("go away\x01now\x1b[2J")
	assert.Equal(t, "go away�now�[2J", out)
}

func TestSanitizeText_ReplacesNonASCII(t *testing.T) {
	out := SanitizeText("café")
	assert.Equal(t, "caf�", out)
}

func TestSanitizeText_TruncatesLongText(t *testing.T) {
	out := SanitizeText(strings.Repeat("x", 1000))
	assert.Len(t, out, 255)
	assert.True(t, strings.HasSuffix(out, "xxx..."))
}

func TestSanitizeText_ShortTextUntouched(t *testing.T) {
	assert.Equal(t, "all fine", SanitizeText("all fine"))
}

func TestDisconnect_BuildParseRoundTrip(t *testing.T) {
	payload := BuildDisconnect(DisconnectByApplication, "bye")
	disc, err := ParseDisconnect(payload, len(payload))
	require.NoError(t, err)
	assert.Equal(t, DisconnectByApplication, disc.ReasonCode)
	assert.Equal(t, "bye", disc.Description)
}

func TestParseDisconnect_SanitizesDescription(t *testing.T) {
	payload := BuildDisconnect(2, "go away\x01")
	disc, err := ParseDisconnect(payload, len(payload))
	require.NoError(t, err)
	assert.Equal(t, "go away�", disc.Description)
}

func TestParseDisconnect_Truncated(t *testing.T) {
	payload := BuildDisconnect(2, "reason")
	_, err := ParseDisconnect(payload, 3)
	assert.ErrorIs(t, err, ErrShortPacket)
}

func TestParseDisconnect_WrongType(t *testing.T) {
	_, err := ParseDisconnect([]byte{MsgIgnore}, 1)
	assert.Error(t, err)
}

func TestParseDebug(t *testing.T) {
	w := NewWriter()
	w.WriteByte(MsgDebug)
	w.WriteBoolean(true)
	w.WriteString([]byte("trace\x02on"))
	w.WriteString(nil)
	payload := w.Bytes()

	text, err := ParseDebug(payload, len(payload))
	require.NoError(t, err)
	assert.Equal(t, "trace�on", text)
}
