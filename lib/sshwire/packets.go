package sshwire

import (
	"github.com/samber/oops"
)

// maxReasonLength caps peer-supplied description strings before they reach a
// log file or an error message. Longer strings are truncated with a trailing
// "..." marker.
const maxReasonLength = 255

// SanitizeText restricts peer-supplied text to printable US-ASCII
// (32..126); every other rune is replaced with U+FFFD. Text longer than 255
// characters is truncated and its last three characters overwritten with
// ".". Servers are not above sending terminal escape sequences in their
// DISCONNECT descriptions.
func SanitizeText(s string) string {
	runes := []rune(s)
	if len(runes) > maxReasonLength {
		runes = runes[:maxReasonLength]
		runes[252] = '.'
		runes[253] = '.'
		runes[254] = '.'
	}
	for i, c := range runes {
		if c < 32 || c > 126 {
			runes[i] = '�'
		}
	}
	return string(runes)
}

// Disconnect is the decoded form of an SSH_MSG_DISCONNECT packet.
type Disconnect struct {
	ReasonCode  uint32
	Description string
}

// ParseDisconnect decodes an SSH_MSG_DISCONNECT payload. The description is
// sanitized before being returned.
func ParseDisconnect(payload []byte, length int) (*Disconnect, error) {
	r := NewReader(payload, length)
	msgType, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if msgType != MsgDisconnect {
		return nil, oops.Errorf("not a DISCONNECT packet (type %d)", msgType)
	}
	code, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	desc, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return &Disconnect{
		ReasonCode:  code,
		Description: SanitizeText(string(desc)),
	}, nil
}

// BuildDisconnect encodes an SSH_MSG_DISCONNECT payload with an empty
// language tag.
func BuildDisconnect(reasonCode uint32, description string) []byte {
	w := NewWriter()
	w.WriteByte(MsgDisconnect)
	w.WriteUint32(reasonCode)
	w.WriteString([]byte(description))
	w.WriteString(nil) // language tag
	return w.Bytes()
}

// ParseDebug decodes an SSH_MSG_DEBUG payload and returns the sanitized
// message text.
func ParseDebug(payload []byte, length int) (string, error) {
	r := NewReader(payload, length)
	msgType, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	if msgType != MsgDebug {
		return "", oops.Errorf("not a DEBUG packet (type %d)", msgType)
	}
	if _, err := r.ReadBoolean(); err != nil { // always_display
		return "", err
	}
	text, err := r.ReadString()
	if err != nil {
		return "", err
	}
	return SanitizeText(string(text)), nil
}
