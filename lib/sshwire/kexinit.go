package sshwire

import (
	"github.com/samber/oops"
)

// Strict-kex pseudo-algorithm tokens (CVE-2023-48795 countermeasure). The
// client advertises the -c token in its kex list, the server the -s token;
// strict mode is on only when both appear.
const (
	StrictKexClientToken = "kex-strict-c-v00@openssh.com"
	StrictKexServerToken = "kex-strict-s-v00@openssh.com"
)

// KexInit is the decoded form of an SSH_MSG_KEXINIT packet (RFC 4253 §7.1).
type KexInit struct {
	Cookie [16]byte

	KexAlgorithms      []string
	ServerHostKeyAlgos []string

	CiphersClientToServer []string
	CiphersServerToClient []string
	MACsClientToServer    []string
	MACsServerToClient    []string

	CompressionClientToServer []string
	CompressionServerToClient []string
	LanguagesClientToServer   []string
	LanguagesServerToClient   []string

	FirstKexPacketFollows bool
}

// AdvertisesStrictKex reports whether the kex list carries the given strict
// mode token.
func (k *KexInit) AdvertisesStrictKex(token string) bool {
	for _, name := range k.KexAlgorithms {
		if name == token {
			return true
		}
	}
	return false
}

// ParseKexInit decodes an SSH_MSG_KEXINIT payload.
func ParseKexInit(payload []byte, length int) (*KexInit, error) {
	r := NewReader(payload, length)
	msgType, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if msgType != MsgKexInit {
		return nil, oops.Errorf("not a KEXINIT packet (type %d)", msgType)
	}

	k := &KexInit{}
	for i := range k.Cookie {
		if k.Cookie[i], err = r.ReadByte(); err != nil {
			return nil, err
		}
	}

	lists := []*[]string{
		&k.KexAlgorithms, &k.ServerHostKeyAlgos,
		&k.CiphersClientToServer, &k.CiphersServerToClient,
		&k.MACsClientToServer, &k.MACsServerToClient,
		&k.CompressionClientToServer, &k.CompressionServerToClient,
		&k.LanguagesClientToServer, &k.LanguagesServerToClient,
	}
	for _, dst := range lists {
		if *dst, err = r.ReadNameList(); err != nil {
			return nil, err
		}
	}

	if k.FirstKexPacketFollows, err = r.ReadBoolean(); err != nil {
		return nil, err
	}
	if _, err = r.ReadUint32(); err != nil { // reserved
		return nil, err
	}
	return k, nil
}

// BuildKexInit encodes a KEXINIT payload.
func BuildKexInit(k *KexInit) []byte {
	w := NewWriter()
	w.WriteByte(MsgKexInit)
	for _, b := range k.Cookie {
		w.WriteByte(b)
	}
	for _, list := range [][]string{
		k.KexAlgorithms, k.ServerHostKeyAlgos,
		k.CiphersClientToServer, k.CiphersServerToClient,
		k.MACsClientToServer, k.MACsServerToClient,
		k.CompressionClientToServer, k.CompressionServerToClient,
		k.LanguagesClientToServer, k.LanguagesServerToClient,
	} {
		w.WriteNameList(list)
	}
	w.WriteBoolean(k.FirstKexPacketFollows)
	w.WriteUint32(0) // reserved
	return w.Bytes()
}
