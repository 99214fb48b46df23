package sshcrypto

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/samber/oops"
)

var ErrUnknownMAC = oops.New("unknown MAC algorithm")

// MAC authenticates one direction of the packet stream. The tag covers the
// packet sequence number followed by the plaintext packet (RFC 4253 §6.4),
// which is what ties each packet to its position in the stream.
type MAC interface {
	// Size returns the tag length in bytes as it appears on the wire.
	Size() int

	// Compute appends the tag for (seq, packet) to dst and returns the
	// extended slice.
	Compute(dst []byte, seq uint32, packet []byte) []byte
}

type macSpec struct {
	newHash func() hash.Hash
	keySize int
	tagSize int
}

var macSpecs = map[string]macSpec{
	"hmac-sha1":     {sha1.New, 20, 20},
	"hmac-sha1-96":  {sha1.New, 20, 12},
	"hmac-sha2-256": {sha256.New, 32, 32},
}

// MACNames returns the algorithm names this package can construct.
func MACNames() []string {
	names := make([]string, 0, len(macSpecs))
	for name := range macSpecs {
		names = append(names, name)
	}
	return names
}

// MACKeySize returns the key size in bytes for the named MAC.
func MACKeySize(name string) (int, error) {
	spec, ok := macSpecs[name]
	if !ok {
		return 0, oops.Wrapf(ErrUnknownMAC, "%s", name)
	}
	return spec.keySize, nil
}

// NewMAC constructs the named MAC with the given key.
func NewMAC(name string, key []byte) (MAC, error) {
	spec, ok := macSpecs[name]
	if !ok {
		return nil, oops.Wrapf(ErrUnknownMAC, "%s", name)
	}
	return &hmacMAC{
		mac:     hmac.New(spec.newHash, key),
		tagSize: spec.tagSize,
	}, nil
}

type hmacMAC struct {
	mac     hash.Hash
	tagSize int
	sum     []byte
}

func (m *hmacMAC) Size() int {
	return m.tagSize
}

func (m *hmacMAC) Compute(dst []byte, seq uint32, packet []byte) []byte {
	var seqBuf [4]byte
	binary.BigEndian.PutUint32(seqBuf[:], seq)
	m.mac.Reset()
	m.mac.Write(seqBuf[:])
	m.mac.Write(packet)
	m.sum = m.mac.Sum(m.sum[:0])
	return append(dst, m.sum[:m.tagSize]...)
}
