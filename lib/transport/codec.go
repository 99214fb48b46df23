package transport

import (
	"crypto/hmac"
	"encoding/binary"
	"io"

	"github.com/go-i2p/crypto/rand"
	"github.com/samber/oops"

	"github.com/go-i2p/go-ssh2/lib/sshcrypto"
)

const (
	// MaxPacketSize is the largest packet (length field value) we accept,
	// per RFC 4253 §6.1.
	MaxPacketSize = 35000

	// ReceiveBufferSize fits a maximum-size packet plus margin; the
	// dispatcher reuses one buffer of this size for the whole connection.
	ReceiveBufferSize = 35004

	// minPadding is the RFC 4253 minimum padding length.
	minPadding = 4
)

// Conn frames SSH binary packets on a byte stream. The send and receive
// halves are fully independent: each has its own cipher, MAC, compressor,
// and 32-bit sequence number wrapping modulo 2^32.
//
// Conn performs no locking. The transport serializes the send half under
// its connection semaphore; the receive half is touched only by the receive
// goroutine, which is also the context in which the KEX engine installs new
// receive keys.
type Conn struct {
	r   io.Reader
	w   io.Writer
	rnd io.Reader

	send struct {
		cipher      sshcrypto.BlockCipher
		mac         sshcrypto.MAC
		comp        sshcrypto.Compressor
		compressing bool
		seq         uint32
		buf         []byte
	}

	recv struct {
		cipher        sshcrypto.BlockCipher
		mac           sshcrypto.MAC
		decomp        sshcrypto.Decompressor
		decompressing bool
		seq           uint32
		buf           []byte
		tag           []byte
	}
}

// secureRandom adapts the module-wide secure randomness source to io.Reader
// for padding generation.
type secureRandom struct{}

func (secureRandom) Read(p []byte) (int, error) {
	return rand.Read(p)
}

// NewConn wraps a byte stream. rnd supplies padding randomness; nil selects
// the crypto-secure default.
func NewConn(r io.Reader, w io.Writer, rnd io.Reader) *Conn {
	if rnd == nil {
		rnd = secureRandom{}
	}
	c := &Conn{r: r, w: w, rnd: rnd}
	c.send.buf = make([]byte, 0, ReceiveBufferSize)
	c.recv.buf = make([]byte, ReceiveBufferSize)
	return c
}

// SendPacket frames, compresses, MACs, and encrypts one payload, then
// writes it out and advances the send sequence number. Callers serialize.
func (c *Conn) SendPacket(payload []byte) error {
	if c.send.comp != nil && c.send.compressing {
		compressed, err := c.send.comp.Compress(payload)
		if err != nil {
			return oops.Wrapf(err, "compressing outbound packet")
		}
		payload = compressed
	}

	blockSize := 8
	if c.send.cipher != nil && c.send.cipher.BlockSize() > blockSize {
		blockSize = c.send.cipher.BlockSize()
	}

	padLen := blockSize - (5+len(payload))%blockSize
	if padLen < minPadding {
		padLen += blockSize
	}
	packetLen := 1 + len(payload) + padLen
	total := 4 + packetLen

	macSize := 0
	if c.send.mac != nil {
		macSize = c.send.mac.Size()
	}
	if cap(c.send.buf) < total+macSize {
		c.send.buf = make([]byte, 0, total+macSize)
	}
	buf := c.send.buf[:total]
	binary.BigEndian.PutUint32(buf[:4], uint32(packetLen))
	buf[4] = byte(padLen)
	copy(buf[5:], payload)
	if _, err := io.ReadFull(c.rnd, buf[total-padLen:total]); err != nil {
		return oops.Wrapf(err, "generating packet padding")
	}

	if c.send.mac != nil {
		buf = c.send.mac.Compute(buf, c.send.seq, buf[:total])
	}
	if c.send.cipher != nil {
		c.send.cipher.Transform(buf[:total], buf[:total])
	}
	c.send.seq++ // wraps modulo 2^32

	if _, err := c.w.Write(buf); err != nil {
		return oops.Wrapf(err, "writing packet")
	}
	return nil
}

// ReceivePacket blocks until one complete packet has been read, verifies
// and decodes it, copies the plaintext payload into buf, and returns the
// payload length. Only the receive goroutine may call it.
func (c *Conn) ReceivePacket(buf []byte) (int, error) {
	blockSize := 8
	if c.recv.cipher != nil && c.recv.cipher.BlockSize() > blockSize {
		blockSize = c.recv.cipher.BlockSize()
	}

	packet := c.recv.buf
	if _, err := io.ReadFull(c.r, packet[:blockSize]); err != nil {
		return 0, oops.Wrapf(ErrTruncated, "reading packet header: %s", err.Error())
	}
	if c.recv.cipher != nil {
		c.recv.cipher.Transform(packet[:blockSize], packet[:blockSize])
	}

	packetLen := int(binary.BigEndian.Uint32(packet[:4]))
	if packetLen < 5 || packetLen > MaxPacketSize {
		return 0, oops.Wrapf(ErrFraming, "illegal packet length %d", packetLen)
	}
	total := 4 + packetLen
	if total%blockSize != 0 {
		return 0, oops.Wrapf(ErrFraming, "packet length %d not aligned to cipher block size %d", packetLen, blockSize)
	}

	if rest := total - blockSize; rest > 0 {
		if _, err := io.ReadFull(c.r, packet[blockSize:total]); err != nil {
			return 0, oops.Wrapf(ErrTruncated, "reading packet body: %s", err.Error())
		}
		if c.recv.cipher != nil {
			c.recv.cipher.Transform(packet[blockSize:total], packet[blockSize:total])
		}
	}

	if c.recv.mac != nil {
		tagSize := c.recv.mac.Size()
		if cap(c.recv.tag) < tagSize {
			c.recv.tag = make([]byte, tagSize)
		}
		wireTag := c.recv.tag[:tagSize]
		if _, err := io.ReadFull(c.r, wireTag); err != nil {
			return 0, oops.Wrapf(ErrTruncated, "reading packet MAC: %s", err.Error())
		}
		computed := c.recv.mac.Compute(nil, c.recv.seq, packet[:total])
		if !hmac.Equal(wireTag, computed) {
			return 0, ErrMacMismatch
		}
	}
	c.recv.seq++ // wraps modulo 2^32

	padLen := int(packet[4])
	if padLen < minPadding || padLen >= packetLen {
		return 0, oops.Wrapf(ErrFraming, "illegal padding length %d", padLen)
	}
	payload := packet[5 : 5+packetLen-1-padLen]

	if c.recv.decomp != nil && c.recv.decompressing {
		expanded, err := c.recv.decomp.Uncompress(payload)
		if err != nil {
			return 0, oops.Wrapf(ErrFraming, "decompressing packet: %s", err.Error())
		}
		payload = expanded
	}
	if len(payload) > len(buf) {
		return 0, oops.Wrapf(ErrFraming, "payload of %d bytes exceeds receive buffer", len(payload))
	}
	return copy(buf, payload), nil
}

// PacketOverheadEstimate returns an upper bound on the bytes the codec adds
// around a payload; the channel layer uses it to size flow-control windows.
func (c *Conn) PacketOverheadEstimate() int {
	blockSize := 8
	if c.send.cipher != nil && c.send.cipher.BlockSize() > blockSize {
		blockSize = c.send.cipher.BlockSize()
	}
	macSize := 0
	if c.send.mac != nil {
		macSize = c.send.mac.Size()
	}
	// length + padding-length fields, worst-case padding, MAC tag.
	return 5 + 2*blockSize + macSize
}

// SetSendCipher installs a new cipher and MAC on the send half. Called by
// the transport when the engine delivers client-to-server keys.
func (c *Conn) SetSendCipher(bc sshcrypto.BlockCipher, mac sshcrypto.MAC) {
	c.send.cipher = bc
	c.send.mac = mac
}

// SetRecvCipher installs a new cipher and MAC on the receive half.
func (c *Conn) SetRecvCipher(bc sshcrypto.BlockCipher, mac sshcrypto.MAC) {
	c.recv.cipher = bc
	c.recv.mac = mac
}

// SetSendCompressor installs the outbound compressor. Non-delayed methods
// take effect immediately; zlib@openssh.com stays inert until
// StartCompression.
func (c *Conn) SetSendCompressor(comp sshcrypto.Compressor) {
	c.send.comp = comp
	c.send.compressing = comp != nil && !comp.Delayed()
}

// SetRecvCompressor installs the inbound decompressor, with the same
// delayed-activation rule as SetSendCompressor.
func (c *Conn) SetRecvCompressor(decomp sshcrypto.Decompressor) {
	c.recv.decomp = decomp
	c.recv.decompressing = decomp != nil && !decomp.Delayed()
}

// StartCompression activates delayed compression in both directions; the
// transport calls it when SSH_MSG_USERAUTH_SUCCESS arrives.
func (c *Conn) StartCompression() {
	if c.send.comp != nil {
		c.send.compressing = true
	}
	if c.recv.decomp != nil {
		c.recv.decompressing = true
	}
}

// ResetSendSeq zeroes the send sequence number. Only the strict-kex
// countermeasure may do this, at the instant new send keys take effect.
func (c *Conn) ResetSendSeq() {
	c.send.seq = 0
}

// ResetRecvSeq zeroes the receive sequence number; same constraint as
// ResetSendSeq.
func (c *Conn) ResetRecvSeq() {
	c.recv.seq = 0
}

// SendSeq exposes the send sequence number for tests.
func (c *Conn) SendSeq() uint32 {
	return c.send.seq
}

// RecvSeq exposes the receive sequence number for tests.
func (c *Conn) RecvSeq() uint32 {
	return c.recv.seq
}
