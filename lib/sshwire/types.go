package sshwire

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/samber/oops"
)

var (
	// ErrShortPacket is returned when a payload ends before the field being
	// decoded is complete.
	ErrShortPacket = oops.New("ssh packet payload truncated")
)

// Reader decodes RFC 4251 primitive types from a packet payload. It never
// copies the underlying slice; string reads alias the payload, so callers
// that retain them must copy first.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader over payload[:length].
func NewReader(payload []byte, length int) *Reader {
	return &Reader{buf: payload[:length]}
}

// Remaining returns the number of undecoded bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// ReadByte decodes a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.Remaining() < 1 {
		return 0, ErrShortPacket
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// ReadBoolean decodes a boolean; any non-zero byte is true (RFC 4251 §5).
func (r *Reader) ReadBoolean() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// ReadUint32 decodes a big-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, ErrShortPacket
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

// ReadString decodes a length-prefixed byte string.
func (r *Reader) ReadString() ([]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if uint32(r.Remaining()) < n {
		return nil, ErrShortPacket
	}
	s := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return s, nil
}

// ReadNameList decodes a comma-separated name-list (RFC 4251 §5).
func (r *Reader) ReadNameList() ([]string, error) {
	s, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return nil, nil
	}
	return strings.Split(string(s), ","), nil
}

// Writer builds a packet payload out of RFC 4251 primitive types.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty payload builder.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteByte appends a single byte. The error is always nil; the signature
// satisfies io.ByteWriter.
func (w *Writer) WriteByte(b byte) error {
	return w.buf.WriteByte(b)
}

// WriteBoolean appends a boolean.
func (w *Writer) WriteBoolean(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// WriteUint32 appends a big-endian uint32.
func (w *Writer) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf.Write(tmp[:])
}

// WriteString appends a length-prefixed byte string.
func (w *Writer) WriteString(s []byte) {
	w.WriteUint32(uint32(len(s)))
	w.buf.Write(s)
}

// WriteNameList appends a comma-separated name-list.
func (w *Writer) WriteNameList(names []string) {
	w.WriteString([]byte(strings.Join(names, ",")))
}

// Bytes returns the accumulated payload.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}
