package sshcrypto

import (
	"bytes"
	"compress/zlib"
	"errors"
	"io"

	"github.com/samber/oops"
)

var ErrUnknownCompression = oops.New("unknown compression algorithm")

// Compression method names from RFC 4253 and the OpenSSH delayed variant.
const (
	CompressionNone        = "none"
	CompressionZlib        = "zlib"
	CompressionZlibDelayed = "zlib@openssh.com"
)

// Compressor deflates outbound payloads. Delayed reports whether the method
// only becomes active after user authentication (zlib@openssh.com); the
// codec keeps the compressor installed but inert until StartCompression.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Delayed() bool
}

// Decompressor inflates inbound payloads; Delayed mirrors Compressor.
type Decompressor interface {
	Uncompress(data []byte) ([]byte, error)
	Delayed() bool
}

// NewCompressor constructs the named compressor, or nil for "none".
func NewCompressor(name string) (Compressor, error) {
	switch name {
	case CompressionNone:
		return nil, nil
	case CompressionZlib:
		return newZlibCompressor(false), nil
	case CompressionZlibDelayed:
		return newZlibCompressor(true), nil
	}
	return nil, oops.Wrapf(ErrUnknownCompression, "%s", name)
}

// NewDecompressor constructs the named decompressor, or nil for "none".
func NewDecompressor(name string) (Decompressor, error) {
	switch name {
	case CompressionNone:
		return nil, nil
	case CompressionZlib:
		return &zlibDecompressor{}, nil
	case CompressionZlibDelayed:
		return &zlibDecompressor{delayed: true}, nil
	}
	return nil, oops.Wrapf(ErrUnknownCompression, "%s", name)
}

type zlibCompressor struct {
	writer      *zlib.Writer
	writeBuffer bytes.Buffer
	delayed     bool
}

func newZlibCompressor(delayed bool) *zlibCompressor {
	c := &zlibCompressor{delayed: delayed}
	c.writer = zlib.NewWriter(&c.writeBuffer)
	return c
}

func (c *zlibCompressor) Compress(data []byte) ([]byte, error) {
	c.writeBuffer.Reset()
	c.writer.Reset(&c.writeBuffer)
	if _, err := c.writer.Write(data); err != nil {
		return nil, err
	}
	if err := c.writer.Flush(); err != nil {
		return nil, err
	}
	out := make([]byte, c.writeBuffer.Len())
	copy(out, c.writeBuffer.Bytes())
	return out, nil
}

func (c *zlibCompressor) Delayed() bool {
	return c.delayed
}

type zlibDecompressor struct {
	delayed bool
}

func (d *zlibDecompressor) Uncompress(data []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	_, err = io.Copy(&out, reader)
	reader.Close()
	// The sender flushes without terminating the stream, so hitting the end
	// of the packet mid-stream is the expected way for a packet to end.
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return out.Bytes(), nil
}

func (d *zlibDecompressor) Delayed() bool {
	return d.delayed
}
