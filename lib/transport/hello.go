package transport

import (
	"io"
	"strings"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

// ClientVersion is the identification string this implementation sends.
const ClientVersion = "SSH-2.0-go-ssh2"

// Limits on pre-banner noise. Servers may print arbitrary text lines before
// the banner (RFC 4253 §4.2); a hostile one must not grow our memory.
const (
	maxPreBannerLines = 50
	maxBannerLineLen  = 512
)

// ClientServerHello holds both identification strings verbatim (without
// their line terminators). They are mandatory hash inputs for every key
// exchange and must match the wire bit-exactly.
type ClientServerHello struct {
	clientVersion string
	serverVersion string
}

// ClientString returns our identification string as sent.
func (h *ClientServerHello) ClientString() string {
	return h.clientVersion
}

// ServerString returns the server's identification string as received.
func (h *ClientServerHello) ServerString() string {
	return h.serverVersion
}

// ExchangeVersions writes our banner and reads the server's, skipping any
// non-banner lines that precede it. Only SSH-2.0 and the 1.99 compatibility
// version are accepted.
func ExchangeVersions(r io.Reader, w io.Writer, clientVersion string) (*ClientServerHello, error) {
	if _, err := w.Write([]byte(clientVersion + "\r\n")); err != nil {
		return nil, oops.Wrapf(err, "writing client version")
	}

	serverVersion, err := readBannerLine(r)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(serverVersion, "SSH-1.99-") && !strings.HasPrefix(serverVersion, "SSH-2.0-") {
		return nil, oops.Wrapf(ErrUnsupportedVersion, "server sent %q", serverVersion)
	}

	log.WithFields(logger.Fields{
		"at":             "transport.ExchangeVersions",
		"server_version": serverVersion,
	}).Debug("version exchange complete")

	return &ClientServerHello{
		clientVersion: clientVersion,
		serverVersion: serverVersion,
	}, nil
}

// readBannerLine reads CR-LF (or bare LF) terminated lines until one starts
// with "SSH-". Reads are byte-at-a-time: everything after the banner line
// already belongs to the binary packet protocol and must stay in the stream.
func readBannerLine(r io.Reader) (string, error) {
	var one [1]byte
	for lines := 0; lines < maxPreBannerLines; lines++ {
		var line []byte
		for {
			if _, err := io.ReadFull(r, one[:]); err != nil {
				return "", oops.Wrapf(ErrNoBanner, "read failed: %s", err.Error())
			}
			if one[0] == '\n' {
				break
			}
			if len(line) >= maxBannerLineLen {
				return "", oops.Wrapf(ErrNoBanner, "identification line too long")
			}
			line = append(line, one[0])
		}
		// Tolerate both CR-LF and bare LF terminators.
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		if strings.HasPrefix(string(line), "SSH-") {
			return string(line), nil
		}
	}
	return "", oops.Wrapf(ErrNoBanner, "no banner within %d lines", maxPreBannerLines)
}
