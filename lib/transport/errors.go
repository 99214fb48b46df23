package transport

import (
	"fmt"

	"github.com/samber/oops"
)

var (
	// ErrConnectionClosed is returned by every send path after the
	// transport has closed. The original close cause is attached as
	// wrapping context where one is known.
	ErrConnectionClosed = oops.New("ssh transport connection is closed")

	// ErrReentrantSend is a programmer error: Send was invoked from the
	// receive goroutine, which would deadlock the dispatcher.
	ErrReentrantSend = oops.New("Send may never be invoked from the receive goroutine")

	// ErrPeerFlooding is returned by SendAsynchronousMessage when the peer
	// forces replies faster than it reads them and the bounded queue is
	// full.
	ErrPeerFlooding = oops.New("peer is not consuming our asynchronous replies")

	// ErrStrictKexViolation is raised when kex-strict is negotiated and the
	// peer sends any non-KEX packet before the first key exchange finishes
	// (CVE-2023-48795 countermeasure).
	ErrStrictKexViolation = oops.New("unexpected packet received when kex-strict enabled")

	// ErrPeerUnimplemented is raised when the peer answers one of our
	// packets with SSH_MSG_UNIMPLEMENTED.
	ErrPeerUnimplemented = oops.New("peer sent UNIMPLEMENTED message")

	// ErrUnexpectedMessage is raised when no registered handler range
	// covers an inbound message type.
	ErrUnexpectedMessage = oops.New("unexpected SSH message")

	// ErrNoBanner is raised when the peer closes or floods the line before
	// sending an SSH identification banner.
	ErrNoBanner = oops.New("no SSH identification banner received")

	// ErrUnsupportedVersion is raised when the peer is not an SSH-2 (or
	// 1.99 compatibility) server.
	ErrUnsupportedVersion = oops.New("server protocol version not supported")

	// Codec failures; each one is fatal for the connection.
	ErrFraming     = oops.New("malformed SSH packet framing")
	ErrMacMismatch = oops.New("packet MAC verification failed")
	ErrTruncated   = oops.New("connection closed mid-packet")
)

// PeerDisconnectError reports an SSH_MSG_DISCONNECT received from the peer.
// The description has already been sanitized to printable US-ASCII.
type PeerDisconnectError struct {
	Code   uint32
	Reason string
}

func (e *PeerDisconnectError) Error() string {
	return fmt.Sprintf("peer sent DISCONNECT message (reason code %d): %s", e.Code, e.Reason)
}

// closedErr attaches the recorded close cause to ErrConnectionClosed so
// callers see why the connection went away, while errors.Is still matches
// the sentinel.
func closedErr(cause error) error {
	if cause == nil {
		return ErrConnectionClosed
	}
	return oops.Wrapf(ErrConnectionClosed, "closed because: %s", cause.Error())
}
