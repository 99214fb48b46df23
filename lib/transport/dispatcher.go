package transport

import (
	"bytes"
	"runtime"
	"strconv"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"

	"github.com/go-i2p/go-ssh2/lib/sshwire"
)

// runReceiveLoop is the body of the receive goroutine. When the loop
// terminates it drives the hard close, releases any goroutine waiting on
// the KEX engine, and delivers the terminal goodbye to every handler.
func (t *Transport) runReceiveLoop() {
	t.recvGoroutine.Store(goroutineID())

	err := t.receiveLoop()
	t.Close(err, false)

	if err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"at": "transport.Transport.runReceiveLoop",
		}).Debug("receive loop terminated")
	}

	if t.kex != nil {
		// nil payload releases waiters inside the engine.
		_ = t.kex.HandleMessage(nil, 0)
	}
	t.router.terminate()
}

// receiveLoop reads and classifies packets until something fatal happens.
// Every inbound packet takes exactly one of these paths: codec error,
// control consumption, KEX forward, handler invocation, or a routing error.
func (t *Transport) receiveLoop() error {
	buf := make([]byte, ReceiveBufferSize)

	for {
		length, err := t.conn.ReceivePacket(buf)
		if err != nil {
			return err
		}
		if length == 0 {
			return oops.Wrapf(ErrFraming, "empty packet payload")
		}
		msgType := buf[0]

		if msgType == sshwire.MsgDisconnect {
			disc, err := sshwire.ParseDisconnect(buf, length)
			if err != nil {
				return err
			}
			return &PeerDisconnectError{Code: disc.ReasonCode, Reason: disc.Description}
		}

		// KEX packets bypass the router and the strict-kex gate.
		if sshwire.IsKexMessage(msgType) {
			if err := t.kex.HandleMessage(buf, length); err != nil {
				return err
			}
			continue
		}

		// With kex-strict negotiated, nothing but KEX traffic may arrive
		// before the first exchange finishes — not even IGNORE or DEBUG.
		if !t.firstKexFinished.Load() && t.kex.IsStrictKex() {
			return oops.Wrapf(ErrStrictKexViolation, "type %d", msgType)
		}

		switch msgType {
		case sshwire.MsgIgnore:
			continue

		case sshwire.MsgDebug:
			text, err := sshwire.ParseDebug(buf, length)
			if err != nil {
				return err
			}
			log.WithFields(logger.Fields{
				"at":      "transport.Transport.receiveLoop",
				"message": text,
			}).Debug("DEBUG message from remote")
			continue

		case sshwire.MsgUnimplemented:
			return ErrPeerUnimplemented

		case sshwire.MsgExtInfo:
			// The server may send EXT_INFO multiple times; only the most
			// recent snapshot is retained.
			info, err := sshwire.ParseExtInfo(buf, length)
			if err != nil {
				return err
			}
			t.extInfo.Store(info)
			continue

		case sshwire.MsgUserauthSuccess:
			// Delayed compression (zlib@openssh.com) starts here, then the
			// packet is routed to the auth layer like any other.
			t.conn.StartCompression()
		}

		if err := t.router.dispatch(msgType, buf, length); err != nil {
			return err
		}
	}
}

// goroutineID extracts the numeric id of the calling goroutine from its
// stack header. Used only for the reentrancy assertion in Send; Go offers
// no cheaper identity.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Header shape: "goroutine 123 [running]:"
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
