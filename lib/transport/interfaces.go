package transport

import (
	"io"
	"net"
	"time"

	"github.com/go-i2p/go-ssh2/lib/config"
	"github.com/go-i2p/go-ssh2/lib/sshcrypto"
)

// MessageHandler consumes inbound packets for a registered type range.
// Implementations are invoked only from the receive goroutine, so each
// handler sees packets in on-wire order. The payload slice is the receive
// loop's reusable buffer: handlers that retain data past the call must
// copy. A nil payload with length 0 is the terminal goodbye delivered
// exactly once when the transport closes; after it, no further invocations
// happen.
type MessageHandler interface {
	HandleMessage(payload []byte, length int) error
}

// ConnectionMonitor is notified exactly once when the transport goes down.
// cause is nil for an application-initiated close without error.
type ConnectionMonitor interface {
	ConnectionLost(cause error)
}

// ProxyData supplies an already-connected socket, bypassing the transport's
// own resolution and connect logic.
type ProxyData interface {
	OpenConnection(host string, port int, timeout time.Duration) (net.Conn, error)
}

// ServerHostKeyVerifier decides whether a host key presented during KEX is
// acceptable for the target host. Returning false aborts the exchange.
type ServerHostKeyVerifier interface {
	VerifyServerHostKey(hostname string, port int, keyAlgorithm string, key []byte) (bool, error)
}

// ConnectionInfo describes the outcome of one completed key exchange.
type ConnectionInfo struct {
	KexAlgorithm string

	ClientToServerCipher string
	ServerToClientCipher string
	ClientToServerMAC    string
	ServerToClientMAC    string

	ClientToServerCompression string
	ServerToClientCompression string

	ServerHostKeyAlgorithm string
	ServerHostKey          []byte

	// KexCount is the 1-indexed number of this exchange on the connection.
	KexCount int
}

// KexEngine drives the key-exchange sub-protocol. The transport forwards it
// every KEXINIT, NEWKEYS, and algorithm-specific (30..49) packet; the engine
// sends its own packets through the KexTransport it was constructed with and
// installs the derived keys via the Change* hooks there.
type KexEngine interface {
	// Initiate starts the initial key exchange or a rekey. Idempotent while
	// an exchange is already running.
	Initiate(cwl *config.CryptoWishList, dhgex *config.DHGexParameters) error

	// HandleMessage processes one KEX packet. A nil payload means the
	// transport is closing; the engine must release any goroutine blocked
	// in GetOrWaitForConnectionInfo.
	HandleMessage(payload []byte, length int) error

	// IsStrictKex reports whether both sides advertised the
	// kex-strict-{c,s}-v00@openssh.com tokens in their KEXINIT.
	IsStrictKex() bool

	// SessionID returns the exchange hash of the first key exchange. It is
	// stable for the life of the connection.
	SessionID() []byte

	// GetOrWaitForConnectionInfo blocks until the kexNumber-th (1-indexed)
	// exchange has completed and returns its negotiated algorithms.
	GetOrWaitForConnectionInfo(kexNumber int) (*ConnectionInfo, error)
}

// KexTransport is the narrow surface of the Transport handed to the KEX
// engine at construction, breaking the Transport-KexEngine reference cycle.
// SendKexMessage marks the connection as rekeying and transmits under the
// connection semaphore; KexFinished releases application senders again.
type KexTransport interface {
	SendKexMessage(payload []byte) error
	KexFinished()

	ChangeSendCipher(bc sshcrypto.BlockCipher, mac sshcrypto.MAC)
	ChangeRecvCipher(bc sshcrypto.BlockCipher, mac sshcrypto.MAC)
	ChangeSendCompression(comp sshcrypto.Compressor)
	ChangeRecvCompression(decomp sshcrypto.Decompressor)
}

// KexEngineFactory constructs the engine for one connection. hello carries
// the verbatim version banners (mandatory KEX hash inputs), rnd the
// randomness source for exponents and cookies.
type KexEngineFactory func(kt KexTransport, hello *ClientServerHello, hostname string, port int,
	verifier ServerHostKeyVerifier, rnd io.Reader) KexEngine
