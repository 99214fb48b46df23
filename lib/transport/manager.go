package transport

import (
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"

	"github.com/go-i2p/go-ssh2/lib/config"
	"github.com/go-i2p/go-ssh2/lib/sshcrypto"
	"github.com/go-i2p/go-ssh2/lib/sshwire"
)

// Compile-time check that the Transport satisfies the surface handed to the
// KEX engine.
var _ KexTransport = (*Transport)(nil)

// Transport owns one SSH-2 connection: the socket, the packet codec, the
// KEX engine, the handler registrations, and the close lifecycle. See the
// package comment for the goroutine model.
type Transport struct {
	hostname string
	port     int

	sock  net.Conn
	conn  *Conn
	hello *ClientServerHello
	kex   KexEngine

	// The connection semaphore: one mutex plus condition guarding closed,
	// kexOngoing, and exclusive use of the codec's send half.
	mu           sync.Mutex
	cond         *sync.Cond
	kexOngoing   bool
	closed       bool
	reasonClosed error

	// Latches true when the first key exchange completes; read by the
	// receive goroutine for the strict-kex gate.
	firstKexFinished atomic.Bool

	// Goroutine id of the receive loop, for the reentrancy assertion in
	// Send.
	recvGoroutine atomic.Uint64

	router messageRouter
	queue  *asyncSendQueue

	monitorsMu       sync.Mutex
	monitors         []ConnectionMonitor
	monitorsNotified bool

	extInfo atomic.Pointer[sshwire.ExtensionInfo]
}

// NewTransport prepares a transport for the given target. Nothing touches
// the network until Initialize.
func NewTransport(hostname string, port int) *Transport {
	t := &Transport{
		hostname: hostname,
		port:     port,
	}
	t.cond = sync.NewCond(&t.mu)
	t.queue = newAsyncSendQueue(t.Send)
	t.extInfo.Store(sshwire.NoExtInfoSeen())
	return t
}

// Initialize opens the TCP connection (honoring the IP version preference,
// or delegating to proxy when one is configured), performs the version
// exchange, constructs the codec and the KEX engine, starts the initial key
// exchange, and launches the receive goroutine.
func (t *Transport) Initialize(cwl *config.CryptoWishList, verifier ServerHostKeyVerifier,
	dhgex *config.DHGexParameters, connectTimeout time.Duration, ipVersion config.IPVersion,
	rnd io.Reader, proxy ProxyData, newEngine KexEngineFactory) error {

	sock, err := t.establishConnection(proxy, connectTimeout, ipVersion)
	if err != nil {
		return err
	}
	t.sock = sock

	// The banners are mandatory KEX hash inputs; keep them verbatim.
	hello, err := ExchangeVersions(sock, sock, ClientVersion)
	if err != nil {
		sock.Close()
		return err
	}
	t.hello = hello

	t.conn = NewConn(sock, sock, rnd)
	t.kex = newEngine(t, hello, t.hostname, t.port, verifier, rnd)

	if err := t.kex.Initiate(cwl, dhgex); err != nil {
		sock.Close()
		return err
	}

	go t.runReceiveLoop()

	log.WithFields(logger.Fields{
		"at":   "transport.Transport.Initialize",
		"host": t.hostname,
		"port": t.port,
	}).Debug("transport initialized")
	return nil
}

func (t *Transport) establishConnection(proxy ProxyData, connectTimeout time.Duration,
	ipVersion config.IPVersion) (net.Conn, error) {
	if proxy != nil {
		sock, err := proxy.OpenConnection(t.hostname, t.port, connectTimeout)
		if err != nil {
			return nil, oops.Wrapf(err, "proxy connection to %s:%d", t.hostname, t.port)
		}
		return sock, nil
	}
	return connectDirect(t.hostname, t.port, connectTimeout, ipVersion)
}

func connectDirect(hostname string, port int, connectTimeout time.Duration,
	ipVersion config.IPVersion) (net.Conn, error) {
	target := net.JoinHostPort(hostname, strconv.Itoa(port))

	if ipVersion == config.IPv4AndIPv6 {
		sock, err := net.DialTimeout("tcp", target, connectTimeout)
		if err != nil {
			return nil, oops.Wrapf(err, "connecting to %s", target)
		}
		return sock, nil
	}

	addrs, err := net.LookupIP(hostname)
	if err != nil {
		return nil, oops.Wrapf(err, "resolving %s", hostname)
	}
	var addr net.IP
	for _, a := range addrs {
		if (ipVersion == config.IPv4Only) == (a.To4() != nil) {
			addr = a
			break
		}
	}
	if addr == nil {
		return nil, oops.Errorf("no %s address for %s", ipVersion, hostname)
	}
	sock, err := net.DialTimeout("tcp", net.JoinHostPort(addr.String(), strconv.Itoa(port)), connectTimeout)
	if err != nil {
		return nil, oops.Wrapf(err, "connecting to %s", addr)
	}
	return sock, nil
}

// Send transmits one application packet. It blocks while a key exchange is
// in progress and fails once the transport is closed. It must never be
// called from the receive goroutine: handlers that need to reply use
// SendAsynchronousMessage instead.
func (t *Transport) Send(payload []byte) error {
	if t.recvGoroutine.Load() == goroutineID() {
		return ErrReentrantSend
	}

	t.mu.Lock()
	for {
		if t.closed {
			cause := t.reasonClosed
			t.mu.Unlock()
			return closedErr(cause)
		}
		if !t.kexOngoing {
			break
		}
		t.cond.Wait()
	}
	err := t.conn.SendPacket(payload)
	t.mu.Unlock()

	if err != nil {
		t.Close(err, false)
		return err
	}
	return nil
}

// SendKexMessage is the KEX-privileged send path. It raises the kexOngoing
// flag and transmits under the same critical section, which is what orders
// application packets strictly before the KEXINIT of the next exchange.
func (t *Transport) SendKexMessage(payload []byte) error {
	t.mu.Lock()
	if t.closed {
		cause := t.reasonClosed
		t.mu.Unlock()
		return closedErr(cause)
	}
	t.kexOngoing = true
	err := t.conn.SendPacket(payload)
	t.mu.Unlock()

	if err != nil {
		t.Close(err, false)
		return err
	}
	return nil
}

// KexFinished is called by the engine once NEWKEYS has been exchanged in
// both directions. It latches firstKexFinished and releases every
// application sender parked in Send.
func (t *Transport) KexFinished() {
	t.firstKexFinished.Store(true)

	t.mu.Lock()
	t.kexOngoing = false
	t.cond.Broadcast()
	t.mu.Unlock()
}

// SendAsynchronousMessage queues a reply the transport owes the peer
// without blocking the caller. It fails with ErrPeerFlooding when the
// bounded queue is full.
func (t *Transport) SendAsynchronousMessage(payload []byte) error {
	return t.queue.enqueue(payload)
}

// ForceKeyExchange starts a rekey with the given algorithm preferences.
func (t *Transport) ForceKeyExchange(cwl *config.CryptoWishList, dhgex *config.DHGexParameters) error {
	return t.kex.Initiate(cwl, dhgex)
}

// RegisterMessageHandler routes inbound types low..high (inclusive) to the
// handler. Earlier registrations win on overlap.
func (t *Transport) RegisterMessageHandler(h MessageHandler, low, high byte) {
	t.router.register(h, low, high)
}

// RemoveMessageHandler removes the first registration matching handler
// identity and both bounds.
func (t *Transport) RemoveMessageHandler(h MessageHandler, low, high byte) {
	t.router.unregister(h, low, high)
}

// SetConnectionMonitors replaces the observer list. The slice is cloned;
// monitors registered after the transport already closed are not notified.
func (t *Transport) SetConnectionMonitors(monitors []ConnectionMonitor) {
	t.monitorsMu.Lock()
	defer t.monitorsMu.Unlock()
	t.monitors = append([]ConnectionMonitor(nil), monitors...)
}

// PacketOverheadEstimate exposes the codec's per-packet overhead bound.
func (t *Transport) PacketOverheadEstimate() int {
	return t.conn.PacketOverheadEstimate()
}

// ConnectionInfo blocks until the kexNumber-th key exchange has completed
// and returns its outcome.
func (t *Transport) ConnectionInfo(kexNumber int) (*ConnectionInfo, error) {
	return t.kex.GetOrWaitForConnectionInfo(kexNumber)
}

// ExtensionInfo returns the most recent EXT_INFO snapshot from the server,
// or the empty snapshot if none was seen yet.
func (t *Transport) ExtensionInfo() *sshwire.ExtensionInfo {
	return t.extInfo.Load()
}

// SessionIdentifier returns the exchange hash of the first key exchange.
func (t *Transport) SessionIdentifier() []byte {
	return t.kex.SessionID()
}

// ReasonClosedCause returns the error recorded when the transport closed,
// or nil while it is still up (or closed without cause).
func (t *Transport) ReasonClosedCause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reasonClosed
}

// ChangeSendCipher installs new client-to-server keys. When strict-kex was
// negotiated the send sequence number resets at the same instant, per the
// Terrapin countermeasure.
func (t *Transport) ChangeSendCipher(bc sshcrypto.BlockCipher, mac sshcrypto.MAC) {
	t.conn.SetSendCipher(bc, mac)
	if t.kex.IsStrictKex() {
		t.conn.ResetSendSeq()
	}
}

// ChangeRecvCipher installs new server-to-client keys, with the same
// strict-kex sequence reset as ChangeSendCipher.
func (t *Transport) ChangeRecvCipher(bc sshcrypto.BlockCipher, mac sshcrypto.MAC) {
	t.conn.SetRecvCipher(bc, mac)
	if t.kex.IsStrictKex() {
		t.conn.ResetRecvSeq()
	}
}

// ChangeSendCompression installs the outbound compressor.
func (t *Transport) ChangeSendCompression(comp sshcrypto.Compressor) {
	t.conn.SetSendCompressor(comp)
}

// ChangeRecvCompression installs the inbound decompressor.
func (t *Transport) ChangeRecvCompression(decomp sshcrypto.Decompressor) {
	t.conn.SetRecvCompressor(decomp)
}

// StartCompression activates delayed compression; the receive loop calls it
// on SSH_MSG_USERAUTH_SUCCESS.
func (t *Transport) StartCompression() {
	t.conn.StartCompression()
}

// Close shuts the transport down exactly once. With polite=true a
// DISCONNECT packet (reason 11, by-application) is attempted first; a hard
// close shuts the socket immediately so that blocked senders wake with an
// I/O error before the semaphore is taken. Observers are notified exactly
// once, outside any lock, with the recorded cause.
func (t *Transport) Close(cause error, polite bool) {
	if !polite {
		// Hard shutdown: do not take the semaphore first, somebody may be
		// blocked inside waiting for the peer to accept data.
		if t.sock != nil {
			t.sock.Close()
		}
	}

	t.mu.Lock()
	if !t.closed {
		if polite {
			if t.conn != nil {
				description := ""
				if cause != nil {
					description = cause.Error()
				}
				payload := sshwire.BuildDisconnect(sshwire.DisconnectByApplication, description)
				if err := t.conn.SendPacket(payload); err != nil {
					log.WithError(err).WithFields(logger.Fields{
						"at": "transport.Transport.Close",
					}).Debug("could not send DISCONNECT")
				}
			}
			if t.sock != nil {
				t.sock.Close()
			}
		}
		t.closed = true
		t.reasonClosed = cause
	}
	recordedCause := t.reasonClosed
	t.cond.Broadcast()
	t.mu.Unlock()

	t.notifyMonitors(recordedCause)
}

// notifyMonitors performs the one-shot observer notification. The list is
// snapshotted under its own short-lived lock so user code never runs while
// we hold it.
func (t *Transport) notifyMonitors(cause error) {
	t.monitorsMu.Lock()
	var monitors []ConnectionMonitor
	if !t.monitorsNotified {
		t.monitorsNotified = true
		monitors = append([]ConnectionMonitor(nil), t.monitors...)
	}
	t.monitorsMu.Unlock()

	for _, m := range monitors {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(logger.Fields{
						"at":    "transport.Transport.notifyMonitors",
						"panic": r,
					}).Warn("connection monitor panicked")
				}
			}()
			m.ConnectionLost(cause)
		}()
	}
}
