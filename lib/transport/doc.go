// Package transport implements the SSH-2 transport layer of RFC 4253 on the
// client side: version exchange, binary packet framing, key-exchange
// sequencing, rekeying, multiplexed message dispatch, and orderly
// disconnect.
//
// One Transport owns one TCP connection. Three kinds of goroutines touch it:
// the single receive goroutine (started by Initialize), any number of
// application goroutines calling Send and the registration methods, and a
// transient background worker draining the asynchronous reply queue. The
// key-exchange engine itself is a collaborator behind the KexEngine
// interface; it calls back into the transport through the narrow
// KexTransport surface to emit its packets and install new keys.
package transport
