package transport

import (
	"sync"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

// handlerEntry binds one MessageHandler to an inclusive message-type range.
// Ranges may overlap; the first entry in registration order wins.
type handlerEntry struct {
	handler MessageHandler
	low     byte
	high    byte
}

// messageRouter owns the ordered handler registrations. All mutation and
// lookup is serialized under mu, but the handler callback itself runs with
// the lock released: handlers are allowed to send, register, and
// unregister.
type messageRouter struct {
	mu      sync.Mutex
	entries []handlerEntry
}

// register appends an entry. Duplicate and overlapping registrations are
// allowed.
func (mr *messageRouter) register(h MessageHandler, low, high byte) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.entries = append(mr.entries, handlerEntry{handler: h, low: low, high: high})
}

// unregister removes the first entry matching handler identity and both
// bounds. Entries registered multiple times need multiple removals.
func (mr *messageRouter) unregister(h MessageHandler, low, high byte) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	for i, e := range mr.entries {
		if e.handler == h && e.low == low && e.high == high {
			mr.entries = append(mr.entries[:i], mr.entries[i+1:]...)
			return
		}
	}
}

// lookup returns the first handler whose range covers msgType, or nil.
func (mr *messageRouter) lookup(msgType byte) MessageHandler {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	for _, e := range mr.entries {
		if e.low <= msgType && msgType <= e.high {
			return e.handler
		}
	}
	return nil
}

// dispatch routes one packet to the first matching handler. An uncovered
// type is a protocol violation and fatal for the connection.
func (mr *messageRouter) dispatch(msgType byte, payload []byte, length int) error {
	h := mr.lookup(msgType)
	if h == nil {
		return oops.Wrapf(ErrUnexpectedMessage, "type %d", msgType)
	}
	return h.HandleMessage(payload, length)
}

// terminate delivers the terminal (nil, 0) goodbye to every registered
// handler exactly once, in registration order. Handler errors are
// swallowed: the connection is already gone.
func (mr *messageRouter) terminate() {
	mr.mu.Lock()
	entries := make([]handlerEntry, len(mr.entries))
	copy(entries, mr.entries)
	mr.mu.Unlock()

	for _, e := range entries {
		if err := e.handler.HandleMessage(nil, 0); err != nil {
			log.WithError(err).WithFields(logger.Fields{
				"at":  "transport.messageRouter.terminate",
				"low": e.low,
			}).Debug("handler goodbye returned error")
		}
	}
}
