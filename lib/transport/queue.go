package transport

import (
	"sync"
	"time"

	"github.com/go-i2p/logger"
)

const (
	// asyncQueueCapacity bounds the asynchronous reply queue. The peer can
	// force replies (global requests and similar) without ever reading our
	// side of the connection; past this limit we refuse rather than grow.
	asyncQueueCapacity = 100

	// asyncWorkerIdleTimeout is how long the background worker waits on an
	// empty queue before exiting. A later enqueue spawns a fresh one.
	asyncWorkerIdleTimeout = 2 * time.Second
)

// asyncSendQueue decouples replies the transport owes the peer from any
// application sender. A transient worker goroutine drains the queue through
// the given send function and terminates voluntarily after the idle
// timeout.
type asyncSendQueue struct {
	send func(payload []byte) error

	mu      sync.Mutex
	queue   chan []byte
	running bool
}

func newAsyncSendQueue(send func(payload []byte) error) *asyncSendQueue {
	return &asyncSendQueue{
		send:  send,
		queue: make(chan []byte, asyncQueueCapacity),
	}
}

// enqueue appends one payload and makes sure a worker exists. It fails with
// ErrPeerFlooding when the queue is already at capacity.
func (q *asyncSendQueue) enqueue(payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case q.queue <- payload:
	default:
		return ErrPeerFlooding
	}

	if !q.running {
		q.running = true
		go q.worker()
	}
	return nil
}

// worker drains the queue. A send error ends the worker silently: the next
// foreground send will observe the same failure and drive the close, and no
// other goroutine could transmit the remaining entries anyway.
func (q *asyncSendQueue) worker() {
	for {
		select {
		case payload := <-q.queue:
			if err := q.send(payload); err != nil {
				log.WithError(err).WithFields(logger.Fields{
					"at": "transport.asyncSendQueue.worker",
				}).Debug("asynchronous send failed, worker exiting")
				return
			}
		case <-time.After(asyncWorkerIdleTimeout):
			q.mu.Lock()
			if len(q.queue) == 0 {
				q.running = false
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()
		}
	}
}
