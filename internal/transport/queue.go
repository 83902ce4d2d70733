package transport

import (
	"net"
	"os"
	"sync"
	"time"
)

// datagramQueue buffers inbound messages for a callback-driven backend and
// serves them through blocking, deadline-aware reads. When the buffer is full
// new messages are dropped, matching what a kernel socket buffer does.
type datagramQueue struct {
	msgs   chan []byte
	wake   chan struct{}
	closed chan struct{}
	once   sync.Once

	mu       sync.Mutex
	deadline time.Time
}

func newDatagramQueue(capacity int) *datagramQueue {
	return &datagramQueue{
		msgs:   make(chan []byte, capacity),
		wake:   make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

// push enqueues a copy of data. Returns false when the message was dropped.
func (q *datagramQueue) push(data []byte) bool {
	msg := make([]byte, len(data))
	copy(msg, data)

	select {
	case <-q.closed:
		return false
	default:
	}

	select {
	case q.msgs <- msg:
		return true
	default:
		return false
	}
}

// setDeadline changes the deadline and wakes a blocked read so it re-arms.
func (q *datagramQueue) setDeadline(t time.Time) {
	q.mu.Lock()
	q.deadline = t
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// read copies the next message into buf. It fails with os.ErrDeadlineExceeded
// when the deadline passes and net.ErrClosed once the queue is closed.
func (q *datagramQueue) read(buf []byte) (int, error) {
	for {
		q.mu.Lock()
		deadline := q.deadline
		q.mu.Unlock()

		var expired <-chan time.Time
		var timer *time.Timer
		if !deadline.IsZero() {
			d := time.Until(deadline)
			if d <= 0 {
				// Drain what is already queued before reporting a timeout.
				select {
				case msg := <-q.msgs:
					return copy(buf, msg), nil
				default:
					return 0, os.ErrDeadlineExceeded
				}
			}
			timer = time.NewTimer(d)
			expired = timer.C
		}

		select {
		case msg := <-q.msgs:
			stopTimer(timer)
			return copy(buf, msg), nil
		case <-expired:
			return 0, os.ErrDeadlineExceeded
		case <-q.wake:
			stopTimer(timer)
		case <-q.closed:
			stopTimer(timer)
			return 0, net.ErrClosed
		}
	}
}

func (q *datagramQueue) close() {
	q.once.Do(func() { close(q.closed) })
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
