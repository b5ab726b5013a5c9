package intake

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/re-shadow-harness/internal/shadow/protocol"
)

// ErrTimeout is returned when no matching message arrives within the
// receive budget.
var ErrTimeout = errors.New("intake: receive timed out")

// Inbox is an unbounded FIFO of inbound shadow messages.
//
// Push is safe to call from the transport goroutine and never blocks.
// Receive is intended for a single consumer, the test driving the device.
type Inbox struct {
	mu    sync.Mutex
	queue []protocol.Message

	// wake holds at most one pending signal; Push never blocks on it.
	wake chan struct{}
}

// NewInbox returns an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{wake: make(chan struct{}, 1)}
}

// Push appends msg to the queue and wakes a waiting receiver.
func (in *Inbox) Push(msg protocol.Message) {
	in.mu.Lock()
	in.queue = append(in.queue, msg)
	in.mu.Unlock()

	select {
	case in.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of queued messages.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.queue)
}

// Flush discards every queued message and returns how many were dropped.
func (in *Inbox) Flush() int {
	in.mu.Lock()
	n := len(in.queue)
	in.queue = nil
	in.mu.Unlock()

	select {
	case <-in.wake:
	default:
	}
	return n
}

// Receive waits for the next message that passes the filter.
//
// The deadline is fixed once on entry, so every discarded message eats
// into the same budget. Connection-status reports are discarded unless
// IncludeConnection is given.
//
// Returns:
//   - protocol.Message: The first matching message
//   - error: ErrTimeout when the budget runs out, ctx.Err() on cancellation
func (in *Inbox) Receive(ctx context.Context, timeout time.Duration, opts ...ReceiveOption) (protocol.Message, error) {
	var f filter
	for _, opt := range opts {
		opt(&f)
	}

	deadline := time.Now().Add(timeout)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return protocol.Message{}, ErrTimeout
		}

		msg, ok := in.pop()
		if !ok {
			if err := in.wait(ctx, remaining); err != nil {
				return protocol.Message{}, err
			}
			continue
		}

		if f.accepts(msg) {
			return msg, nil
		}
	}
}

func (in *Inbox) pop() (protocol.Message, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if len(in.queue) == 0 {
		return protocol.Message{}, false
	}
	msg := in.queue[0]
	in.queue[0] = protocol.Message{}
	in.queue = in.queue[1:]
	return msg, true
}

// wait blocks until a push, the remaining budget, or ctx ends.
// A budget expiry returns nil so the caller's loop reports ErrTimeout.
func (in *Inbox) wait(ctx context.Context, remaining time.Duration) error {
	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-in.wake:
		return nil
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
