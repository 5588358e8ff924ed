package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-resource-broker/core"
)

// Dispatch is a chooser handed to the external process.
type Dispatch struct {
	CorrelationToken int64
	Target           core.DispatchTarget
	SentAt           time.Time
}

// Dispatcher records every chooser it is given and, when built with an
// outbox, forwards it without blocking. A full outbox fails the dispatch.
type Dispatcher struct {
	mu     sync.Mutex
	sent   []Dispatch
	outbox chan Dispatch
}

func NewDispatcher(outboxSize int) *Dispatcher {
	d := &Dispatcher{}
	if outboxSize > 0 {
		d.outbox = make(chan Dispatch, outboxSize)
	}
	return d
}

func (d *Dispatcher) Dispatch(ctx context.Context, target core.DispatchTarget, correlationToken int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := Dispatch{
		CorrelationToken: correlationToken,
		Target:           target,
		SentAt:           time.Now().UTC(),
	}
	if d.outbox != nil {
		select {
		case d.outbox <- msg:
		default:
			return fmt.Errorf("platform: dispatch outbox is full")
		}
	}
	d.mu.Lock()
	d.sent = append(d.sent, msg)
	d.mu.Unlock()
	return nil
}

// Outbox is nil when the dispatcher was built without one.
func (d *Dispatcher) Outbox() <-chan Dispatch {
	return d.outbox
}

func (d *Dispatcher) Sent() []Dispatch {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Dispatch, len(d.sent))
	copy(out, d.sent)
	return out
}
