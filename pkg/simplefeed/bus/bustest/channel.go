// Package bustest provides in-process subscribers for tests of code that
// publishes through a bus.Bus.
package bustest

import (
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-feed/pkg/simplefeed"
	"github.com/tendant/simple-feed/pkg/simplefeed/bus"
)

var _ bus.Subscriber = (*ChannelSubscriber)(nil)

// ChannelSubscriber is an in-process subscriber backed by a buffered channel.
type ChannelSubscriber struct {
	id     string
	events chan simplefeed.Event

	mu     sync.RWMutex
	closed bool
}

// NewChannelSubscriber creates a subscriber that buffers up to size events.
func NewChannelSubscriber(size int) *ChannelSubscriber {
	if size < 1 {
		size = 1
	}
	return &ChannelSubscriber{
		id:     uuid.NewString(),
		events: make(chan simplefeed.Event, size),
	}
}

func (c *ChannelSubscriber) ID() string { return c.id }

// Events returns the receive side. It is closed by Close.
func (c *ChannelSubscriber) Events() <-chan simplefeed.Event { return c.events }

func (c *ChannelSubscriber) Send(event simplefeed.Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return bus.ErrSubscriberClosed
	}
	select {
	case c.events <- event:
		return nil
	default:
		return bus.ErrSubscriberBusy
	}
}

// Close stops delivery and closes the events channel. Safe to call twice.
func (c *ChannelSubscriber) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}
