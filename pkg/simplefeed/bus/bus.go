// Package bus fans push events out to live subscribers within one process.
//
// Delivery is best-effort and at-most-once: a subscriber that is absent at
// publish time never sees the event, and a failed send is logged and skipped.
package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tendant/simple-feed/pkg/simplefeed"
)

var (
	// ErrSubscriberClosed is returned by Send after the subscriber has shut down
	ErrSubscriberClosed = errors.New("subscriber closed")

	// ErrSubscriberBusy is returned by Send when the outbound queue is full
	ErrSubscriberBusy = errors.New("subscriber queue full")
)

// Subscriber is one live connection. Send must not block on the network;
// implementations queue the event and write it elsewhere.
type Subscriber interface {
	ID() string
	Send(event simplefeed.Event) error
}

// FrameSubscriber is a Subscriber that writes the wire encoding of events.
// Publish encodes each event once and hands the same bytes to every
// FrameSubscriber, so the JSON work does not grow with the audience.
type FrameSubscriber interface {
	Subscriber
	SendFrame(frame []byte) error
}

// Bus tracks the active subscribers and publishes events to them.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	logger      *slog.Logger
}

// New creates an empty bus. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string]Subscriber),
		logger:      logger,
	}
}

var _ simplefeed.Publisher = (*Bus)(nil)

// Register adds sub to the active set. Registering the same id twice is a no-op.
func (b *Bus) Register(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[sub.ID()]; exists {
		return
	}
	b.subscribers[sub.ID()] = sub
	b.logger.Info("Subscriber registered", "subscriber_id", sub.ID(), "active", len(b.subscribers))
}

// Unregister removes sub. Unknown subscribers are ignored.
func (b *Bus) Unregister(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[sub.ID()]; !exists {
		return
	}
	delete(b.subscribers, sub.ID())
	b.logger.Info("Subscriber unregistered", "subscriber_id", sub.ID(), "active", len(b.subscribers))
}

// Len returns the number of active subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subscribers)
}

// Publish sends event to every subscriber registered at the time of the call.
// Failures are logged per subscriber and never returned.
func (b *Bus) Publish(ctx context.Context, event simplefeed.Event) {
	subs := b.snapshot()
	frame := &lazyFrame{event: event}

	delivered := 0
	for _, sub := range subs {
		if err := b.deliver(sub, event, frame); err != nil {
			b.logger.WarnContext(ctx, "Event delivery failed",
				"subscriber_id", sub.ID(),
				"event", event.Kind(),
				"error", err)
			continue
		}
		delivered++
	}

	b.logger.DebugContext(ctx, "Event published", "event", event.Kind(), "delivered", delivered, "subscribers", len(subs))
}

func (b *Bus) snapshot() []Subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := make([]Subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subs = append(subs, sub)
	}
	return subs
}

func (b *Bus) deliver(sub Subscriber, event simplefeed.Event, frame *lazyFrame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panicked: %v", r)
		}
	}()
	if fs, ok := sub.(FrameSubscriber); ok {
		data, err := frame.bytes()
		if err != nil {
			return err
		}
		return fs.SendFrame(data)
	}
	return sub.Send(event)
}

// lazyFrame encodes its event on first use. Publish runs on one goroutine,
// so no locking is needed.
type lazyFrame struct {
	event simplefeed.Event
	data  []byte
	err   error
	done  bool
}

func (f *lazyFrame) bytes() ([]byte, error) {
	if !f.done {
		f.data, f.err = simplefeed.EncodeEvent(f.event)
		f.done = true
	}
	return f.data, f.err
}
