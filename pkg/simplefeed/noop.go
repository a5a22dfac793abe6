package simplefeed

import "context"

// NoopPublisher drops every event.
// Useful for tests and for running the feed without push connections.
type NoopPublisher struct{}

// NewNoopPublisher creates a new no-operation publisher
func NewNoopPublisher() Publisher {
	return &NoopPublisher{}
}

// Publish does nothing
func (n *NoopPublisher) Publish(ctx context.Context, event Event) {}
