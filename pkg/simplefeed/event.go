package simplefeed

import (
	"encoding/json"
	"fmt"
)

// EventKind identifies the variant of a push event
type EventKind string

const (
	// EventNewPost is published once for every created post
	EventNewPost EventKind = "NEW_POST"
)

// Event is a push notification delivered to live subscribers.
// The set of variants is closed; see DecodeEvent for the wire form.
type Event interface {
	Kind() EventKind
	isEvent()
}

// NewPostEvent announces a freshly created post.
type NewPostEvent struct {
	Post *Post
}

func (NewPostEvent) Kind() EventKind { return EventNewPost }
func (NewPostEvent) isEvent()        {}

// MarshalJSON encodes the envelope as {"type":"NEW_POST","post":{...}}.
func (e NewPostEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type EventKind `json:"type"`
		Post *Post     `json:"post"`
	}{Type: EventNewPost, Post: e.Post})
}

// EncodeEvent returns the wire form of an event.
func EncodeEvent(e Event) ([]byte, error) {
	switch ev := e.(type) {
	case NewPostEvent:
		return json.Marshal(ev)
	case *NewPostEvent:
		return json.Marshal(*ev)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, e)
	}
}

// DecodeEvent parses the wire form produced by EncodeEvent.
func DecodeEvent(data []byte) (Event, error) {
	var envelope struct {
		Type EventKind       `json:"type"`
		Post json.RawMessage `json:"post"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	switch envelope.Type {
	case EventNewPost:
		var post Post
		if err := json.Unmarshal(envelope.Post, &post); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", envelope.Type, err)
		}
		return NewPostEvent{Post: &post}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, envelope.Type)
	}
}
