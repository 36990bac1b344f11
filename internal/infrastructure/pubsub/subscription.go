package pubsub

import (
	"fmt"

	"github.com/Kenbak/zipher/internal/core/ports"
	"github.com/google/uuid"
)

// AnyTopic subscribes to every sync event.
const AnyTopic = "*"

// DefaultBufferSize ...
const DefaultBufferSize = 64

type Subscription struct {
	ID     string
	Event  string
	events chan ports.SyncEvent
}

func NewSubscription(event string, bufferSize int) (*Subscription, error) {
	if len(event) <= 0 {
		return nil, fmt.Errorf("missing event")
	}
	if event != AnyTopic {
		if _, ok := ports.SyncEventTypeFromString(event); !ok {
			return nil, fmt.Errorf("unknown event %s", event)
		}
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	id := uuid.New().String()
	return &Subscription{id, event, make(chan ports.SyncEvent, bufferSize)}, nil
}

func (s *Subscription) Topic() string {
	return s.Event
}

func (s *Subscription) Id() string {
	return s.ID
}

// Events returns the channel the subscribed events are delivered to. It's
// closed once the subscription is removed.
func (s *Subscription) Events() <-chan ports.SyncEvent {
	return s.events
}

func (s *Subscription) matches(event ports.SyncEvent) bool {
	return s.Event == AnyTopic || s.Event == event.Type.String()
}
