package pubsub

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Kenbak/zipher/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// Service fans the sync events out to in-process subscribers and sinks.
// Slow subscribers lose events instead of blocking the publisher.
type Service struct {
	lock  sync.RWMutex
	subs  map[string]*Subscription
	sinks []ports.SyncNotifier
}

// NewService returns a pubsub service forwarding every event also to the
// given sinks, whose Publish must not block.
func NewService(sinks ...ports.SyncNotifier) *Service {
	return &Service{
		subs:  make(map[string]*Subscription),
		sinks: sinks,
	}
}

func (ws *Service) Subscribe(topic string, bufferSize int) (*Subscription, error) {
	sub, err := NewSubscription(topic, bufferSize)
	if err != nil {
		return nil, err
	}

	ws.lock.Lock()
	defer ws.lock.Unlock()

	ws.subs[sub.ID] = sub
	return sub, nil
}

func (ws *Service) Unsubscribe(id string) error {
	ws.lock.Lock()
	defer ws.lock.Unlock()

	sub, ok := ws.subs[id]
	if !ok {
		return fmt.Errorf("subscription not found")
	}
	delete(ws.subs, id)
	close(sub.events)
	return nil
}

func (ws *Service) ListSubscriptionsForTopic(topic string) []*Subscription {
	ws.lock.RLock()
	defer ws.lock.RUnlock()

	subs := make([]*Subscription, 0)
	for _, sub := range ws.subs {
		if topic == AnyTopic || sub.Event == topic {
			subs = append(subs, sub)
		}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].ID < subs[j].ID
	})
	return subs
}

func (ws *Service) Publish(event ports.SyncEvent) {
	for _, sink := range ws.sinks {
		sink.Publish(event)
	}

	ws.lock.RLock()
	defer ws.lock.RUnlock()

	for _, sub := range ws.subs {
		if !sub.matches(event) {
			continue
		}
		select {
		case sub.events <- event:
		default:
			log.Debugf(
				"pubsub: dropped %s event for slow subscription %s",
				event.Type, sub.ID,
			)
		}
	}
}

// Close removes all subscriptions.
func (ws *Service) Close() {
	ws.lock.Lock()
	defer ws.lock.Unlock()

	for id, sub := range ws.subs {
		delete(ws.subs, id)
		close(sub.events)
	}
}
