package bus

import (
	"log"
	"sync"
)

// Topic identifies one event category. Every category has its own subscriber
// list; no two topics share handlers.
type Topic string

const (
	TopicStatus      Topic = "status"
	TopicGameflow    Topic = "gameflow"
	TopicChampSelect Topic = "champselect"
	TopicSummoner    Topic = "summoner"
	TopicOverlay     Topic = "overlay"
)

// Handler receives the payload published on a topic. Handlers run
// synchronously on the publisher's goroutine, in registration order.
type Handler func(payload any)

type subscription struct {
	id int
	fn Handler
}

// Bus is a topic-keyed fan-out dispatcher. There is no queuing or replay:
// a handler registered after a publish never sees that past event.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[Topic][]subscription
}

func New() *Bus {
	return &Bus{
		subs: make(map[Topic][]subscription),
	}
}

// Subscribe registers fn on topic and returns an unsubscribe func. The
// returned func is idempotent.
func (b *Bus) Subscribe(topic Topic, fn Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[topic] = append(b.subs[topic], subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[topic]
		for i, sub := range list {
			if sub.id == id {
				b.subs[topic] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers payload to every handler registered on topic, in
// registration order. A panicking handler is recovered and logged so it
// cannot prevent delivery to the handlers after it.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.Lock()
	list := make([]subscription, len(b.subs[topic]))
	copy(list, b.subs[topic])
	b.mu.Unlock()

	for _, sub := range list {
		deliver(topic, sub.fn, payload)
	}
}

func deliver(topic Topic, fn Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bus: handler panic on %q: %v", topic, r)
		}
	}()
	fn(payload)
}

// SubscriberCount reports the number of live handlers on topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}
