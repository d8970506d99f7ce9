package hub

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/Lcharvol/MidOrFeed-sub001/internal/bus"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/lcu"
	"github.com/gorilla/websocket"
)

type client struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// trySend queues one message. It reports false only when the client is
// alive but its buffer is full, the slow-consumer signal. The lock keeps
// the send and close mutually exclusive; a concurrent broadcast can never
// hit a closed channel.
func (c *client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// statusSource lets a freshly attached consumer read the live status
// instead of waiting for an eventual broadcast.
type statusSource interface {
	Status() lcu.Status
}

// Broadcaster forwards bus traffic to every attached consumer window.
// Delivery is per-client buffered; a consumer that cannot keep up is
// dropped rather than allowed to stall the others.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool
	monitor statusSource

	unsubscribes []func()
}

func NewBroadcaster(events *bus.Bus, monitor statusSource) *Broadcaster {
	b := &Broadcaster{
		clients: make(map[*client]bool),
		monitor: monitor,
	}

	forward := func(topic bus.Topic, msgType MessageType) {
		unsub := events.Subscribe(topic, func(payload any) {
			b.broadcast(Message{Type: msgType, Payload: payload})
		})
		b.unsubscribes = append(b.unsubscribes, unsub)
	}

	forward(bus.TopicStatus, MsgStatus)
	forward(bus.TopicGameflow, MsgGameflow)
	forward(bus.TopicChampSelect, MsgChampSelect)
	forward(bus.TopicSummoner, MsgSummoner)
	forward(bus.TopicOverlay, MsgOverlay)

	return b
}

// AddClient registers a consumer connection. The current connection status
// is sent immediately; there is no replay of anything earlier.
func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	snapshot := Message{Type: MsgStatus, Payload: b.monitor.Status()}
	if data, err := json.Marshal(snapshot); err == nil {
		c.trySend(data)
	}

	return c
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// Close detaches from the bus and drops every client. No broadcast can
// reach a consumer after Close returns.
func (b *Broadcaster) Close() {
	for _, unsub := range b.unsubscribes {
		unsub()
	}

	b.mu.Lock()
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

func (b *Broadcaster) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("hub: broadcast marshal error: %v", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(data) {
			log.Printf("hub: consumer too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
