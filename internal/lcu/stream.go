package lcu

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Lcharvol/MidOrFeed-sub001/internal/bus"
	"github.com/gorilla/websocket"
)

const (
	subscribeOpcode = 5
	eventOpcode     = 8

	// One coarse namespace carries every event we care about; decoding and
	// filtering happen client-side.
	eventNamespace = "OnJsonApiEvent"

	uriGameflow    = "/lol-gameflow/v1/gameflow-phase"
	uriChampSelect = "/lol-champ-select/v1/session"
	uriSummoner    = "/lol-summoner/v1/current-summoner"
)

type eventEnvelope struct {
	URI  string          `json:"uri"`
	Data json.RawMessage `json:"data"`
}

// monitorState is the slice of the Monitor the stream client gates on.
type monitorState interface {
	Status() Status
	Snapshot() (Status, *Credentials)
}

// StreamClient keeps a persistent event socket to the local client and
// publishes decoded events on the bus. It owns its reconnect policy:
// exactly one attempt per close, after a fixed delay, and only while the
// monitor still reports connected.
type StreamClient struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	reconnect *time.Timer
	closed    bool

	monitor monitorState
	events  *bus.Bus
	dialer  *websocket.Dialer
	delay   time.Duration
}

func NewStreamClient(monitor monitorState, events *bus.Bus, delay time.Duration) *StreamClient {
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &StreamClient{
		monitor: monitor,
		events:  events,
		delay:   delay,
		dialer: &websocket.Dialer{
			TLSClientConfig:  insecureLoopbackTLS(),
			HandshakeTimeout: 5 * time.Second,
		},
	}
}

// Connect opens the event socket. No-op without connected credentials.
// Any existing socket is torn down first; at most one socket is ever open.
func (s *StreamClient) Connect() {
	s.dial(false)
}

// dial opens the socket. reconnecting marks a timer-driven attempt, which
// must never resurrect a socket Disconnect already tore down; an explicit
// Connect re-arms the client.
func (s *StreamClient) dial(reconnecting bool) {
	_, creds := s.monitor.Snapshot()
	if creds == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if reconnecting && s.closed {
		return
	}
	s.closed = false

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}

	header := http.Header{}
	header.Set("Authorization", basicAuth(creds.Password))

	url := fmt.Sprintf("wss://127.0.0.1:%d", creds.Port)
	conn, _, err := s.dialer.Dial(url, header)
	if err != nil {
		log.Printf("lcu: stream dial: %v", err)
		s.scheduleReconnectLocked()
		return
	}

	// WriteJSON would append a trailing newline to the frame; marshal
	// directly so the wire payload is exactly the JSON array.
	frame, _ := json.Marshal([]any{subscribeOpcode, eventNamespace})
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		conn.Close()
		log.Printf("lcu: stream subscribe: %v", err)
		s.scheduleReconnectLocked()
		return
	}

	s.conn = conn
	log.Println("lcu: stream connected")
	go s.readLoop(conn)
}

// Disconnect cancels any pending reconnect and closes the socket.
// Safe to call when already disconnected. After Disconnect returns, only an
// explicit Connect can open a socket again; a reconnect callback that was
// already past its timer when Disconnect ran finds the client closed and
// gives up.
func (s *StreamClient) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.reconnect != nil {
		s.reconnect.Stop()
		s.reconnect = nil
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// IsConnected reports whether the event socket is currently open.
func (s *StreamClient) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *StreamClient) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.handleClose(conn)
			return
		}
		s.decodeFrame(data)
	}
}

// handleClose runs when a socket drops. The conn pointer comparison keeps a
// stale read loop, one whose socket Disconnect or a newer Connect already
// replaced, from scheduling a reconnect it doesn't own.
func (s *StreamClient) handleClose(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != conn {
		return
	}
	s.conn = nil
	conn.Close()
	log.Println("lcu: stream closed")
	s.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the reconnect timer. At most one timer is
// pending at a time; the gate on monitor status is evaluated when the timer
// fires, not when it is armed. Stop cannot cancel a callback that already
// fired, so the callback re-checks ownership and the closed flag under the
// lock, and dial checks closed once more before opening anything.
func (s *StreamClient) scheduleReconnectLocked() {
	if s.reconnect != nil {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		owned := s.reconnect == t && !s.closed
		if s.reconnect == t {
			s.reconnect = nil
		}
		s.mu.Unlock()

		if !owned || s.monitor.Status() != StatusConnected {
			return
		}
		s.dial(true)
	})
	s.reconnect = t
}

// decodeFrame handles one inbound message. Anything that is not a
// well-formed event frame (other opcodes, short arrays, invalid JSON) is
// dropped silently; subscribers only ever see valid decoded events.
func (s *StreamClient) decodeFrame(data []byte) {
	var frame []json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil || len(frame) < 3 {
		return
	}

	var opcode int
	if err := json.Unmarshal(frame[0], &opcode); err != nil || opcode != eventOpcode {
		return
	}

	var env eventEnvelope
	if err := json.Unmarshal(frame[2], &env); err != nil {
		return
	}

	switch env.URI {
	case uriGameflow:
		var phase string
		if err := json.Unmarshal(env.Data, &phase); err != nil {
			return
		}
		s.events.Publish(bus.TopicGameflow, phase)
	case uriChampSelect:
		s.events.Publish(bus.TopicChampSelect, env.Data)
	case uriSummoner:
		s.events.Publish(bus.TopicSummoner, env.Data)
	}
}
