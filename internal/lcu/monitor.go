package lcu

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Lcharvol/MidOrFeed-sub001/internal/bus"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/config"
)

// Monitor polls for the running client and owns the process-wide connection
// status and credentials. All mutation funnels through its poll loop; other
// components borrow read-only snapshots.
type Monitor struct {
	mu         sync.Mutex
	status     Status
	creds      *Credentials
	generation uint64

	source CredentialSource
	prober Prober
	events *bus.Bus

	interval time.Duration
	cancel   context.CancelFunc
	force    chan struct{}
	done     chan struct{}
}

func NewMonitor(cfg config.LCUConfig, events *bus.Bus) *Monitor {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Monitor{
		status:   StatusDisconnected,
		source:   &LockfileSource{},
		prober:   newSummonerProbe(cfg.ProbeTimeout),
		events:   events,
		interval: interval,
		force:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// SetSource replaces the credential source. Must be called before Start.
func (m *Monitor) SetSource(src CredentialSource) { m.source = src }

// SetProber replaces the probe. Must be called before Start.
func (m *Monitor) SetProber(p Prober) { m.prober = p }

// Start runs the poll loop until ctx is cancelled or Stop is called.
// Callers run it on its own goroutine.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()
	defer close(m.done)

	m.setStatus(StatusConnecting)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("lcu: monitor stopped")
			return
		case <-m.force:
			m.tick(ctx)
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// Stop cancels the poll loop and waits for it to exit. The current status is
// left as-is: "polling stopped" is a separate signal from "disconnected".
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-m.done
}

// ForcePoll requests an immediate tick outside the regular cadence.
// No-op when a forced tick is already queued.
func (m *Monitor) ForcePoll() {
	select {
	case m.force <- struct{}{}:
	default:
	}
}

// Status returns the current connection status.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Snapshot returns the current status and a copy of the held credentials.
// The credentials are nil unless the status is connected.
func (m *Monitor) Snapshot() (Status, *Credentials) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return m.status, nil
	}
	creds := *m.creds
	return m.status, &creds
}

// tick runs one discovery+probe cycle. Every tick is fault-isolated: no
// failure, including a panic, escapes to the poll loop.
func (m *Monitor) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("lcu: poll panic: %v", r)
			m.commit(m.currentGeneration(), StatusError, nil)
		}
	}()

	gen := m.currentGeneration()

	creds, err := m.source.Discover()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			m.commit(gen, StatusDisconnected, nil)
			return
		}
		log.Printf("lcu: discovery error: %v", err)
		m.commit(gen, StatusError, nil)
		return
	}

	ok, err := m.prober.Probe(ctx, *creds)
	if err != nil {
		log.Printf("lcu: probe error: %v", err)
		m.commit(gen, StatusError, nil)
		return
	}
	if !ok {
		m.commit(gen, StatusDisconnected, nil)
		return
	}
	m.commit(gen, StatusConnected, creds)
}

func (m *Monitor) currentGeneration() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// commit applies a poll result. A result is dropped when the generation has
// moved on since the tick began: a slow in-flight probe must never
// overwrite credentials committed by a newer one.
func (m *Monitor) commit(gen uint64, status Status, creds *Credentials) {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return
	}
	m.generation++
	changed := m.status != status
	m.status = status
	m.creds = creds
	m.mu.Unlock()

	if changed {
		log.Printf("lcu: status %s", status)
		m.events.Publish(bus.TopicStatus, status)
	}
}

// setStatus is the non-poll path for the initial connecting transition.
func (m *Monitor) setStatus(status Status) {
	m.mu.Lock()
	changed := m.status != status
	m.status = status
	m.mu.Unlock()
	if changed {
		m.events.Publish(bus.TopicStatus, status)
	}
}
