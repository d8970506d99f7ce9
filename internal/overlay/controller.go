// Package overlay drives the overlay window's visibility from game-phase
// events. The window itself lives in the UI layer; the controller only
// tracks the intended visibility and broadcasts changes.
package overlay

import (
	"log"
	"sync"

	"github.com/Lcharvol/MidOrFeed-sub001/internal/bus"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/settings"
)

// Visibility is the payload published on the overlay topic.
type Visibility struct {
	Visible bool `json:"visible"`
}

type Controller struct {
	mu      sync.Mutex
	visible bool

	events      *bus.Bus
	settings    *settings.Store
	unsubscribe func()
}

func NewController(events *bus.Bus, store *settings.Store) *Controller {
	return &Controller{events: events, settings: store}
}

// Start subscribes to game-phase events. Call Stop to detach.
func (c *Controller) Start() {
	c.unsubscribe = c.events.Subscribe(bus.TopicGameflow, func(payload any) {
		phase, ok := payload.(string)
		if !ok {
			return
		}
		c.HandlePhase(phase)
	})
}

func (c *Controller) Stop() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// HandlePhase applies the phase signal: champion select shows the overlay,
// leaving the game flow hides it, every other phase leaves it alone.
func (c *Controller) HandlePhase(phase string) {
	if !c.settings.Get().OverlayEnabled {
		return
	}

	switch phase {
	case "ChampSelect":
		c.setVisible(true)
	case "None", "EndOfGame":
		c.setVisible(false)
	}
}

// Toggle flips visibility on explicit user request and reports the new
// state. Works regardless of the overlayEnabled setting: an explicit
// toggle outranks the automation.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	next := !c.visible
	c.visible = next
	c.mu.Unlock()

	log.Printf("overlay: visible=%v (toggle)", next)
	c.events.Publish(bus.TopicOverlay, Visibility{Visible: next})
	return next
}

// Visible reports the current intended visibility.
func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

func (c *Controller) setVisible(visible bool) {
	c.mu.Lock()
	if c.visible == visible {
		c.mu.Unlock()
		return
	}
	c.visible = visible
	c.mu.Unlock()

	log.Printf("overlay: visible=%v", visible)
	c.events.Publish(bus.TopicOverlay, Visibility{Visible: visible})
}
