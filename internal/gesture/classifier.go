package gesture

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Button is the interaction state of one physical button.
// It is only mutated by the Classifier that owns it.
type Button struct {
	Pin         int
	HoldTime    time.Duration
	DoubleClick time.Duration

	mu          sync.Mutex
	wasHeld     bool
	lastRelease time.Time
	pending     Timer  // live single-click commit timer, at most one
	generation  uint64 // identifies the live timer; stale expiries are ignored
}

// Pending reports whether a single-click commit is waiting for its window to close.
func (b *Button) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending != nil
}

// Classifier owns the per-button state records and turns held/released
// callbacks into gesture events.
type Classifier struct {
	clock Clock
	emit  func(Event)

	mu      sync.RWMutex
	buttons map[int]*Button
}

// NewClassifier creates a classifier that reports gestures to emit.
// emit is called without any button lock held.
func NewClassifier(clock Clock, emit func(Event)) *Classifier {
	if clock == nil {
		clock = RealClock{}
	}
	return &Classifier{
		clock:   clock,
		emit:    emit,
		buttons: make(map[int]*Button),
	}
}

// Add registers a button. Pins must be unique and thresholds positive.
func (c *Classifier) Add(pin int, holdTime, doubleClick time.Duration) (*Button, error) {
	if holdTime <= 0 || doubleClick <= 0 {
		return nil, fmt.Errorf("button %d: thresholds must be positive", pin)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.buttons[pin]; exists {
		return nil, fmt.Errorf("button %d already registered", pin)
	}
	b := &Button{Pin: pin, HoldTime: holdTime, DoubleClick: doubleClick}
	c.buttons[pin] = b
	return b, nil
}

// Button returns the state record for a pin.
func (c *Classifier) Button(pin int) (*Button, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.buttons[pin]
	return b, ok
}

// Held handles the hold signal. It may be called repeatedly during one hold.
func (c *Classifier) Held(pin int) {
	b, ok := c.Button(pin)
	if !ok {
		log.Warn().Int("pin", pin).Msg("Held event for unknown button")
		return
	}

	now := c.clock.Now()
	b.mu.Lock()
	b.wasHeld = true
	b.mu.Unlock()

	log.Debug().Int("pin", pin).Msg("Button is being held")
	c.emit(newEvent(Long, pin, now))
}

// Released handles the release signal.
func (c *Classifier) Released(pin int) {
	b, ok := c.Button(pin)
	if !ok {
		log.Warn().Int("pin", pin).Msg("Released event for unknown button")
		return
	}

	now := c.clock.Now()
	var double bool

	b.mu.Lock()
	if b.wasHeld {
		log.Debug().Int("pin", pin).Msg("Button has been released")
	} else {
		log.Debug().Int("pin", pin).Msg("Button has been clicked")
		if !b.lastRelease.IsZero() && now.Sub(b.lastRelease) < b.DoubleClick {
			if b.pending != nil {
				b.pending.Stop()
				b.pending = nil
			}
			b.generation++
			double = true
		} else if b.pending == nil {
			b.generation++
			gen := b.generation
			b.pending = c.clock.AfterFunc(b.DoubleClick, func() { c.commit(b, gen) })
			log.Debug().Int("pin", pin).Msg("Started single/double click timer")
		}
	}
	b.wasHeld = false
	b.lastRelease = now
	b.mu.Unlock()

	if double {
		log.Info().Int("pin", pin).Msg("Double click detected")
		c.emit(newEvent(Double, pin, now))
	}
}

// commit fires when the double-click window closes without a second click.
func (c *Classifier) commit(b *Button, gen uint64) {
	b.mu.Lock()
	if b.pending == nil || b.generation != gen {
		b.mu.Unlock()
		return
	}
	b.pending = nil
	b.mu.Unlock()

	log.Info().Int("pin", b.Pin).Msg("Single click detected")
	c.emit(newEvent(Single, b.Pin, c.clock.Now()))
}

// Stop cancels every pending commit timer.
func (c *Classifier) Stop() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, b := range c.buttons {
		b.mu.Lock()
		if b.pending != nil {
			b.pending.Stop()
			b.pending = nil
		}
		b.generation++
		b.mu.Unlock()
	}
}
