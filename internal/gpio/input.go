// Package gpio turns button line edges into held and released callbacks.
package gpio

import (
	"sync"
	"time"
)

// Handler receives debounced button signals.
type Handler interface {
	Held(pin int)
	Released(pin int)
}

// Input tracks the press state of one button and raises the held signal once
// the button stays down for the hold time, optionally repeating it.
type Input struct {
	pin      int
	holdTime time.Duration
	repeat   bool
	handler  Handler

	mu         sync.Mutex
	pressed    bool
	holdTimer  *time.Timer
	generation uint64
}

// NewInput creates the press tracker for a pin.
func NewInput(pin int, holdTime time.Duration, repeat bool, handler Handler) *Input {
	return &Input{pin: pin, holdTime: holdTime, repeat: repeat, handler: handler}
}

// Press records the button going down. Repeated presses without a release are ignored.
func (in *Input) Press() {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.pressed {
		return
	}
	in.pressed = true
	in.generation++
	gen := in.generation
	in.holdTimer = time.AfterFunc(in.holdTime, func() { in.fireHold(gen) })
}

// Release records the button going up and signals the handler.
func (in *Input) Release() {
	in.mu.Lock()
	if !in.pressed {
		in.mu.Unlock()
		return
	}
	in.pressed = false
	in.generation++
	if in.holdTimer != nil {
		in.holdTimer.Stop()
		in.holdTimer = nil
	}
	in.mu.Unlock()

	in.handler.Released(in.pin)
}

func (in *Input) fireHold(gen uint64) {
	in.mu.Lock()
	if !in.pressed || in.generation != gen {
		in.mu.Unlock()
		return
	}
	if in.repeat {
		in.holdTimer = time.AfterFunc(in.holdTime, func() { in.fireHold(gen) })
	}
	in.mu.Unlock()

	in.handler.Held(in.pin)
}

// Close stops any pending hold timer.
func (in *Input) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.generation++
	if in.holdTimer != nil {
		in.holdTimer.Stop()
		in.holdTimer = nil
	}
}
