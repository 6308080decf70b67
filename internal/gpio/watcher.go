package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	gpiod "github.com/warthog618/go-gpiocdev"
)

// Config contains GPIO chip settings shared by all buttons.
type Config struct {
	Chip      string
	PullUp    bool
	ActiveLow bool // pressed pulls the line low
	Debounce  time.Duration
}

// ButtonLine describes one button to watch.
type ButtonLine struct {
	Pin        int
	HoldTime   time.Duration
	HoldRepeat bool
}

// Watcher owns the requested GPIO lines.
type Watcher struct {
	cfg     Config
	handler Handler

	mu     sync.Mutex
	chip   *gpiod.Chip
	lines  []*gpiod.Line
	inputs []*Input
}

// NewWatcher creates a watcher that reports to handler.
func NewWatcher(cfg Config, handler Handler) *Watcher {
	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}
	return &Watcher{cfg: cfg, handler: handler}
}

// Watch opens the chip and requests edge events for every button.
func (w *Watcher) Watch(buttons []ButtonLine) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	chip, err := gpiod.NewChip(w.cfg.Chip)
	if err != nil {
		return fmt.Errorf("open chip %s: %w", w.cfg.Chip, err)
	}
	w.chip = chip

	for _, b := range buttons {
		in := NewInput(b.Pin, b.HoldTime, b.HoldRepeat, w.handler)

		opts := []gpiod.LineReqOption{
			gpiod.AsInput,
			gpiod.WithBothEdges,
			gpiod.WithEventHandler(w.eventHandler(in)),
		}
		if w.cfg.PullUp {
			opts = append(opts, gpiod.WithPullUp)
		}
		if w.cfg.Debounce > 0 {
			opts = append(opts, gpiod.WithDebounce(w.cfg.Debounce))
		}

		line, err := chip.RequestLine(b.Pin, opts...)
		if err != nil {
			w.closeLocked()
			return fmt.Errorf("request input pin %d: %w", b.Pin, err)
		}
		w.lines = append(w.lines, line)
		w.inputs = append(w.inputs, in)

		log.Info().Int("pin", b.Pin).Dur("hold_time", b.HoldTime).Msg("Watching button")
	}
	return nil
}

func (w *Watcher) eventHandler(in *Input) func(gpiod.LineEvent) {
	return func(evt gpiod.LineEvent) {
		if isPressedFromEdge(evt.Type, w.cfg.ActiveLow) {
			in.Press()
		} else {
			in.Release()
		}
	}
}

// isPressedFromEdge determines if the button is pressed based on edge type.
func isPressedFromEdge(evtType gpiod.LineEventType, activeLow bool) bool {
	if activeLow {
		return evtType == gpiod.LineEventFallingEdge
	}
	return evtType == gpiod.LineEventRisingEdge
}

// Close releases all lines and the chip.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Watcher) closeLocked() error {
	var errs []error
	for _, in := range w.inputs {
		in.Close()
	}
	w.inputs = nil
	for _, line := range w.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	w.lines = nil
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		w.chip = nil
	}
	return errors.Join(errs...)
}
