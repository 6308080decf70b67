package discovery

import "time"

// Backoff adapts the poll interval to how the visible device count evolves.
// While the count grows the loop polls at Min; once it plateaus the interval
// grows by Step on every pass, up to Max.
type Backoff struct {
	Min  time.Duration
	Step time.Duration
	Max  time.Duration

	current time.Duration
	maxSeen int
}

// NewBackoff creates a backoff starting at min.
func NewBackoff(min, step, max time.Duration) *Backoff {
	if max < min {
		max = min
	}
	return &Backoff{Min: min, Step: step, Max: max, current: min}
}

// Next records the outcome of a pass and returns the wait before the next one.
// A failed pass leaves the interval unchanged.
func (b *Backoff) Next(visible int, ok bool) time.Duration {
	if !ok {
		return b.current
	}
	switch {
	case visible > b.maxSeen:
		b.maxSeen = visible
		b.current = b.Min
	case visible > 0 && visible == b.maxSeen:
		b.current += b.Step
		if b.current > b.Max {
			b.current = b.Max
		}
	}
	return b.current
}

// Reset returns to the minimum interval, forgetting the plateau.
func (b *Backoff) Reset() {
	b.current = b.Min
	b.maxSeen = 0
}
