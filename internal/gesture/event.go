// Package gesture classifies button press/release timings into single-click,
// double-click and long-press gestures.
package gesture

import (
	"time"

	"github.com/google/uuid"
)

// Kind is a classified gesture.
type Kind string

const (
	Single Kind = "single"
	Double Kind = "double"
	Long   Kind = "long"
)

// Kinds lists every gesture kind.
var Kinds = []Kind{Single, Double, Long}

// Event is an emitted gesture.
type Event struct {
	ID   string    `json:"id"`
	Kind Kind      `json:"kind"`
	Pin  int       `json:"pin"`
	At   time.Time `json:"at"`
}

func newEvent(kind Kind, pin int, at time.Time) Event {
	return Event{ID: uuid.NewString(), Kind: kind, Pin: pin, At: at}
}

// Clock abstracts time so the classifier can be driven deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a single-shot cancellable timer.
type Timer interface {
	Stop() bool
}

// RealClock uses the time package.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
