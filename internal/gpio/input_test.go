package gpio

import (
	"sync"
	"testing"
	"time"

	gpiod "github.com/warthog618/go-gpiocdev"
)

type recorder struct {
	mu       sync.Mutex
	held     int
	released int
}

func (r *recorder) Held(pin int) {
	r.mu.Lock()
	r.held++
	r.mu.Unlock()
}

func (r *recorder) Released(pin int) {
	r.mu.Lock()
	r.released++
	r.mu.Unlock()
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.held, r.released
}

func TestShortPressOnlyReleases(t *testing.T) {
	rec := &recorder{}
	in := NewInput(4, 200*time.Millisecond, false, rec)

	in.Press()
	in.Release()
	time.Sleep(300 * time.Millisecond)

	if held, released := rec.counts(); held != 0 || released != 1 {
		t.Errorf("held=%d released=%d; want 0, 1", held, released)
	}
}

func TestLongPressHoldsOnce(t *testing.T) {
	rec := &recorder{}
	in := NewInput(4, 20*time.Millisecond, false, rec)

	in.Press()
	time.Sleep(100 * time.Millisecond)
	in.Release()

	if held, released := rec.counts(); held != 1 || released != 1 {
		t.Errorf("held=%d released=%d; want 1, 1", held, released)
	}
}

func TestLongPressRepeats(t *testing.T) {
	rec := &recorder{}
	in := NewInput(4, 20*time.Millisecond, true, rec)

	in.Press()
	time.Sleep(150 * time.Millisecond)
	in.Release()
	held, _ := rec.counts()
	time.Sleep(60 * time.Millisecond)

	if held < 2 {
		t.Errorf("held=%d; want repeated holds", held)
	}
	if after, _ := rec.counts(); after != held {
		t.Errorf("hold fired after release: %d -> %d", held, after)
	}
}

func TestBounceIsIgnored(t *testing.T) {
	rec := &recorder{}
	in := NewInput(4, time.Second, false, rec)

	in.Release() // release without press
	in.Press()
	in.Press()
	in.Release()
	in.Release()
	in.Close()

	if held, released := rec.counts(); held != 0 || released != 1 {
		t.Errorf("held=%d released=%d; want 0, 1", held, released)
	}
}

func TestIsPressedFromEdge(t *testing.T) {
	if !isPressedFromEdge(gpiod.LineEventFallingEdge, true) {
		t.Error("falling edge should press an active-low button")
	}
	if isPressedFromEdge(gpiod.LineEventRisingEdge, true) {
		t.Error("rising edge should release an active-low button")
	}
	if !isPressedFromEdge(gpiod.LineEventRisingEdge, false) {
		t.Error("rising edge should press an active-high button")
	}
}
