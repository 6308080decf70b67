package discovery

import (
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	b := NewBackoff(5*time.Second, 5*time.Second, 15*time.Second)

	steps := []struct {
		visible int
		ok      bool
		want    time.Duration
	}{
		{0, true, 5 * time.Second},   // nothing seen yet
		{2, true, 5 * time.Second},   // growing
		{3, true, 5 * time.Second},   // still growing
		{3, true, 10 * time.Second},  // plateau
		{3, false, 10 * time.Second}, // failure keeps interval
		{3, true, 15 * time.Second},  // plateau
		{3, true, 15 * time.Second},  // capped
		{2, true, 15 * time.Second},  // dropped below max: unchanged
		{4, true, 5 * time.Second},   // new device: back to min
	}

	for i, s := range steps {
		if got := b.Next(s.visible, s.ok); got != s.want {
			t.Errorf("step %d: Next(%d, %v) = %v, want %v", i, s.visible, s.ok, got, s.want)
		}
	}
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoff(time.Second, time.Second, 10*time.Second)
	b.Next(1, true)
	b.Next(1, true)
	b.Reset()
	if got := b.Next(1, true); got != time.Second {
		t.Errorf("after Reset Next() = %v, want 1s", got)
	}
}
