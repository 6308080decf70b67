package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dokzlo13/lifxswitch/internal/gesture"
)

func TestPublishDeliversInOrder(t *testing.T) {
	b := New()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	b.SubscribeAll(func(e gesture.Event) {
		mu.Lock()
		got = append(got, e.Pin)
		if len(got) == 5 {
			close(done)
		}
		mu.Unlock()
	})

	for i := 0; i < 5; i++ {
		b.Publish(gesture.Event{Kind: gesture.Kinds[i%3], Pin: i})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events not delivered")
	}
	b.Close(context.Background())

	for i, pin := range got {
		if pin != i {
			t.Fatalf("delivery order = %v", got)
		}
	}
}

func TestSubscribeByKind(t *testing.T) {
	b := New()
	longs := make(chan gesture.Event, 4)
	b.Subscribe(gesture.Long, func(e gesture.Event) { longs <- e })

	b.Publish(gesture.Event{Kind: gesture.Single, Pin: 1})
	b.Publish(gesture.Event{Kind: gesture.Long, Pin: 2})
	b.Close(context.Background())

	if len(longs) != 1 {
		t.Fatalf("got %d long events, want 1", len(longs))
	}
	if e := <-longs; e.Pin != 2 {
		t.Errorf("Pin = %d, want 2", e.Pin)
	}
}

func TestPanicDoesNotKillWorker(t *testing.T) {
	b := New()
	ok := make(chan struct{}, 1)
	b.Subscribe(gesture.Single, func(e gesture.Event) {
		if e.Pin == 0 {
			panic("boom")
		}
		ok <- struct{}{}
	})

	b.Publish(gesture.Event{Kind: gesture.Single, Pin: 0})
	b.Publish(gesture.Event{Kind: gesture.Single, Pin: 1})

	select {
	case <-ok:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive handler panic")
	}
	b.Close(context.Background())
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	b := New()
	b.SubscribeAll(func(gesture.Event) {})
	b.Close(context.Background())
	b.Close(context.Background())
	b.Publish(gesture.Event{Kind: gesture.Double})
}
