package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dokzlo13/lifxswitch/internal/db"
	"github.com/dokzlo13/lifxswitch/internal/ledger"
)

type countingObserver struct {
	results map[string]int
}

func (o *countingObserver) ActionDone(action, result string, elapsed time.Duration) {
	if o.results == nil {
		o.results = make(map[string]int)
	}
	o.results[result]++
}

func newInvoker(t *testing.T) (*Invoker, *ledger.Ledger, *countingObserver) {
	t.Helper()
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	l := ledger.New(database.DB)
	obs := &countingObserver{}
	return NewInvoker(l, obs), l, obs
}

func TestInvokeRecordsOutcome(t *testing.T) {
	inv, l, obs := newInvoker(t)
	c, devices := newKitchen(t, testScenes[SceneDefault], 1)

	toggle := &SimpleAction{name: ActionTogglePower, fn: TogglePower}
	err := inv.Invoke(context.Background(), Invocation{
		Action: toggle, Target: c.Target(), Group: c.Group(), GestureID: "g1", Source: "button:17/single",
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	completed, _ := l.History(context.Background(), ledger.Filter{Kinds: []ledger.EventType{ledger.EventActionCompleted}})
	if len(completed) != 1 || completed[0].GestureID != "g1" || completed[0].Source != "button:17/single" {
		t.Fatalf("completed entries = %+v", completed)
	}
	if completed[0].Detail["action"] != ActionTogglePower {
		t.Errorf("completed detail = %v", completed[0].Detail)
	}

	// Every gesture runs its action, even one that repeats an earlier press.
	inv.Invoke(context.Background(), Invocation{Action: toggle, Target: c.Target(), Group: c.Group(), GestureID: "g1b"})
	if power, _ := devices[0].Calls(); power != 2 {
		t.Errorf("got %d power sets, want 2", power)
	}

	devices[0].SetUnreachable(true)
	err = inv.Invoke(context.Background(), Invocation{Action: toggle, Target: c.Target(), Group: c.Group(), GestureID: "g2"})
	if !errors.Is(err, ErrAbandoned) {
		t.Errorf("Invoke() error = %v, want ErrAbandoned", err)
	}
	skipped, _ := l.History(context.Background(), ledger.Filter{Kinds: []ledger.EventType{ledger.EventActionSkipped}})
	if len(skipped) != 1 || skipped[0].GestureID != "g2" {
		t.Errorf("skipped entries = %v", skipped)
	}

	if obs.results[ResultCompleted] != 2 || obs.results[ResultAbandoned] != 1 {
		t.Errorf("observer results = %v", obs.results)
	}
}

func TestInvokeRecoversPanic(t *testing.T) {
	inv, l, _ := newInvoker(t)
	c, _ := newKitchen(t, testScenes[SceneDefault], 1)

	boom := &SimpleAction{name: "boom", fn: func(*Context) error { panic("bad script") }}
	if err := inv.Invoke(context.Background(), Invocation{Action: boom, Target: c.Target(), Group: c.Group(), GestureID: "g3"}); err == nil {
		t.Fatal("panicking action should return an error")
	}
	failed, _ := l.History(context.Background(), ledger.Filter{Kinds: []ledger.EventType{ledger.EventActionFailed}})
	if len(failed) != 1 {
		t.Errorf("got %d failed entries, want 1", len(failed))
	}
}
