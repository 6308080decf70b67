package group

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dokzlo13/lifxswitch/internal/device"
	"github.com/dokzlo13/lifxswitch/internal/device/devicetest"
)

func TestGetOrCreateNormalizesName(t *testing.T) {
	r := NewRegistry()
	a := r.GetOrCreate("Kitchen")
	b := r.GetOrCreate(" kitchen ")
	if a != b {
		t.Fatal("GetOrCreate should return the same group for case variants")
	}
	if a.Name() != "kitchen" {
		t.Errorf("Name() = %q, want %q", a.Name(), "kitchen")
	}
	if _, ok := r.Lookup("KITCHEN"); !ok {
		t.Error("Lookup should be case-insensitive")
	}
}

func TestAssignIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("kitchen")
	d := devicetest.New(1, "kitchen", device.Color{})

	if added, _ := r.Assign("Kitchen", d); !added {
		t.Fatal("first Assign should add the device")
	}
	if added, _ := r.Assign("kitchen", d); added {
		t.Error("second Assign of the same identity should be a no-op")
	}
	// A distinct handle with the same hardware address is still a duplicate.
	if added, _ := r.Assign("kitchen", devicetest.New(1, "kitchen", device.Color{})); added {
		t.Error("Assign should dedupe by identity, not by handle")
	}

	g, _ := r.Lookup("kitchen")
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
}

func TestAssignUnknownLabel(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("kitchen")

	if added, _ := r.Assign("garage", devicetest.New(2, "garage", device.Color{})); added {
		t.Error("Assign to an undeclared group should be ignored")
	}
	if _, ok := r.Lookup("garage"); ok {
		t.Error("Assign must not declare new groups")
	}
	g, _ := r.Lookup("kitchen")
	if g.Len() != 0 {
		t.Errorf("kitchen Len() = %d, want 0", g.Len())
	}
}

func TestAssignMovesRelabeledDevice(t *testing.T) {
	r := NewRegistry()
	kitchen := r.GetOrCreate("kitchen")
	lounge := r.GetOrCreate("lounge")
	d := devicetest.New(3, "kitchen", device.Color{})

	r.Assign("kitchen", d)
	added, from := r.Assign("lounge", d)
	if !added || from != "kitchen" {
		t.Fatalf("Assign() = %v, %q; want true, kitchen", added, from)
	}
	if kitchen.Contains(3) || !lounge.Contains(3) {
		t.Error("device should only be a member of lounge")
	}
}

func TestSnapshotIsStable(t *testing.T) {
	g := newGroup("g")
	g.Add(devicetest.New(1, "g", device.Color{}))
	g.Add(devicetest.New(2, "g", device.Color{}))

	snap := g.Devices()
	g.Remove(1)
	g.Add(devicetest.New(3, "g", device.Color{}))

	if len(snap) != 2 || snap[0].ID() != 1 || snap[1].ID() != 2 {
		t.Errorf("snapshot changed after mutation: %v", snap)
	}
}

func TestConcurrentAddNoDuplicates(t *testing.T) {
	g := newGroup("g")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			g.Add(devicetest.New(id%10, "g", device.Color{}))
			_ = g.Devices()
		}(uint64(i))
	}
	wg.Wait()
	if g.Len() != 10 {
		t.Errorf("Len() = %d, want 10", g.Len())
	}
}

func TestFirstPowerSkipsUnreachable(t *testing.T) {
	g := newGroup("g")
	down := devicetest.New(1, "g", device.Color{})
	down.SetUnreachable(true)
	up := devicetest.New(2, "g", device.Color{})
	up.SetState(true, device.Color{})
	g.Add(down)
	g.Add(up)

	on, err := g.FirstPower(context.Background())
	if err != nil || !on {
		t.Errorf("FirstPower() = %v, %v; want true, nil", on, err)
	}

	up.SetUnreachable(true)
	if _, err := g.FirstPower(context.Background()); !errors.Is(err, device.ErrNoResponse) {
		t.Errorf("FirstPower() err = %v, want ErrNoResponse", err)
	}
}

func TestSetPowerPartialFailure(t *testing.T) {
	g := newGroup("g")
	down := devicetest.New(1, "g", device.Color{})
	down.SetUnreachable(true)
	up := devicetest.New(2, "g", device.Color{})
	g.Add(down)
	g.Add(up)

	tr := device.Transition{Duration: 400, Fast: true}
	if err := g.SetPower(context.Background(), true, tr); err != nil {
		t.Fatalf("SetPower() with one responder = %v, want nil", err)
	}
	if on, _ := up.State(); !on || up.LastTrans != tr {
		t.Error("reachable device should be on with the given transition")
	}

	up.SetUnreachable(true)
	if err := g.SetPower(context.Background(), false, tr); !errors.Is(err, ErrAllFailed) {
		t.Errorf("SetPower() err = %v, want ErrAllFailed", err)
	}
}
