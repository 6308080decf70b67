package lifx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pdf/golifx/common"

	"github.com/dokzlo13/lifxswitch/internal/device"
)

type fakeBulb struct {
	mu       sync.Mutex
	id       uint64
	on       bool
	color    common.Color
	group    string
	fadeUsed time.Duration
	setErr   error
	sets     chan struct{}
}

func newFakeBulb(id uint64) *fakeBulb {
	return &fakeBulb{id: id, group: "Kitchen", sets: make(chan struct{}, 8)}
}

func (b *fakeBulb) ID() uint64                { return b.id }
func (b *fakeBulb) GetLabel() (string, error) { return "bulb", nil }
func (b *fakeBulb) GetGroup() (string, error) { return b.group, nil }

func (b *fakeBulb) GetPower() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on, nil
}

func (b *fakeBulb) SetPower(state bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.on = state
	b.sets <- struct{}{}
	return b.setErr
}

func (b *fakeBulb) SetPowerDuration(state bool, d time.Duration) error {
	b.mu.Lock()
	b.fadeUsed = d
	b.mu.Unlock()
	return b.SetPower(state)
}

func (b *fakeBulb) GetColor() (common.Color, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.color, nil
}

func (b *fakeBulb) SetColor(c common.Color, d time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.color = c
	b.sets <- struct{}{}
	return b.setErr
}

// plainBulb has no color, group, or fade support.
type plainBulb struct{ id uint64 }

func (p plainBulb) ID() uint64                { return p.id }
func (p plainBulb) GetLabel() (string, error) { return "switch", nil }
func (p plainBulb) GetPower() (bool, error)   { return false, nil }
func (p plainBulb) SetPower(bool) error       { return nil }

func TestDeviceColorRoundTrip(t *testing.T) {
	b := newFakeBulb(1)
	d := newDevice(b, newLimiter(1000))
	ctx := context.Background()

	want := device.Color{Hue: 1, Saturation: 2, Brightness: 3, Kelvin: 3500}
	if err := d.SetColor(ctx, want, device.Transition{Duration: time.Second}); err != nil {
		t.Fatalf("SetColor() error = %v", err)
	}
	got, err := d.Color(ctx)
	if err != nil || got != want {
		t.Errorf("Color() = %v, %v; want %v", got, err, want)
	}

	label, err := d.GroupLabel(ctx)
	if err != nil || label != "Kitchen" {
		t.Errorf("GroupLabel() = %q, %v", label, err)
	}
}

func TestDeviceSetPowerUsesFade(t *testing.T) {
	b := newFakeBulb(1)
	d := newDevice(b, newLimiter(1000))

	if err := d.SetPower(context.Background(), true, device.Transition{Duration: 400 * time.Millisecond}); err != nil {
		t.Fatalf("SetPower() error = %v", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.on || b.fadeUsed != 400*time.Millisecond {
		t.Errorf("on=%v fade=%v; want true, 400ms", b.on, b.fadeUsed)
	}
}

func TestDeviceFastDoesNotReturnDeviceError(t *testing.T) {
	b := newFakeBulb(1)
	b.setErr = errors.New("no ack")
	d := newDevice(b, newLimiter(1000))

	if err := d.SetPower(context.Background(), true, device.Transition{Fast: true}); err != nil {
		t.Fatalf("fast SetPower() error = %v, want nil", err)
	}
	select {
	case <-b.sets:
	default:
		t.Fatal("fast command had not been sent on return")
	}

	if err := d.SetPower(context.Background(), true, device.Transition{}); err == nil {
		t.Error("acknowledged SetPower() should surface the device error")
	}
}

func TestDeviceUnsupported(t *testing.T) {
	d := newDevice(plainBulb{id: 2}, newLimiter(1000))
	ctx := context.Background()

	if _, err := d.Color(ctx); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Color() err = %v, want ErrUnsupported", err)
	}
	if _, err := d.GroupLabel(ctx); !errors.Is(err, ErrUnsupported) {
		t.Errorf("GroupLabel() err = %v, want ErrUnsupported", err)
	}
	if err := d.SetColor(ctx, device.Color{}, device.Transition{}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SetColor() err = %v, want ErrUnsupported", err)
	}
}

func TestDeviceHonorsCancelledContext(t *testing.T) {
	d := newDevice(newFakeBulb(1), newLimiter(1000))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Power(ctx); err == nil {
		t.Error("Power() with cancelled context should fail")
	}
}
