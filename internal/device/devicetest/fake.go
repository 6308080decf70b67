// Package devicetest provides in-memory devices and networks for tests.
package devicetest

import (
	"context"
	"errors"
	"sync"

	"github.com/dokzlo13/lifxswitch/internal/device"
)

// ErrTimeout simulates a device that did not answer.
var ErrTimeout = errors.New("devicetest: timeout")

// Device is a concurrency-safe fake light.
type Device struct {
	mu sync.Mutex

	id    uint64
	label string
	group string
	on    bool
	color device.Color

	// Unreachable makes every call fail with ErrTimeout.
	Unreachable bool

	PowerSets []bool
	ColorSets []device.Color
	LastTrans device.Transition
}

// New returns a reachable fake device.
func New(id uint64, group string, color device.Color) *Device {
	return &Device{id: id, label: device.MAC(id), group: group, color: color}
}

func (d *Device) ID() uint64 { return d.id }

func (d *Device) Label(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Unreachable {
		return "", ErrTimeout
	}
	return d.label, nil
}

func (d *Device) GroupLabel(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Unreachable {
		return "", ErrTimeout
	}
	return d.group, nil
}

// SetGroupLabel changes the group the device reports.
func (d *Device) SetGroupLabel(group string) {
	d.mu.Lock()
	d.group = group
	d.mu.Unlock()
}

// SetUnreachable toggles failure injection.
func (d *Device) SetUnreachable(v bool) {
	d.mu.Lock()
	d.Unreachable = v
	d.mu.Unlock()
}

func (d *Device) Power(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Unreachable {
		return false, ErrTimeout
	}
	return d.on, nil
}

func (d *Device) SetPower(ctx context.Context, on bool, t device.Transition) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Unreachable {
		return ErrTimeout
	}
	d.on = on
	d.PowerSets = append(d.PowerSets, on)
	d.LastTrans = t
	return nil
}

func (d *Device) Color(ctx context.Context) (device.Color, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Unreachable {
		return device.Color{}, ErrTimeout
	}
	return d.color, nil
}

func (d *Device) SetColor(ctx context.Context, c device.Color, t device.Transition) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Unreachable {
		return ErrTimeout
	}
	d.color = c
	d.ColorSets = append(d.ColorSets, c)
	d.LastTrans = t
	return nil
}

// State returns the current power and color.
func (d *Device) State() (bool, device.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.on, d.color
}

// SetState overrides the current power and color without recording a call.
func (d *Device) SetState(on bool, c device.Color) {
	d.mu.Lock()
	d.on = on
	d.color = c
	d.mu.Unlock()
}

// Calls returns the number of recorded power and color sets.
func (d *Device) Calls() (power, color int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.PowerSets), len(d.ColorSets)
}

// Network is a fake device.Network.
type Network struct {
	mu      sync.Mutex
	devices []device.Device
	err     error
	scans   int
}

// NewNetwork returns a network that reports the given devices.
func NewNetwork(devices ...device.Device) *Network {
	return &Network{devices: devices}
}

// Set replaces the visible devices and the error returned by Discover.
func (n *Network) Set(err error, devices ...device.Device) {
	n.mu.Lock()
	n.devices = devices
	n.err = err
	n.mu.Unlock()
}

func (n *Network) Discover(ctx context.Context) ([]device.Device, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scans++
	if n.err != nil {
		return nil, n.err
	}
	out := make([]device.Device, len(n.devices))
	copy(out, n.devices)
	return out, nil
}

// Scans returns how many times Discover was called.
func (n *Network) Scans() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.scans
}
