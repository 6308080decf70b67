// Package device defines the light device model and the network collaborator
// contract the switch is built against.
package device

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoResponse is returned when no device in a set answered a query.
var ErrNoResponse = errors.New("no device responded")

// Color is an HSBK color in LIFX ranges (0-65535, kelvin 2500-9000).
type Color struct {
	Hue        uint16 `json:"hue" yaml:"hue"`
	Saturation uint16 `json:"saturation" yaml:"saturation"`
	Brightness uint16 `json:"brightness" yaml:"brightness"`
	Kelvin     uint16 `json:"kelvin" yaml:"kelvin"`
}

// Transition describes how a change is applied to a device.
// Fast requests fire-and-forget delivery without waiting for an acknowledgement.
type Transition struct {
	Duration time.Duration
	Fast     bool
}

// Device is a single remote light. Every call may fail with a transient error.
type Device interface {
	// ID is the hardware (MAC) address of the device.
	ID() uint64
	Label(ctx context.Context) (string, error)
	GroupLabel(ctx context.Context) (string, error)
	Power(ctx context.Context) (bool, error)
	SetPower(ctx context.Context, on bool, t Transition) error
	Color(ctx context.Context) (Color, error)
	SetColor(ctx context.Context, c Color, t Transition) error
}

// Network discovers the devices currently visible on the LAN.
type Network interface {
	Discover(ctx context.Context) ([]Device, error)
}

// MAC renders a device identity as a colon separated hardware address.
// LIFX targets carry the address in the low six bytes, little endian.
func MAC(id uint64) string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = byte(id >> (8 * i))
	}
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", b[0], b[1], b[2], b[3], b[4], b[5])
}
