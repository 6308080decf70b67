package lifx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pdf/golifx/common"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/dokzlo13/lifxswitch/internal/device"
)

// ErrUnsupported is returned when a device lacks a capability (e.g. color on a switch).
var ErrUnsupported = errors.New("operation not supported by device")

// bulb is the subset of common.Device the adapter uses.
type bulb interface {
	ID() uint64
	GetLabel() (string, error)
	GetPower() (bool, error)
	SetPower(state bool) error
}

type colorBulb interface {
	GetColor() (common.Color, error)
	SetColor(color common.Color, duration time.Duration) error
}

type groupedBulb interface {
	GetGroup() (string, error)
}

type fadingBulb interface {
	SetPowerDuration(state bool, duration time.Duration) error
}

// Device wraps a golifx device.
type Device struct {
	dev     bulb
	limiter *rate.Limiter
}

func newDevice(dev bulb, limiter *rate.Limiter) *Device {
	return &Device{dev: dev, limiter: limiter}
}

func (d *Device) ID() uint64 { return d.dev.ID() }

func (d *Device) Label(ctx context.Context) (string, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return d.dev.GetLabel()
}

func (d *Device) GroupLabel(ctx context.Context) (string, error) {
	g, ok := d.dev.(groupedBulb)
	if !ok {
		return "", ErrUnsupported
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return g.GetGroup()
}

func (d *Device) Power(ctx context.Context) (bool, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return false, err
	}
	return d.dev.GetPower()
}

func (d *Device) SetPower(ctx context.Context, on bool, t device.Transition) error {
	return d.send(ctx, t, "set_power", func() error {
		if f, ok := d.dev.(fadingBulb); ok && t.Duration > 0 {
			return f.SetPowerDuration(on, t.Duration)
		}
		return d.dev.SetPower(on)
	})
}

func (d *Device) Color(ctx context.Context) (device.Color, error) {
	l, ok := d.dev.(colorBulb)
	if !ok {
		return device.Color{}, ErrUnsupported
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return device.Color{}, err
	}
	c, err := l.GetColor()
	if err != nil {
		return device.Color{}, err
	}
	return fromCommon(c), nil
}

func (d *Device) SetColor(ctx context.Context, c device.Color, t device.Transition) error {
	l, ok := d.dev.(colorBulb)
	if !ok {
		return ErrUnsupported
	}
	return d.send(ctx, t, "set_color", func() error {
		return l.SetColor(toCommon(c), t.Duration)
	})
}

// send paces a command and runs it in the caller's goroutine so commands
// to one bulb reach it in order. Fast transitions do not wait on the
// device's acknowledgement: a failure is logged and the call succeeds.
func (d *Device) send(ctx context.Context, t device.Transition, op string, fn func() error) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	err := fn()
	if err == nil {
		return nil
	}
	if t.Fast {
		log.Warn().Err(err).
			Str("mac", device.MAC(d.dev.ID())).
			Str("op", op).
			Msg("Unacknowledged command failed")
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func fromCommon(c common.Color) device.Color {
	return device.Color{Hue: c.Hue, Saturation: c.Saturation, Brightness: c.Brightness, Kelvin: c.Kelvin}
}

func toCommon(c device.Color) common.Color {
	return common.Color{Hue: c.Hue, Saturation: c.Saturation, Brightness: c.Brightness, Kelvin: c.Kelvin}
}
