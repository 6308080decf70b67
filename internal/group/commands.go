package group

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lifxswitch/internal/device"
)

// ErrAllFailed is returned by a group command when no member accepted it.
var ErrAllFailed = errors.New("group command failed on every device")

// FirstPower returns the power state of the first member that answers.
func (g *Group) FirstPower(ctx context.Context) (bool, error) {
	for _, d := range g.Devices() {
		on, err := d.Power(ctx)
		if err != nil {
			log.Info().Err(err).Str("group", g.name).Str("mac", device.MAC(d.ID())).Msg("No reply to power query")
			continue
		}
		return on, nil
	}
	return false, fmt.Errorf("power query on %q: %w", g.name, device.ErrNoResponse)
}

// FirstColor returns the color of the first member that answers.
func (g *Group) FirstColor(ctx context.Context) (device.Color, error) {
	for _, d := range g.Devices() {
		c, err := d.Color(ctx)
		if err != nil {
			log.Info().Err(err).Str("group", g.name).Str("mac", device.MAC(d.ID())).Msg("No reply to color query")
			continue
		}
		return c, nil
	}
	return device.Color{}, fmt.Errorf("color query on %q: %w", g.name, device.ErrNoResponse)
}

// SetPower applies a power state to every member of the group.
func (g *Group) SetPower(ctx context.Context, on bool, t device.Transition) error {
	return g.each(ctx, "set_power", func(d device.Device) error {
		return d.SetPower(ctx, on, t)
	})
}

// SetColor applies one color to every member of the group.
func (g *Group) SetColor(ctx context.Context, c device.Color, t device.Transition) error {
	return g.each(ctx, "set_color", func(d device.Device) error {
		return d.SetColor(ctx, c, t)
	})
}

func (g *Group) each(ctx context.Context, op string, fn func(device.Device) error) error {
	devices := g.Devices()
	failed := 0
	for _, d := range devices {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(d); err != nil {
			failed++
			log.Warn().Err(err).
				Str("group", g.name).
				Str("mac", device.MAC(d.ID())).
				Str("op", op).
				Msg("Device command failed")
		}
	}
	if len(devices) > 0 && failed == len(devices) {
		return fmt.Errorf("%s on %q: %w", op, g.name, ErrAllFailed)
	}
	return nil
}
