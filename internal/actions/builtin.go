package actions

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/dokzlo13/lifxswitch/internal/device"
	"github.com/dokzlo13/lifxswitch/internal/group"
)

// Built-in action names.
const (
	ActionTogglePower   = "toggle_power"
	ActionResetOrBoost  = "reset_or_boost"
	ActionDimCycle      = "dim_cycle_plus_colourful"
	ActionPowerOn       = "power_on"
	ActionPowerOff      = "power_off"
	ActionRandomColours = "random_colours"
	aliasDimCycleColor  = "dim_cycle_plus_colorful"
	aliasRandomColors   = "random_colors"
)

// Scene names read by the built-in actions.
const (
	SceneDefault = "default"
	SceneBoost   = "boost"
	SceneDim     = "dim"
	SceneDimmer  = "dimmer"
	SceneDimmest = "dimmest"
)

// Colorful is the fixed part of the randomized colors; hue is drawn per device.
var Colorful = device.Color{Saturation: 49151, Brightness: 49151, Kelvin: 3500}

// dimSteps is the dim cycle: a light showing From moves to To.
var dimSteps = []struct{ From, To string }{
	{SceneDefault, SceneDim},
	{SceneDim, SceneDimmer},
	{SceneDimmer, SceneDimmest},
}

// RegisterBuiltins adds the built-in actions to r.
func RegisterBuiltins(r *Registry) error {
	builtins := []struct {
		name   string
		scenes []string
		fn     func(*Context) error
	}{
		{ActionTogglePower, nil, TogglePower},
		{ActionResetOrBoost, []string{SceneDefault, SceneBoost}, ResetOrBoost},
		{ActionDimCycle, []string{SceneDefault, SceneDim, SceneDimmer, SceneDimmest}, DimCyclePlusColourful},
		{ActionPowerOn, nil, func(c *Context) error { return c.SetPower(true) }},
		{ActionPowerOff, nil, func(c *Context) error { return c.SetPower(false) }},
		{ActionRandomColours, nil, func(c *Context) error {
			if err := RandomColours(c); err != nil {
				return err
			}
			return c.SetPower(true)
		}},
	}
	for _, b := range builtins {
		if err := r.RegisterSimple(b.name, b.scenes, b.fn); err != nil {
			return err
		}
	}
	if err := r.Alias(aliasDimCycleColor, ActionDimCycle); err != nil {
		return err
	}
	return r.Alias(aliasRandomColors, ActionRandomColours)
}

// TogglePower inverts the power state of the group, sampled from the first
// device that answers.
func TogglePower(c *Context) error {
	on, err := c.Group().FirstPower(c.Ctx())
	if err != nil {
		c.Log().Warn().Err(err).Msg("No devices replied to power query")
		return fmt.Errorf("%w: %w", ErrAbandoned, err)
	}
	if err := c.SetPower(!on); err != nil {
		return err
	}
	c.Log().Debug().Bool("power", !on).Msg("Toggled power")
	return nil
}

// ResetOrBoost switches to the boost scene when the group shows the default
// scene, and back to default otherwise. Power is forced on.
func ResetOrBoost(c *Context) error {
	color, err := c.Group().FirstColor(c.Ctx())
	if err != nil {
		c.Log().Warn().Err(err).Msg("No devices replied to color query")
		return fmt.Errorf("%w: %w", ErrAbandoned, err)
	}

	next := SceneDefault
	if c.Matches(color, SceneDefault) {
		next = SceneBoost
	}
	errScene := c.SetScene(next)
	c.Log().Debug().Str("scene", next).Msg("Reset or boost")

	return errors.Join(errScene, c.SetPower(true))
}

// DimCyclePlusColourful steps default, dim, dimmer, dimmest, then random colors.
// A group showing none of the dim scenes is reset to default. Power is forced on.
func DimCyclePlusColourful(c *Context) error {
	color, err := c.Group().FirstColor(c.Ctx())
	if err != nil {
		c.Log().Warn().Err(err).Msg("No devices replied to color query")
		return fmt.Errorf("%w: %w", ErrAbandoned, err)
	}

	var errColor error
	switch next := dimStep(c, color); next {
	case "":
		errColor = RandomColours(c)
		c.Log().Debug().Msg("Was dimmest, now colourful")
	default:
		errColor = c.SetScene(next)
		c.Log().Debug().Str("scene", next).Msg("Dim cycle")
	}

	return errors.Join(errColor, c.SetPower(true))
}

// dimStep returns the scene to apply next, or "" for random colors.
func dimStep(c *Context, color device.Color) string {
	for _, step := range dimSteps {
		if c.Matches(color, step.From) {
			return step.To
		}
	}
	if c.Matches(color, SceneDimmest) {
		return ""
	}
	return SceneDefault
}

// RandomColours gives every device its own random hue. One goroutine is
// started per device and all are joined before returning; a failing or
// panicking device does not affect the others.
func RandomColours(c *Context) error {
	devices := c.Group().Devices()
	tr := c.Target().Transition

	var wg sync.WaitGroup
	var failed atomic.Int32
	for _, d := range devices {
		wg.Add(1)
		go func(d device.Device) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					failed.Add(1)
					c.Log().Error().Interface("panic", r).Str("mac", device.MAC(d.ID())).Msg("Color command panicked")
				}
			}()

			color := Colorful
			color.Hue = uint16(rand.Intn(65536))
			if err := d.SetColor(c.Ctx(), color, tr); err != nil {
				failed.Add(1)
				c.Log().Warn().Err(err).Str("mac", device.MAC(d.ID())).Msg("Device command failed")
			}
		}(d)
	}
	wg.Wait()

	if len(devices) > 0 && int(failed.Load()) == len(devices) {
		return fmt.Errorf("random colours on %q: %w", c.Group().Name(), group.ErrAllFailed)
	}
	return nil
}
