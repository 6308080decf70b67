// Package actions provides the action registry, the built-in light actions and
// the invoker that runs them for gestures.
package actions

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lifxswitch/internal/device"
	"github.com/dokzlo13/lifxswitch/internal/group"
)

// ErrAbandoned marks an action that gave up before changing any state,
// typically because no device answered the state query.
var ErrAbandoned = errors.New("action abandoned")

// Target is the button-side configuration an action runs with.
type Target struct {
	Pin        int
	Scenes     map[string]device.Color
	Transition device.Transition
	Match      []device.Field
}

// Scene returns a named scene color.
func (t Target) Scene(name string) (device.Color, bool) {
	c, ok := t.Scenes[name]
	return c, ok
}

// Context is the capability interface provided to actions
type Context struct {
	ctx    context.Context
	target Target
	group  *group.Group
	logger zerolog.Logger
}

// NewContext creates a new action context
func NewContext(ctx context.Context, target Target, grp *group.Group) *Context {
	return &Context{
		ctx:    ctx,
		target: target,
		group:  grp,
		logger: log.With().Int("pin", target.Pin).Str("group", grp.Name()).Logger(),
	}
}

// Ctx returns the Go context for cancellation
func (c *Context) Ctx() context.Context { return c.ctx }

// Target returns the button configuration
func (c *Context) Target() Target { return c.target }

// Group returns the group the button controls
func (c *Context) Group() *group.Group { return c.group }

// Log returns a logger carrying the pin and group
func (c *Context) Log() *zerolog.Logger { return &c.logger }

// Matches reports whether color shows the named scene on the configured fields.
func (c *Context) Matches(color device.Color, scene string) bool {
	want, ok := c.target.Scene(scene)
	if !ok {
		return false
	}
	match := c.target.Match
	if len(match) == 0 {
		match = device.DefaultMatchFields
	}
	return color.Matches(want, match)
}

// SetScene applies a named scene to the whole group.
func (c *Context) SetScene(name string) error {
	color, ok := c.target.Scene(name)
	if !ok {
		return errors.New("unknown scene " + name)
	}
	return c.group.SetColor(c.ctx, color, c.target.Transition)
}

// SetPower applies a power state to the whole group.
func (c *Context) SetPower(on bool) error {
	return c.group.SetPower(c.ctx, on, c.target.Transition)
}
