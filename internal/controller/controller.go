// Package controller binds physical buttons to groups and actions: it feeds
// GPIO callbacks into the gesture classifier and dispatches emitted gestures.
package controller

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lifxswitch/internal/actions"
	"github.com/dokzlo13/lifxswitch/internal/gesture"
	"github.com/dokzlo13/lifxswitch/internal/group"
	"github.com/dokzlo13/lifxswitch/internal/ledger"
)

// ButtonSpec is the configuration of one button before action names are resolved
type ButtonSpec struct {
	Pin         int
	Group       string
	HoldTime    time.Duration
	DoubleClick time.Duration
	Actions     map[gesture.Kind]string // "" or missing: gesture ignored
	Target      actions.Target
}

// Binding is a button with its actions resolved
type Binding struct {
	Pin     int
	Group   *group.Group
	Actions map[gesture.Kind]actions.Action
	Target  actions.Target
}

// Discoverer is the part of the discovery loop the controller pokes
type Discoverer interface {
	Trigger()
}

// GestureObserver receives recognised gestures (metrics)
type GestureObserver interface {
	Gesture(pin int, kind string)
}

// Options wires a Controller
type Options struct {
	Groups    *group.Registry
	Actions   *actions.Registry
	Invoker   *actions.Invoker
	Ledger    *ledger.Ledger  // optional
	Discovery Discoverer      // optional
	Observer  GestureObserver // optional
	Clock     gesture.Clock   // nil: real time
	// Emit receives classified gestures. Production passes the gesture bus;
	// nil dispatches synchronously on the classifier's goroutine.
	Emit func(gesture.Event)
}

// Controller owns the classifier and the per-pin bindings
type Controller struct {
	ctx        context.Context
	opts       Options
	classifier *gesture.Classifier

	mu       sync.RWMutex
	bindings map[int]*Binding
}

// New creates a controller. ctx bounds every action it runs.
func New(ctx context.Context, opts Options) *Controller {
	c := &Controller{
		ctx:      ctx,
		opts:     opts,
		bindings: make(map[int]*Binding),
	}
	emit := opts.Emit
	if emit == nil {
		emit = c.Dispatch
	}
	c.classifier = gesture.NewClassifier(opts.Clock, emit)
	return c
}

// Bind resolves a button's actions and registers it. Unknown actions and
// missing scenes fail here, before any input is watched.
func (c *Controller) Bind(spec ButtonSpec) (*Binding, error) {
	scenes := make(map[string]struct{}, len(spec.Target.Scenes))
	for name := range spec.Target.Scenes {
		scenes[name] = struct{}{}
	}

	resolved := make(map[gesture.Kind]actions.Action)
	for _, kind := range gesture.Kinds {
		name := spec.Actions[kind]
		if name == "" {
			continue
		}
		action, err := c.opts.Actions.Resolve(name, scenes)
		if err != nil {
			return nil, fmt.Errorf("button %d %s: %w", spec.Pin, kind, err)
		}
		resolved[kind] = action
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("button %d: no actions configured", spec.Pin)
	}

	if _, err := c.classifier.Add(spec.Pin, spec.HoldTime, spec.DoubleClick); err != nil {
		return nil, err
	}

	target := spec.Target
	target.Pin = spec.Pin
	b := &Binding{
		Pin:     spec.Pin,
		Group:   c.opts.Groups.GetOrCreate(spec.Group),
		Actions: resolved,
		Target:  target,
	}

	c.mu.Lock()
	c.bindings[spec.Pin] = b
	c.mu.Unlock()

	ev := log.Info().Int("pin", spec.Pin).Str("group", b.Group.Name())
	for kind, action := range resolved {
		ev = ev.Str(string(kind), action.Name())
	}
	ev.Msg("Button bound")
	return b, nil
}

// Binding returns the binding for a pin
func (c *Controller) Binding(pin int) (*Binding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bindings[pin]
	return b, ok
}

// Pins returns the bound pins in ascending order
func (c *Controller) Pins() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pins := make([]int, 0, len(c.bindings))
	for pin := range c.bindings {
		pins = append(pins, pin)
	}
	sort.Ints(pins)
	return pins
}

// GroupOf returns the group name a pin controls, or ""
func (c *Controller) GroupOf(pin int) string {
	if b, ok := c.Binding(pin); ok {
		return b.Group.Name()
	}
	return ""
}

// Held forwards a hold signal from the input layer
func (c *Controller) Held(pin int) { c.classifier.Held(pin) }

// Released forwards a release signal from the input layer
func (c *Controller) Released(pin int) { c.classifier.Released(pin) }

// Stop cancels pending single-click commits
func (c *Controller) Stop() { c.classifier.Stop() }

// Dispatch runs the action bound to a gesture. It never returns an error:
// outcomes go to the log, the ledger and the observer.
func (c *Controller) Dispatch(ev gesture.Event) {
	b, ok := c.Binding(ev.Pin)
	if !ok {
		log.Warn().Int("pin", ev.Pin).Msg("Gesture from unbound pin")
		return
	}

	if c.opts.Observer != nil {
		c.opts.Observer.Gesture(ev.Pin, string(ev.Kind))
	}
	source := "button:" + strconv.Itoa(ev.Pin) + "/" + string(ev.Kind)
	c.record(ledger.EventGesture, ev.ID, source, map[string]any{
		"pin":   ev.Pin,
		"kind":  string(ev.Kind),
		"group": b.Group.Name(),
	})

	action, ok := b.Actions[ev.Kind]
	if !ok {
		log.Debug().Int("pin", ev.Pin).Str("kind", string(ev.Kind)).Msg("No action for gesture")
		return
	}

	if b.Group.Len() == 0 {
		log.Warn().
			Int("pin", ev.Pin).
			Str("group", b.Group.Name()).
			Str("action", action.Name()).
			Msg("Group has no devices yet, skipping action")
		c.record(ledger.EventActionSkipped, ev.ID, source, map[string]any{
			"action": action.Name(),
			"group":  b.Group.Name(),
			"error":  "empty group",
		})
		if c.opts.Discovery != nil {
			c.opts.Discovery.Trigger()
		}
		return
	}

	c.opts.Invoker.Invoke(c.ctx, actions.Invocation{
		Action:    action,
		Target:    b.Target,
		Group:     b.Group,
		GestureID: ev.ID,
		Source:    source,
	})
}

func (c *Controller) record(eventType ledger.EventType, key, source string, payload map[string]any) {
	if c.opts.Ledger == nil {
		return
	}
	if err := c.opts.Ledger.Record(eventType, key, source, payload); err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to record event")
	}
}
