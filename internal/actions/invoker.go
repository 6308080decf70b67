package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lifxswitch/internal/group"
	"github.com/dokzlo13/lifxswitch/internal/ledger"
)

// Observer receives action outcomes (metrics).
type Observer interface {
	ActionDone(action string, result string, elapsed time.Duration)
}

// Action outcomes reported to the ledger and observer.
const (
	ResultCompleted = "completed"
	ResultFailed    = "failed"
	ResultAbandoned = "abandoned"
)

// Invocation identifies one run of an action.
type Invocation struct {
	Action    Action
	Target    Target
	Group     *group.Group
	GestureID string // links the outcome to its gesture in the ledger
	Source    string // e.g. "button:17/single"
}

// Invoker executes actions with ledger bookkeeping. Failures are logged and
// recorded, never propagated to the button.
type Invoker struct {
	ledger   *ledger.Ledger
	observer Observer
}

// NewInvoker creates a new action invoker. Both arguments may be nil.
func NewInvoker(l *ledger.Ledger, observer Observer) *Invoker {
	return &Invoker{ledger: l, observer: observer}
}

// Invoke runs the action and returns its error for callers that care.
func (i *Invoker) Invoke(ctx context.Context, inv Invocation) error {
	name := inv.Action.Name()

	log.Debug().
		Str("action", name).
		Str("source", inv.Source).
		Str("group", inv.Group.Name()).
		Int("devices", inv.Group.Len()).
		Msg("Executing action")

	start := time.Now()
	err := i.execute(NewContext(ctx, inv.Target, inv.Group), inv.Action)
	elapsed := time.Since(start)

	result := ResultCompleted
	eventType := ledger.EventActionCompleted
	payload := map[string]any{
		"action":     name,
		"group":      inv.Group.Name(),
		"elapsed_ms": elapsed.Milliseconds(),
	}

	switch {
	case errors.Is(err, ErrAbandoned):
		result = ResultAbandoned
		eventType = ledger.EventActionSkipped
		payload["error"] = err.Error()
		log.Warn().Err(err).Str("action", name).Str("source", inv.Source).Msg("Action abandoned")
	case err != nil:
		result = ResultFailed
		eventType = ledger.EventActionFailed
		payload["error"] = err.Error()
		log.Error().Err(err).Str("action", name).Str("source", inv.Source).Msg("Action failed")
	default:
		log.Info().Str("action", name).Str("source", inv.Source).Dur("elapsed", elapsed).Msg("Action completed")
	}

	if i.ledger != nil {
		if lerr := i.ledger.Record(eventType, inv.GestureID, inv.Source, payload); lerr != nil {
			log.Error().Err(lerr).Msg("Failed to record action outcome")
		}
	}
	if i.observer != nil {
		i.observer.ActionDone(name, result, elapsed)
	}

	return err
}

// execute runs the action, turning a panic into an error.
func (i *Invoker) execute(actx *Context, action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action %q panicked: %v", action.Name(), r)
		}
	}()
	return action.Execute(actx)
}
