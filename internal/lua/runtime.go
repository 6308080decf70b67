// Package lua hosts user scripts that define additional button actions.
package lua

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/lifxswitch/internal/actions"
	"github.com/dokzlo13/lifxswitch/internal/lua/modules"
)

// ErrRuntimeClosed is returned when the Lua runtime is closed
var ErrRuntimeClosed = errors.New("lua runtime closed")

// LuaWork represents work to be executed on the Lua VM.
// All Lua execution after LoadScript goes through Run's goroutine.
type LuaWork func(ctx context.Context)

// Runtime manages the Lua VM with single-threaded execution
type Runtime struct {
	L        *lua.LState
	registry *actions.Registry

	actionModule *modules.ActionModule

	workQueue chan LuaWork

	// closing is closed once; senders select on it
	closing   chan struct{}
	closeOnce sync.Once
}

// NewRuntime creates a Lua runtime whose action.define registers into registry
func NewRuntime(registry *actions.Registry) *Runtime {
	r := &Runtime{
		L:         lua.NewState(),
		registry:  registry,
		workQueue: make(chan LuaWork, 16),
		closing:   make(chan struct{}),
	}
	r.registerModules()
	return r
}

func (r *Runtime) registerModules() {
	r.L.PreloadModule("log", modules.NewLogModule().Loader)

	r.actionModule = modules.NewActionModule(r.registry, r.DoSyncWithResult)
	r.L.PreloadModule("action", r.actionModule.Loader)
}

// Close signals the runtime to stop accepting new work and closes the Lua state.
func (r *Runtime) Close() {
	r.closeOnce.Do(func() {
		close(r.closing)
	})
	r.L.Close()
}

// DoSyncWithResult queues work, waits for space, and waits for the result.
// Scripted actions run through here so the VM is only touched by Run.
func (r *Runtime) DoSyncWithResult(ctx context.Context, work func(context.Context) error) error {
	done := make(chan error, 1)
	wrapped := LuaWork(func(c context.Context) {
		done <- work(c)
	})

	select {
	case <-r.closing:
		return ErrRuntimeClosed
	case <-ctx.Done():
		return ctx.Err()
	case r.workQueue <- wrapped:
	}

	select {
	case <-r.closing:
		return ErrRuntimeClosed
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// Run is the only goroutine that touches Lua after the script is loaded.
// Exits when ctx is cancelled or the runtime is closed.
func (r *Runtime) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.closing:
			return
		case work := <-r.workQueue:
			r.executeWork(ctx, work)
		}
	}
}

func (r *Runtime) executeWork(ctx context.Context, work LuaWork) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Msg("Lua work panicked - worker continuing")
		}
	}()
	r.L.SetContext(ctx)
	work(ctx)
}

// LoadScript executes a Lua file. Must be called before Run and before
// button bindings are resolved so defined actions are visible.
func (r *Runtime) LoadScript(path string) error {
	log.Info().Str("path", path).Msg("Loading Lua script")

	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("failed to execute Lua script: %w", err)
	}

	log.Info().Strs("actions", r.actionModule.Defined()).Msg("Lua script loaded")
	return nil
}

// LoadString executes Lua source, with the same constraints as LoadScript
func (r *Runtime) LoadString(source string) error {
	if err := r.L.DoString(source); err != nil {
		return fmt.Errorf("failed to execute Lua source: %w", err)
	}
	return nil
}
