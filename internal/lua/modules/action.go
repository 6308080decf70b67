package modules

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/lifxswitch/internal/actions"
)

// Executor runs work on the goroutine that owns the Lua state and waits for it
type Executor func(ctx context.Context, work func(context.Context) error) error

// ActionModule provides action.define() to Lua
type ActionModule struct {
	registry *actions.Registry
	exec     Executor

	mu      sync.Mutex
	defined []string
}

// NewActionModule creates a new action module
func NewActionModule(registry *actions.Registry, exec Executor) *ActionModule {
	return &ActionModule{registry: registry, exec: exec}
}

// Loader is the module loader for Lua
func (m *ActionModule) Loader(L *lua.LState) int {
	mod := L.NewTable()
	L.SetField(mod, "define", L.NewFunction(m.define))
	L.SetField(mod, "names", L.NewFunction(m.names))
	L.Push(mod)
	return 1
}

// Defined returns the names of actions defined by scripts, sorted
func (m *ActionModule) Defined() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]string(nil), m.defined...)
	sort.Strings(out)
	return out
}

// define(name, function(ctx) ... end, {scenes = {...}}?)
func (m *ActionModule) define(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	opts := L.OptTable(3, L.NewTable())

	var scenes []string
	if tbl, ok := opts.RawGetString("scenes").(*lua.LTable); ok {
		tbl.ForEach(func(_, v lua.LValue) {
			scenes = append(scenes, lua.LVAsString(v))
		})
	}

	action := &scriptAction{
		L:      L,
		name:   name,
		scenes: scenes,
		fn:     fn,
		exec:   m.exec,
	}
	if err := m.registry.Register(action); err != nil {
		L.RaiseError("failed to register action: %s", err.Error())
		return 0
	}

	m.mu.Lock()
	m.defined = append(m.defined, name)
	m.mu.Unlock()
	return 0
}

// names() returns every registered action name, built-ins included
func (m *ActionModule) names(L *lua.LState) int {
	tbl := L.NewTable()
	for _, n := range m.registry.Names() {
		tbl.Append(lua.LString(n))
	}
	L.Push(tbl)
	return 1
}

// scriptAction runs a Lua function as an action. The function receives a
// ctx table bound to the button's group; raising an error fails the action.
type scriptAction struct {
	L      *lua.LState
	name   string
	scenes []string
	fn     *lua.LFunction
	exec   Executor
}

func (a *scriptAction) Name() string     { return a.name }
func (a *scriptAction) Scenes() []string { return a.scenes }

func (a *scriptAction) Execute(actx *actions.Context) error {
	return a.exec(actx.Ctx(), func(ctx context.Context) error {
		a.L.SetContext(ctx)
		ctxTable := newContextTable(a.L, actx)

		a.L.Push(a.fn)
		a.L.Push(ctxTable)
		if err := a.L.PCall(1, 0, nil); err != nil {
			var apiErr *lua.ApiError
			if errors.As(err, &apiErr) && strings.HasSuffix(lua.LVAsString(apiErr.Object), actions.ErrAbandoned.Error()) {
				return actions.ErrAbandoned
			}
			return fmt.Errorf("lua action %q: %w", a.name, err)
		}
		return nil
	})
}
