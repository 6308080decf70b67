package actions

import (
	"fmt"
	"sort"
	"sync"
)

// Action represents a named, invokable unit of work
type Action interface {
	Name() string
	// Scenes lists the scene names the action reads; buttons bound to the
	// action must define them.
	Scenes() []string
	Execute(ctx *Context) error
}

// SimpleAction is the standard action implementation
type SimpleAction struct {
	name   string
	scenes []string
	fn     func(ctx *Context) error
}

func (a *SimpleAction) Name() string { return a.name }

func (a *SimpleAction) Scenes() []string { return a.scenes }

func (a *SimpleAction) Execute(ctx *Context) error {
	return a.fn(ctx)
}

// Registry holds all registered actions
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry creates a new action registry
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Action),
	}
}

// Register adds an action to the registry
func (r *Registry) Register(action Action) error {
	return r.register(action.Name(), action)
}

// RegisterSimple adds a simple action (convenience method)
func (r *Registry) RegisterSimple(name string, scenes []string, fn func(ctx *Context) error) error {
	return r.Register(&SimpleAction{name: name, scenes: scenes, fn: fn})
}

// Alias makes an existing action available under another name
func (r *Registry) Alias(alias, name string) error {
	action, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("action %q not found", name)
	}
	return r.register(alias, action)
}

func (r *Registry) register(name string, action Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("action %q already registered", name)
	}

	r.actions[name] = action
	return nil
}

// Get retrieves an action by name
func (r *Registry) Get(name string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	action, exists := r.actions[name]
	return action, exists
}

// Resolve looks up an action and checks that scenes define everything it needs.
func (r *Registry) Resolve(name string, scenes map[string]struct{}) (Action, error) {
	action, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown action %q (known: %v)", name, r.Names())
	}
	for _, s := range action.Scenes() {
		if _, ok := scenes[s]; !ok {
			return nil, fmt.Errorf("action %q requires scene %q", name, s)
		}
	}
	return action, nil
}

// Names returns all registered action names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
