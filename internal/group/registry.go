// Package group holds the named logical groups of devices the buttons control.
package group

import (
	"sort"
	"strings"
	"sync"

	"github.com/dokzlo13/lifxswitch/internal/device"
)

// Registry holds named groups. Group names are case-insensitive.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]*Group
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*Group)}
}

// Normalize returns the registry key for a group label.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GetOrCreate returns the group with the given name, declaring it if needed.
func (r *Registry) GetOrCreate(name string) *Group {
	key := Normalize(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[key]
	if !ok {
		g = newGroup(key)
		r.groups[key] = g
	}
	return g
}

// Lookup returns a previously declared group.
func (r *Registry) Lookup(name string) (*Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[Normalize(name)]
	return g, ok
}

// Assign adds dev to the declared group named label. It returns false when the
// label names no declared group or the device is already a member.
// A device that was a member of a different group is moved.
func (r *Registry) Assign(label string, dev device.Device) (added bool, movedFrom string) {
	key := Normalize(label)

	r.mu.RLock()
	target, ok := r.groups[key]
	var previous *Group
	if ok {
		for name, g := range r.groups {
			if name != key && g.Contains(dev.ID()) {
				previous = g
				break
			}
		}
	}
	r.mu.RUnlock()

	if !ok {
		return false, ""
	}
	if !target.Add(dev) {
		return false, ""
	}
	if previous != nil {
		previous.Remove(dev.ID())
		return true, previous.Name()
	}
	return true, ""
}

// Names returns the declared group names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Group is a deduplicated, unordered set of devices.
// Groups do not own device lifecycle, only membership.
type Group struct {
	name string

	mu      sync.RWMutex
	devices []device.Device
	index   map[uint64]int
}

func newGroup(name string) *Group {
	return &Group{name: name, index: make(map[uint64]int)}
}

// Name returns the lowercase group name.
func (g *Group) Name() string { return g.name }

// Add inserts dev unless a device with the same identity is already present.
func (g *Group) Add(dev device.Device) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.index[dev.ID()]; exists {
		return false
	}
	g.index[dev.ID()] = len(g.devices)
	g.devices = append(g.devices, dev)
	return true
}

// Remove drops the device with the given identity.
func (g *Group) Remove(id uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	i, ok := g.index[id]
	if !ok {
		return false
	}
	// Copy-on-write so outstanding snapshots are never mutated.
	devices := make([]device.Device, 0, len(g.devices)-1)
	devices = append(devices, g.devices[:i]...)
	devices = append(devices, g.devices[i+1:]...)
	g.devices = devices

	g.index = make(map[uint64]int, len(devices))
	for j, d := range devices {
		g.index[d.ID()] = j
	}
	return true
}

// Contains reports whether a device with the given identity is a member.
func (g *Group) Contains(id uint64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.index[id]
	return ok
}

// Devices returns a snapshot of the current members in insertion order.
func (g *Group) Devices() []device.Device {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]device.Device, len(g.devices))
	copy(out, g.devices)
	return out
}

// Len returns the current member count.
func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.devices)
}
