package app

import (
	"context"

	"github.com/dokzlo13/lifxswitch/internal/actions"
	"github.com/dokzlo13/lifxswitch/internal/config"
	luart "github.com/dokzlo13/lifxswitch/internal/lua"
)

// LuaService wraps the Lua runtime hosting scripted actions.
// It is inert when no script is configured.
type LuaService struct {
	cfg     *config.Config
	Runtime *luart.Runtime
}

// NewLuaService creates a new LuaService.
func NewLuaService(cfg *config.Config, registry *actions.Registry) *LuaService {
	s := &LuaService{cfg: cfg}
	if cfg.Script != "" {
		s.Runtime = luart.NewRuntime(registry)
	}
	return s
}

// LoadScript executes the configured script. Must be called before Start().
func (s *LuaService) LoadScript() error {
	if s.Runtime == nil {
		return nil
	}
	return s.Runtime.LoadScript(s.cfg.Script)
}

// Start begins the Lua worker goroutine - the only goroutine that touches Lua.
func (s *LuaService) Start(ctx context.Context) {
	if s.Runtime == nil {
		return
	}
	go s.Runtime.Run(ctx)
}

// Close releases the Lua state.
func (s *LuaService) Close() {
	if s.Runtime != nil {
		s.Runtime.Close()
	}
}
