package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lifxswitch/internal/actions"
	"github.com/dokzlo13/lifxswitch/internal/config"
	"github.com/dokzlo13/lifxswitch/internal/db"
	"github.com/dokzlo13/lifxswitch/internal/group"
	"github.com/dokzlo13/lifxswitch/internal/inventory"
	"github.com/dokzlo13/lifxswitch/internal/ledger"
	"github.com/dokzlo13/lifxswitch/internal/metrics"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB        *db.DB
	Ledger    *ledger.Ledger
	Inventory *inventory.Store
	Metrics   *metrics.Metrics

	// Domain
	Groups   *group.Registry
	Registry *actions.Registry
	Invoker  *actions.Invoker

	// High-level services
	LIFX    *LIFXService
	Lua     *LuaService
	Buttons *ButtonService
	Health  *HealthService
	Cleanup *LedgerService
}

// NewServices creates all services with proper dependency injection.
// Nothing touches the network or GPIO until Start.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database
	s.Ledger = ledger.New(database.DB)
	s.Inventory = inventory.New(database.DB)
	s.Metrics = metrics.New()

	// Groups are declared up front; discovery only fills declared groups
	s.Groups = group.NewRegistry()
	for _, pin := range cfg.Pins() {
		s.Groups.GetOrCreate(cfg.Buttons[pin].Group)
	}

	s.Registry = actions.NewRegistry()
	if err := actions.RegisterBuiltins(s.Registry); err != nil {
		s.Close()
		return nil, err
	}
	s.Invoker = actions.NewInvoker(s.Ledger, s.Metrics)

	s.Lua = NewLuaService(cfg, s.Registry)
	s.LIFX = NewLIFXService(cfg, s.Groups, s.Inventory, s.Metrics)
	s.Buttons = NewButtonService(cfg, s)
	s.Health = NewHealthService(cfg, s)
	s.Cleanup = NewLedgerService(cfg, s.Ledger)

	return s, nil
}

// Start starts all services in dependency order. Configuration errors
// (unknown actions, missing scenes) surface here before GPIO is touched.
func (s *Services) Start(ctx context.Context) error {
	// Scripted actions must exist before buttons are bound
	if err := s.Lua.LoadScript(); err != nil {
		return err
	}

	if err := s.LIFX.Start(ctx); err != nil {
		return err
	}

	if err := s.Buttons.Bind(ctx, s.LIFX.Discovery); err != nil {
		return err
	}

	s.Lua.Start(ctx)
	s.LIFX.StartBackground(ctx)
	s.Health.Start(ctx)
	s.Cleanup.Start(ctx)

	// GPIO last: from here on presses reach the controller
	return s.Buttons.Start(ctx)
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	return s.Close()
}

// Close releases all resources in reverse dependency order.
func (s *Services) Close() error {
	var errs []error
	if s.Buttons != nil {
		errs = append(errs, s.Buttons.Close())
	}
	if s.Lua != nil {
		s.Lua.Close()
	}
	if s.LIFX != nil {
		errs = append(errs, s.LIFX.Close())
	}
	if s.DB != nil {
		errs = append(errs, s.DB.Close())
	}
	err := errors.Join(errs...)
	if err != nil {
		log.Error().Err(err).Msg("Errors while closing services")
	}
	return err
}
