package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lifxswitch/internal/config"
	"github.com/dokzlo13/lifxswitch/internal/discovery"
	"github.com/dokzlo13/lifxswitch/internal/group"
	"github.com/dokzlo13/lifxswitch/internal/lifx"
)

// LIFXService owns the LAN client and the discovery loop feeding the groups.
type LIFXService struct {
	cfg      *config.Config
	groups   *group.Registry
	recorder discovery.Recorder
	observer discovery.Observer

	Network   *lifx.Network
	Discovery *discovery.Loop
}

// NewLIFXService creates the service; the client is dialled in Start.
func NewLIFXService(cfg *config.Config, groups *group.Registry, recorder discovery.Recorder, observer discovery.Observer) *LIFXService {
	return &LIFXService{
		cfg:      cfg,
		groups:   groups,
		recorder: recorder,
		observer: observer,
	}
}

// Start opens the LAN client and prepares the discovery loop.
func (s *LIFXService) Start(ctx context.Context) error {
	network, err := lifx.Dial(lifx.Config{
		DiscoveryInterval: s.cfg.LIFX.DiscoveryInterval.Duration(),
		Timeout:           s.cfg.LIFX.Timeout.Duration(),
		RetryInterval:     s.cfg.LIFX.RetryInterval.Duration(),
		RateLimitRPS:      s.cfg.LIFX.RateLimitRPS,
		Reliable:          s.cfg.LIFX.IsReliable(),
	})
	if err != nil {
		return err
	}
	s.Network = network

	s.Discovery = discovery.New(network, s.groups, discovery.Config{
		MinInterval: s.cfg.Discovery.MinInterval.Duration(),
		Step:        s.cfg.Discovery.Step.Duration(),
		MaxInterval: s.cfg.Discovery.MaxInterval.Duration(),
	}, s.recorder, s.observer)

	log.Info().
		Float64("rate_limit_rps", s.cfg.LIFX.RateLimitRPS).
		Bool("reliable", s.cfg.LIFX.IsReliable()).
		Strs("groups", s.groups.Names()).
		Msg("LIFX client ready")
	return nil
}

// StartBackground runs the discovery loop until ctx is cancelled.
func (s *LIFXService) StartBackground(ctx context.Context) {
	go func() {
		if err := s.Discovery.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Discovery error")
		}
	}()
}

// Close releases the LAN client.
func (s *LIFXService) Close() error {
	if s.Network != nil {
		return s.Network.Close()
	}
	return nil
}
