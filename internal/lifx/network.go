// Package lifx adapts the golifx LAN client to the device contract.
package lifx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pdf/golifx"
	"github.com/pdf/golifx/protocol"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/dokzlo13/lifxswitch/internal/device"
)

// Config contains LAN client settings.
type Config struct {
	DiscoveryInterval time.Duration // golifx background discovery interval
	Timeout           time.Duration // per-request timeout
	RetryInterval     time.Duration // resend interval for reliable requests
	RateLimitRPS      float64       // outgoing message rate across all bulbs
	Reliable          bool          // request acknowledgements for every message
}

// Network discovers LIFX devices on the LAN.
type Network struct {
	client  *golifx.Client
	limiter *rate.Limiter

	mu      sync.Mutex
	devices map[uint64]*Device
}

// Dial creates the LAN client and starts background discovery.
func Dial(cfg Config) (*Network, error) {
	client, err := golifx.NewClient(&protocol.V2{Reliable: cfg.Reliable})
	if err != nil {
		return nil, fmt.Errorf("failed to create lifx client: %w", err)
	}

	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	if cfg.RetryInterval > 0 {
		client.SetRetryInterval(cfg.RetryInterval)
	}
	if cfg.DiscoveryInterval > 0 {
		if err := client.SetDiscoveryInterval(cfg.DiscoveryInterval); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set discovery interval: %w", err)
		}
	}

	log.Info().
		Dur("timeout", cfg.Timeout).
		Float64("rate_limit_rps", cfg.RateLimitRPS).
		Bool("reliable", cfg.Reliable).
		Msg("LIFX client started")

	return &Network{
		client:  client,
		limiter: newLimiter(cfg.RateLimitRPS),
		devices: make(map[uint64]*Device),
	}, nil
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		rps = 20
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Discover returns the devices the client currently knows about.
// Handles are stable per hardware address across calls.
func (n *Network) Discover(ctx context.Context) ([]device.Device, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	found, err := n.client.GetDevices()
	if err != nil {
		return nil, fmt.Errorf("lifx discovery: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]device.Device, 0, len(found))
	for _, d := range found {
		wrapped, ok := n.devices[d.ID()]
		if !ok {
			wrapped = newDevice(d, n.limiter)
			n.devices[d.ID()] = wrapped
		}
		out = append(out, wrapped)
	}
	return out, nil
}

// Close shuts down the LAN client.
func (n *Network) Close() error {
	return n.client.Close()
}
