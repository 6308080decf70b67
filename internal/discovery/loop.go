// Package discovery runs the background scan that merges visible devices into
// their configured groups.
package discovery

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lifxswitch/internal/device"
	"github.com/dokzlo13/lifxswitch/internal/group"
)

// Recorder persists device sightings.
type Recorder interface {
	Upsert(ctx context.Context, id uint64, label, group string, seen time.Time) error
}

// Observer receives discovery statistics.
type Observer interface {
	DiscoveryPass(visible int, err error)
	GroupSize(group string, size int)
}

// Config contains loop settings.
type Config struct {
	MinInterval time.Duration
	Step        time.Duration
	MaxInterval time.Duration
}

// Loop periodically scans the network and assigns devices to groups.
type Loop struct {
	network  device.Network
	groups   *group.Registry
	backoff  *Backoff
	recorder Recorder
	observer Observer

	trigger chan struct{}
	lastOK  atomic.Int64 // unix nanos of the last successful pass
}

// New creates a discovery loop. recorder and observer may be nil.
func New(network device.Network, groups *group.Registry, cfg Config, recorder Recorder, observer Observer) *Loop {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 5 * time.Second
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 15 * time.Minute
	}
	return &Loop{
		network:  network,
		groups:   groups,
		backoff:  NewBackoff(cfg.MinInterval, cfg.Step, cfg.MaxInterval),
		recorder: recorder,
		observer: observer,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests an immediate pass and resets the poll interval.
func (l *Loop) Trigger() {
	select {
	case l.trigger <- struct{}{}:
	default:
		// Already triggered
	}
}

// Run scans until ctx is cancelled. Scan failures never stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	log.Info().
		Dur("min_interval", l.backoff.Min).
		Dur("max_interval", l.backoff.Max).
		Msg("Discovery started")

	for {
		visible, ok := l.Scan(ctx)
		wait := l.backoff.Next(visible, ok)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("Discovery stopping")
			return nil
		case <-l.trigger:
			timer.Stop()
			l.backoff.Reset()
		case <-timer.C:
		}
	}
}

// LastSuccess returns when a pass last completed, or the zero time.
func (l *Loop) LastSuccess() time.Time {
	ns := l.lastOK.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Scan runs a single discovery pass and returns the number of visible devices.
func (l *Loop) Scan(ctx context.Context) (int, bool) {
	devices, err := l.network.Discover(ctx)
	if l.observer != nil {
		l.observer.DiscoveryPass(len(devices), err)
	}
	if err != nil {
		log.Warn().Err(err).Msg("Discovery failed")
		return 0, false
	}
	log.Debug().Int("devices", len(devices)).Msg("Discovery pass")
	l.lastOK.Store(time.Now().UnixNano())

	for _, d := range devices {
		if ctx.Err() != nil {
			break
		}
		l.merge(ctx, d)
	}

	if l.observer != nil {
		for _, name := range l.groups.Names() {
			if g, ok := l.groups.Lookup(name); ok {
				l.observer.GroupSize(name, g.Len())
			}
		}
	}
	return len(devices), true
}

func (l *Loop) merge(ctx context.Context, d device.Device) {
	mac := device.MAC(d.ID())

	label, err := d.GroupLabel(ctx)
	if err != nil {
		log.Info().Err(err).Str("mac", mac).Msg("No reply to group query")
		return
	}
	name := group.Normalize(label)

	added, movedFrom := l.groups.Assign(name, d)
	var devLabel string
	if added || l.recorder != nil {
		devLabel, err = d.Label(ctx)
		if err != nil {
			devLabel = mac
		}
	}
	if added {
		event := log.Info().Str("mac", mac).Str("label", devLabel).Str("group", name)
		if movedFrom != "" {
			event = event.Str("from", movedFrom)
		}
		event.Msg("Device added to group")
	}

	if l.recorder != nil {
		if err := l.recorder.Upsert(ctx, d.ID(), devLabel, name, time.Now()); err != nil {
			log.Error().Err(err).Str("mac", mac).Msg("Failed to record device")
		}
	}
}
