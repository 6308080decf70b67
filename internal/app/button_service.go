package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lifxswitch/internal/actions"
	"github.com/dokzlo13/lifxswitch/internal/config"
	"github.com/dokzlo13/lifxswitch/internal/controller"
	"github.com/dokzlo13/lifxswitch/internal/device"
	"github.com/dokzlo13/lifxswitch/internal/eventbus"
	"github.com/dokzlo13/lifxswitch/internal/gesture"
	"github.com/dokzlo13/lifxswitch/internal/gpio"
	"github.com/dokzlo13/lifxswitch/internal/notify"
)

// ButtonService connects GPIO input, the gesture classifier, the gesture bus,
// the action dispatcher and the optional MQTT notifier.
//
// Gestures go to two buses: Bus runs actions, Notices feeds the notifier.
// A slow broker backs up Notices only.
type ButtonService struct {
	cfg      *config.Config
	services *Services
	connect  func(notify.Config, func(pin int) string) (*notify.Notifier, error)

	Bus        *eventbus.Bus
	Notices    *eventbus.Bus
	Controller *controller.Controller
	Watcher    *gpio.Watcher
	Notifier   *notify.Notifier
}

// NewButtonService creates the service and its gesture buses.
func NewButtonService(cfg *config.Config, services *Services) *ButtonService {
	return &ButtonService{
		cfg:      cfg,
		services: services,
		connect:  notify.Connect,
		Bus:      eventbus.NewWithConfig(cfg.EventBus.Workers, cfg.EventBus.QueueSize),
		Notices:  eventbus.NewWithConfig(1, cfg.EventBus.QueueSize),
	}
}

func (s *ButtonService) emit(ev gesture.Event) {
	s.Bus.Publish(ev)
	s.Notices.Publish(ev)
}

// Bind builds the controller and resolves every configured button. It does
// not touch the network or GPIO.
func (s *ButtonService) Bind(ctx context.Context, discoverer controller.Discoverer) error {
	s.Controller = controller.New(ctx, controller.Options{
		Groups:    s.services.Groups,
		Actions:   s.services.Registry,
		Invoker:   s.services.Invoker,
		Ledger:    s.services.Ledger,
		Discovery: discoverer,
		Observer:  s.services.Metrics,
		Emit:      s.emit,
	})

	for _, pin := range s.cfg.Pins() {
		spec, err := buttonSpec(s.cfg, pin)
		if err != nil {
			return err
		}
		if _, err := s.Controller.Bind(spec); err != nil {
			return err
		}
	}
	s.Bus.SubscribeAll(s.Controller.Dispatch)

	return nil
}

// Start connects the notifier, then requests the GPIO lines. Presses are live
// once this returns.
func (s *ButtonService) Start(ctx context.Context) error {
	if s.cfg.MQTT.Enabled {
		s.startNotifier()
	}

	if !s.cfg.GPIO.IsEnabled() {
		log.Warn().Msg("GPIO disabled, buttons will not be watched")
		return nil
	}

	s.Watcher = gpio.NewWatcher(gpio.Config{
		Chip:      s.cfg.GPIO.Chip,
		PullUp:    s.cfg.GPIO.IsPullUp(),
		ActiveLow: s.cfg.GPIO.IsActiveLow(),
		Debounce:  s.cfg.GPIO.Debounce.Duration(),
	}, s.Controller)

	lines := make([]gpio.ButtonLine, 0, len(s.cfg.Buttons))
	for _, pin := range s.cfg.Pins() {
		b := s.cfg.Buttons[pin]
		lines = append(lines, gpio.ButtonLine{
			Pin:        pin,
			HoldTime:   b.HoldTime.Duration(),
			HoldRepeat: b.HoldRepeat,
		})
	}
	return s.Watcher.Watch(lines)
}

func (s *ButtonService) startNotifier() {
	n, err := s.connect(notify.Config{
		Broker:      s.cfg.MQTT.Broker,
		ClientID:    s.cfg.MQTT.ClientID,
		Username:    s.cfg.MQTT.Username,
		Password:    s.cfg.MQTT.Password,
		TopicPrefix: s.cfg.MQTT.TopicPrefix,
		QoS:         s.cfg.MQTT.QoS,
		Timeout:     s.cfg.MQTT.Timeout.Duration(),
	}, s.Controller.GroupOf)
	if err != nil {
		// Buttons keep working without notifications
		log.Error().Err(err).Str("broker", s.cfg.MQTT.Broker).Msg("MQTT notifier disabled")
		return
	}
	s.Notifier = n
	s.Notices.SubscribeAll(n.Handle)
}

// Close stops input first, then drains both buses.
func (s *ButtonService) Close() error {
	var err error
	if s.Watcher != nil {
		err = s.Watcher.Close()
	}
	if s.Controller != nil {
		s.Controller.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
	defer cancel()
	s.Bus.Close(ctx)
	s.Notices.Close(ctx)

	if s.Notifier != nil {
		s.Notifier.Close()
	}
	return err
}

// buttonSpec converts one button's configuration.
func buttonSpec(cfg *config.Config, pin int) (controller.ButtonSpec, error) {
	b := cfg.Buttons[pin]
	match, err := b.MatchFields()
	if err != nil {
		return controller.ButtonSpec{}, err
	}
	return controller.ButtonSpec{
		Pin:         pin,
		Group:       b.Group,
		HoldTime:    b.HoldTime.Duration(),
		DoubleClick: cfg.Timing.DoubleClick.Duration(),
		Actions: map[gesture.Kind]string{
			gesture.Single: b.Single,
			gesture.Double: b.Double,
			gesture.Long:   b.Long,
		},
		Target: actions.Target{
			Pin:    pin,
			Scenes: b.SceneColors(),
			Transition: device.Transition{
				Duration: b.Transition.Duration(),
				Fast:     b.IsFast(),
			},
			Match: match,
		},
	}, nil
}
