// Package notify publishes recognised gestures to an MQTT broker.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lifxswitch/internal/gesture"
)

var (
	ErrConnectionFailed = errors.New("mqtt connection failed")
	ErrPublishFailed    = errors.New("mqtt publish failed")
)

const (
	defaultKeepAlive         = 60 * time.Second
	defaultDisconnectQuiesce = 1000 // milliseconds
)

// Config contains broker settings
type Config struct {
	Broker      string // e.g. tcp://localhost:1883
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Timeout     time.Duration
}

// Message is the JSON body of a gesture notification
type Message struct {
	ID    string    `json:"id"`
	Pin   int       `json:"pin"`
	Kind  string    `json:"kind"`
	Group string    `json:"group"`
	At    time.Time `json:"at"`
}

// publisher is the part of a broker connection the notifier needs
type publisher interface {
	publish(topic string, retained bool, payload []byte) error
	close(statusTopic string, payload []byte)
}

// Notifier turns gesture events into MQTT messages
type Notifier struct {
	prefix  string
	groupOf func(pin int) string
	pub     publisher
}

// Connect dials the broker and announces the client as online
func Connect(cfg Config, groupOf func(pin int) string) (*Notifier, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	n := &Notifier{prefix: cfg.TopicPrefix, groupOf: groupOf}
	statusTopic := n.StatusTopic()

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(cfg.Timeout).
		SetKeepAlive(defaultKeepAlive).
		SetWill(statusTopic, "offline", cfg.QoS, true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c := &pahoPublisher{qos: cfg.QoS, timeout: cfg.Timeout}
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("MQTT connected")
		// Re-announce after every reconnect
		c.client.Publish(statusTopic, cfg.QoS, true, "online")
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", cfg.Broker).Msg("MQTT connection lost")
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, cfg.Timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	n.pub = c
	return n, nil
}

// Topic returns <prefix>/button/<pin>/<kind>
func (n *Notifier) Topic(ev gesture.Event) string {
	return n.prefix + "/button/" + strconv.Itoa(ev.Pin) + "/" + string(ev.Kind)
}

// StatusTopic returns <prefix>/status
func (n *Notifier) StatusTopic() string {
	return n.prefix + "/status"
}

// Handle is the gesture bus subscriber. Failures are logged and dropped.
func (n *Notifier) Handle(ev gesture.Event) {
	msg := Message{ID: ev.ID, Pin: ev.Pin, Kind: string(ev.Kind), At: ev.At.UTC()}
	if n.groupOf != nil {
		msg.Group = n.groupOf(ev.Pin)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode gesture notification")
		return
	}
	if err := n.pub.publish(n.Topic(ev), false, payload); err != nil {
		log.Warn().Err(err).Str("topic", n.Topic(ev)).Msg("Failed to publish gesture")
	}
}

// Close publishes a retained offline status and disconnects
func (n *Notifier) Close() {
	n.pub.close(n.StatusTopic(), []byte("offline"))
}

type pahoPublisher struct {
	client  pahomqtt.Client
	qos     byte
	timeout time.Duration
}

func (p *pahoPublisher) publish(topic string, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		return fmt.Errorf("%w: not connected", ErrPublishFailed)
	}
	token := p.client.Publish(topic, p.qos, retained, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

func (p *pahoPublisher) close(statusTopic string, payload []byte) {
	if p.client.IsConnectionOpen() {
		p.client.Publish(statusTopic, p.qos, true, payload).WaitTimeout(p.timeout)
	}
	p.client.Disconnect(defaultDisconnectQuiesce)
}
