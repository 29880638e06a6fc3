// Package mqtt publishes prediction events to an MQTT topic.
package mqtt

import (
	"context"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"powerpulse/internal/log"
	"powerpulse/internal/notify"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	qos            = 0
)

// Config names the broker and topic.
type Config struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
}

// Publisher delivers events at QoS 0.
type Publisher struct {
	client paho.Client
	topic  string
	logger *log.Logger
}

// New connects to the broker.
func New(cfg Config, logger *log.Logger) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required")
	}
	if logger == nil {
		logger = log.Default()
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(brokerURL(cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(connectTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client: client,
		topic:  cfg.Topic,
		logger: logger.WithComponent(log.ComponentMQTT),
	}, nil
}

// brokerURL adds the tcp scheme when the address has none.
func brokerURL(addr string) string {
	if strings.Contains(addr, "://") {
		return addr
	}
	return "tcp://" + addr
}

func (p *Publisher) Publish(ctx context.Context, e notify.PredictionEvent) error {
	body, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	token := p.client.Publish(p.topic, qos, false, body)
	deadline := publishTimeout
	if d, ok := ctx.Deadline(); ok && time.Until(d) < deadline {
		deadline = time.Until(d)
	}
	if !token.WaitTimeout(deadline) {
		return fmt.Errorf("publish to %s: timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}

	p.logger.DebugContext(ctx, "Published prediction event", log.FieldID, e.ID, "topic", p.topic)
	return nil
}

func (p *Publisher) Backend() string {
	return notify.BackendMQTT
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() error {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	return nil
}
