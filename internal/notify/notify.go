// Package notify publishes threshold alerts for readings in warning or danger.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/esareynor/ffws-jatim-sub001/internal/config"
	"github.com/esareynor/ffws-jatim-sub001/internal/models"
)

type Alert struct {
	SensorCode string    `json:"sensor_code"`
	Status     string    `json:"status"`
	Value      float64   `json:"value"`
	ReceivedAt time.Time `json:"received_at"`
	Source     string    `json:"source"`
}

// Publisher delivers alerts. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, alert Alert) error
	Close()
}

// ShouldAlert reports whether a reading status warrants an alert.
func ShouldAlert(status *string) bool {
	if status == nil {
		return false
	}
	return *status == models.StatusWarning || *status == models.StatusDanger
}

type Nop struct{}

func (Nop) Publish(ctx context.Context, alert Alert) error { return nil }
func (Nop) Close()                                        {}

// Sender is the transport below MQTTPublisher.
type Sender interface {
	Send(topic string, qos byte, payload []byte) error
	Close()
}

type MQTTPublisher struct {
	sender Sender
	prefix string
	qos    byte
	logger *zap.Logger
}

// New returns a Nop publisher when MQTT is disabled.
func New(cfg config.MQTTConfig, logger *zap.Logger) (Publisher, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	sender, err := dialMQTT(cfg)
	if err != nil {
		return nil, err
	}
	return NewMQTTPublisher(sender, cfg.TopicPrefix, byte(cfg.QoS), logger), nil
}

func NewMQTTPublisher(sender Sender, prefix string, qos byte, logger *zap.Logger) *MQTTPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "ffws"
	}
	return &MQTTPublisher{sender: sender, prefix: prefix, qos: qos, logger: logger}
}

// Topic is {prefix}/alerts/{status}/{sensor}.
func (p *MQTTPublisher) Topic(alert Alert) string {
	return fmt.Sprintf("%s/alerts/%s/%s", p.prefix, alert.Status, alert.SensorCode)
}

func (p *MQTTPublisher) Publish(ctx context.Context, alert Alert) error {
	if p == nil || p.sender == nil {
		return errors.New("notify: publisher not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	topic := p.Topic(alert)
	if err := p.sender.Send(topic, p.qos, payload); err != nil {
		return err
	}
	p.logger.Debug("alert published", zap.String("topic", topic), zap.String("sensor", alert.SensorCode), zap.String("status", alert.Status))
	return nil
}

func (p *MQTTPublisher) Close() {
	if p != nil && p.sender != nil {
		p.sender.Close()
	}
}

type mqttSender struct {
	client  mqtt.Client
	timeout time.Duration
}

func dialMQTT(cfg config.MQTTConfig) (*mqttSender, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &mqttSender{client: client, timeout: 5 * time.Second}, nil
}

func (s *mqttSender) Send(topic string, qos byte, payload []byte) error {
	token := s.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}
	return nil
}

func (s *mqttSender) Close() {
	s.client.Disconnect(250)
}
