// Package notify pushes plan alerts to operations channels. The only
// transport today is MQTT; a disabled config yields a no-op notifier so
// callers never branch.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/skyfreight/cargoplan/core/disruption"
	"github.com/skyfreight/cargoplan/infra/logger"
)

// Config defines the connection parameters for the alert publisher.
type Config struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Broker   string `json:"broker" yaml:"broker"`
	ClientID string `json:"client_id" yaml:"client_id"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	Topic    string `json:"topic" yaml:"topic"`
	QoS      byte   `json:"qos" yaml:"qos"`
}

// Notifier publishes alerts.
type Notifier interface {
	PublishAlerts(runID string, alerts []disruption.Alert) error
	Close()
}

// NopNotifier discards alerts.
type NopNotifier struct{}

// PublishAlerts implements Notifier.
func (NopNotifier) PublishAlerts(string, []disruption.Alert) error { return nil }

// Close implements Notifier.
func (NopNotifier) Close() {}

// MQTTNotifier publishes alerts as JSON messages over MQTT.
type MQTTNotifier struct {
	cli   paho.Client
	topic string
	qos   byte
	log   logger.Logger
}

// New connects the configured notifier, or returns a NopNotifier when
// disabled.
func New(cfg Config) (Notifier, error) {
	if !cfg.Enabled {
		return NopNotifier{}, nil
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "cargoplan-" + uuid.NewString()
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "cargoplan/alerts"
	}

	log := logger.New("mqtt-notifier")
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Warnf("MQTT connection lost: %v", err)
	}

	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", cfg.Broker, token.Error())
	}
	return &MQTTNotifier{cli: cli, topic: topic, qos: cfg.QoS, log: log}, nil
}

type alertMessage struct {
	RunID  string             `json:"run_id"`
	SentAt time.Time          `json:"sent_at"`
	Alerts []disruption.Alert `json:"alerts"`
}

// PublishAlerts sends the full alert batch as one message.
func (n *MQTTNotifier) PublishAlerts(runID string, alerts []disruption.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	payload, err := json.Marshal(alertMessage{RunID: runID, SentAt: time.Now().UTC(), Alerts: alerts})
	if err != nil {
		return fmt.Errorf("marshal alerts: %w", err)
	}
	token := n.cli.Publish(n.topic, n.qos, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish alerts: %w", token.Error())
	}
	n.log.Debugf("published %d alerts to %s", len(alerts), n.topic)
	return nil
}

// Close disconnects the underlying client.
func (n *MQTTNotifier) Close() {
	n.cli.Disconnect(250)
}
