package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	"github.com/xvierd/anchor-cli/internal/config"
	"github.com/xvierd/anchor-cli/internal/ports"
)

const mqttConnectTimeout = 5 * time.Second

// Message is the JSON payload published for every notification.
type Message struct {
	Title  string    `json:"title"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}

// MQTT publishes notifications to a broker topic so phones or home
// automation can pick them up.
type MQTT struct {
	client mqtt.Client
	topic  string
}

// Ensure MQTT implements ports.Notifier.
var _ ports.Notifier = (*MQTT)(nil)

// NewMQTT connects to the configured broker.
func NewMQTT(cfg config.NotificationConfig) (*MQTT, error) {
	if cfg.MQTTBroker == "" {
		return nil, fmt.Errorf("mqtt broker not configured")
	}
	topic := cfg.MQTTTopic
	if topic == "" {
		topic = "anchor/notifications"
	}
	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = "anchor-cli"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(clientID)
	opts.SetUsername(cfg.MQTTUsername)
	opts.SetPassword(cfg.MQTTPassword)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetAutoReconnect(true)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", cfg.MQTTBroker).Msg("mqtt connection lost")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: timed out", cfg.MQTTBroker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.MQTTBroker, err)
	}

	return &MQTT{client: client, topic: topic}, nil
}

// Topic returns the topic notifications are published to.
func (n *MQTT) Topic() string {
	return n.topic
}

// Send publishes the notification with QoS 1.
func (n *MQTT) Send(ctx context.Context, title, text string) error {
	payload, err := json.Marshal(Message{Title: title, Text: text, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	token := n.client.Publish(n.topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("failed to publish to %s: %w", n.topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", n.topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (n *MQTT) Close() {
	n.client.Disconnect(250)
}
