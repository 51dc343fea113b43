// Package publish mirrors polled VMS state onto an MQTT broker.
package publish

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/igraph100/DW-Spectrum/internal/auth"
	"github.com/igraph100/DW-Spectrum/internal/log"
)

const (
	connectTimeout = 30 * time.Second
	publishTimeout = 5 * time.Second
)

// Broker is where snapshots are published. Every message is retained.
type Broker interface {
	Publish(topic string, payload []byte) error
	Close()
}

type BrokerConfig struct {
	URL      string
	Username string
	Password string
	ClientID string
}

type mqttBroker struct {
	client mqtt.Client
}

// Connect dials the MQTT broker. The client reconnects on its own after the
// first successful connection.
func Connect(cfg BrokerConfig) (Broker, error) {
	logger := log.WithComponent("mqtt").WithField("broker", cfg.URL)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.URL)
	if cfg.Username != "" || cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = auth.NewClientID()
	}
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.OnConnect = func(mqtt.Client) { logger.Info("connected") }
	opts.OnConnectionLost = func(_ mqtt.Client, err error) { logger.WithError(err).Warn("connection lost") }

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to %s: timed out", cfg.URL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.URL, err)
	}
	return &mqttBroker{client: c}, nil
}

func (b *mqttBroker) Publish(topic string, payload []byte) error {
	token := b.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	return token.Error()
}

func (b *mqttBroker) Close() {
	b.client.Disconnect(250)
}
