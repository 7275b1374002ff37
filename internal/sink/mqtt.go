package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTOptions configures the MQTT sink.
type MQTTOptions struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
}

// Publisher is the part of mqtt.Client the sink uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes each record to <prefix>/<event>.
type MQTT struct {
	client Publisher
	prefix string
	qos    byte
}

// NewMQTT connects to the broker.
func NewMQTT(opts MQTTOptions) (*MQTT, error) {
	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	if opts.Username != "" {
		co.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		co.SetPassword(opts.Password)
	}
	co.SetAutoReconnect(true)
	co.SetCleanSession(true)
	co.SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(co)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to mqtt broker %s: %w", opts.Broker, token.Error())
	}
	return NewMQTTWithClient(client, opts.TopicPrefix, opts.QoS), nil
}

// NewMQTTWithClient wraps an existing publisher.
func NewMQTTWithClient(client Publisher, prefix string, qos byte) *MQTT {
	return &MQTT{client: client, prefix: prefix, qos: qos}
}

// Topic returns the topic an event is published on.
func (m *MQTT) Topic(event string) string {
	if m.prefix == "" {
		return event
	}
	return m.prefix + "/" + event
}

// Name implements Sink.
func (m *MQTT) Name() string { return "mqtt" }

// Write implements Sink.
func (m *MQTT) Write(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.Topic(rec.Name), m.qos, false, body)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publishing %s: %w", rec.Name, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing %s: %w", rec.Name, err)
	}
	return nil
}

// Close implements Sink.
func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
