// Package events publishes service lifecycle events for shop-floor displays.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/garage-service/internal/models"
)

// Event types.
const (
	ServiceCreated   = "service.created"
	ServiceCompleted = "service.completed"
)

// Event is the JSON payload published for a service state change.
type Event struct {
	Type       string              `json:"type"`
	ServiceID  string              `json:"service_id"`
	VehicleID  string              `json:"vehicle_id"`
	Plate      string              `json:"plate,omitempty"`
	Date       string              `json:"date"`
	State      models.ServiceState `json:"state"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// NewServiceEvent builds an event of type t for s. Plate may be empty.
func NewServiceEvent(t string, s models.Service, plate string) Event {
	return Event{
		Type:       t,
		ServiceID:  s.ID,
		VehicleID:  s.VehicleID,
		Plate:      plate,
		Date:       s.Date,
		State:      s.State,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events. Implementations make a single attempt.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close()                              {}

// mqttClient is the subset of mqtt.Client the publisher uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes events as JSON to <prefix>/services/<action>.
type MQTTPublisher struct {
	client  mqttClient
	prefix  string
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewMQTTPublisher connects to broker (e.g. tcp://localhost:1883).
func NewMQTTPublisher(broker, clientID, prefix string, log logrus.FieldLogger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connecting to MQTT broker %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", broker, err)
	}
	log.WithField("broker", broker).Info("Connected to MQTT broker")
	return newMQTTPublisher(client, prefix, log), nil
}

func newMQTTPublisher(client mqttClient, prefix string, log logrus.FieldLogger) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix, timeout: 5 * time.Second, log: log}
}

// Topic returns the topic an event type is published to.
func Topic(prefix, eventType string) string {
	action := strings.TrimPrefix(eventType, "service.")
	return strings.TrimSuffix(prefix, "/") + "/services/" + action
}

func (p *MQTTPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	topic := Topic(p.prefix, e.Type)
	token := p.client.Publish(topic, 1, false, payload)

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publishing to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	p.log.WithFields(logrus.Fields{"topic": topic, "service_id": e.ServiceID}).Debug("Event published")
	return nil
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
