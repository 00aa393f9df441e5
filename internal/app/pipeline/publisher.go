// Package pipeline turns readings into outbound messages and hands them to
// the transport sender.
package pipeline

import (
	"encoding/json"
	"time"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/domain"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

// Topic suffixes under devices/{device_id}/.
const (
	TopicGas         = "sensors/gas"
	TopicLocation    = "sensors/gps"
	TopicPulse       = "sensors/pulse"
	TopicTemperature = "sensors/temperature"
	TopicStatus      = "status"
)

// Device status values carried by the status topic.
const (
	StatusOnline    = "online"
	StatusWarning   = "warning"
	StatusError     = "error"
	StatusEmergency = "emergency"
)

// Message is one outbound payload. It exists between formatting and the
// send attempt and is dropped afterwards either way; there is no local
// queue on the device.
type Message struct {
	TopicSuffix string
	Payload     []byte
	Timestamp   time.Time
}

type gasPayload struct {
	Value     float64 `json:"value"`
	Status    string  `json:"status"`
	Unit      string  `json:"unit"`
	Timestamp float64 `json:"timestamp"`
}

type locationPayload struct {
	Latitude  string  `json:"latitude"`
	Longitude string  `json:"longitude"`
	Altitude  string  `json:"altitude"`
	Timestamp float64 `json:"timestamp"`
}

type vitalsPayload struct {
	HeartRate int     `json:"heart_rate"`
	SpO2      int     `json:"spo2"`
	Timestamp float64 `json:"timestamp"`
}

type temperaturePayload struct {
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Timestamp float64 `json:"timestamp"`
}

type statusPayload struct {
	Status    string  `json:"status"`
	Message   string  `json:"message,omitempty"`
	Timestamp float64 `json:"timestamp"`
}

// Publisher formats exactly one message per logical payload and attempts
// delivery once. Failure comes back as false, never as an error; the
// reading is discarded either way.
type Publisher struct {
	sender ports.Sender
	clock  ports.Clock
	obs    ports.Observability
}

func NewPublisher(sender ports.Sender, clock ports.Clock, obs ports.Observability) *Publisher {
	return &Publisher{sender: sender, clock: clock, obs: obs}
}

// PublishReading dispatches a reading to its per-kind topic and shape.
func (p *Publisher) PublishReading(r *domain.Reading) bool {
	ts := unixSeconds(r.Timestamp)
	switch r.Kind {
	case domain.KindGas:
		return p.publish(TopicGas, r.Timestamp, gasPayload{
			Value:     r.Value,
			Status:    r.Status.String(),
			Unit:      "adc",
			Timestamp: ts,
		})
	case domain.KindLocation:
		if r.Fix == nil {
			return false
		}
		return p.publish(TopicLocation, r.Timestamp, locationPayload{
			Latitude:  r.Fix.Latitude,
			Longitude: r.Fix.Longitude,
			Altitude:  r.Fix.Altitude,
			Timestamp: ts,
		})
	case domain.KindPulse:
		if r.Vitals == nil {
			return false
		}
		return p.publish(TopicPulse, r.Timestamp, vitalsPayload{
			HeartRate: r.Vitals.HeartRate,
			SpO2:      r.Vitals.SpO2,
			Timestamp: ts,
		})
	case domain.KindTemperature:
		return p.publish(TopicTemperature, r.Timestamp, temperaturePayload{
			Value:     r.Value,
			Unit:      "celsius",
			Timestamp: ts,
		})
	default:
		return false
	}
}

// PublishStatus emits a device status message (online, warning, error,
// emergency) with an optional human-readable detail.
func (p *Publisher) PublishStatus(status, message string) bool {
	now := p.clock.Now()
	return p.publish(TopicStatus, now, statusPayload{
		Status:    status,
		Message:   message,
		Timestamp: unixSeconds(now),
	})
}

func (p *Publisher) publish(topicSuffix string, at time.Time, payload any) bool {
	raw, err := json.Marshal(payload)
	if err != nil {
		p.obs.LogError("payload_marshal_failed", err, ports.Field{Key: "topic", Value: topicSuffix})
		return false
	}

	msg := Message{TopicSuffix: topicSuffix, Payload: raw, Timestamp: at}

	if !p.sender.IsConnected() {
		p.obs.IncCounter("helmet_publish_failed_total", 1)
		return false
	}
	if !p.sender.Send(msg.TopicSuffix, msg.Payload) {
		p.obs.IncCounter("helmet_publish_failed_total", 1)
		return false
	}
	p.obs.IncCounter("helmet_published_total", 1)
	return true
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
