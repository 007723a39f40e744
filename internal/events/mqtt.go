package events

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/languard-core/internal/engine"
	"github.com/nerrad567/languard-core/internal/infrastructure/mqtt"
)

// Publisher is the subset of *mqtt.Client the publisher needs.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// Logger is the logging interface used by observers.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// SummaryMessage is published on languard/core/summary after each sweep.
type SummaryMessage struct {
	engine.Summary
	Devices   int       `json:"devices"`
	Timestamp time.Time `json:"timestamp"`
}

// MQTTPublisher publishes engine output over MQTT.
type MQTTPublisher struct {
	client Publisher
	topics mqtt.Topics
	now    func() time.Time
	logger Logger
}

// NewMQTTPublisher creates a publisher writing through client.
func NewMQTTPublisher(client Publisher) *MQTTPublisher {
	return &MQTTPublisher{
		client: client,
		now:    time.Now,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for publish failures.
func (p *MQTTPublisher) SetLogger(logger Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// DevicesUpdated publishes every view retained on its presence topic,
// then the summary. Publishing stops at the first ErrNotConnected.
func (p *MQTTPublisher) DevicesUpdated(_ context.Context, views []engine.DeviceView) {
	for _, v := range views {
		if err := p.client.PublishJSON(p.topics.DevicePresence(v.MAC), v, true); err != nil {
			p.logger.Warn("publishing device presence failed", "mac", v.MAC, "error", err)
			if errors.Is(err, mqtt.ErrNotConnected) {
				return
			}
		}
	}

	msg := SummaryMessage{
		Summary:   engine.Summarize(views),
		Devices:   len(views),
		Timestamp: p.now().UTC(),
	}
	if err := p.client.PublishJSON(p.topics.CoreSummary(), msg, true); err != nil {
		p.logger.Warn("publishing summary failed", "error", err)
		return
	}
	p.logger.Debug("published device presence", "devices", len(views))
}

// BlockChanged publishes a ledger change. Block events are not retained.
func (p *MQTTPublisher) BlockChanged(_ context.Context, change engine.BlockChange) {
	if err := p.client.PublishJSON(p.topics.CoreBlock(change.MAC), change, false); err != nil {
		p.logger.Warn("publishing block change failed", "mac", change.MAC, "action", change.Action, "error", err)
	}
}
