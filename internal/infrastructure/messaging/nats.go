// Package messaging рассылает события об отметках во внешние системы
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shift-tracker/internal/config"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Envelope сообщение, которое уходит в брокер
type Envelope struct {
	ID         string      `json:"id"`
	EventType  string      `json:"event_type"`
	DriverID   string      `json:"driver_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data,omitempty"`
}

// NATSPublisher публикует события водителей в NATS.
// Тема строится как <subject_prefix>.<event_type>.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger
}

// NewNATSPublisher подключается к NATS
func NewNATSPublisher(cfg *config.NATSConfig, logger *zap.Logger) (*NATSPublisher, error) {
	logger.Info("Connecting to NATS", zap.String("url", cfg.URL))

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.ClientID),
		nats.Timeout(cfg.ConnectTimeout),
		nats.ReconnectWait(cfg.ReconnectDelay),
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.PingInterval(cfg.PingInterval),
		nats.MaxPingsOutstanding(cfg.MaxPingsOut),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("Successfully connected to NATS")

	return &NATSPublisher{
		conn:   conn,
		prefix: cfg.SubjectPrefix,
		logger: logger,
	}, nil
}

// Subject возвращает тему для типа события
func Subject(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// NewEnvelope собирает сообщение о событии
func NewEnvelope(eventType, driverID string, data interface{}) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		EventType:  eventType,
		DriverID:   driverID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// PublishDriverEvent публикует событие водителя
func (p *NATSPublisher) PublishDriverEvent(ctx context.Context, eventType string, driverID string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(NewEnvelope(eventType, driverID, data))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := Subject(p.prefix, eventType)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.logger.Debug("Event published",
		zap.String("subject", subject),
		zap.String("driver_id", driverID),
	)
	return nil
}

// Close сбрасывает буфер и закрывает соединение
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}

// LogPublisher пишет события в лог, используется при выключенном NATS
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher создает LogPublisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishDriverEvent(ctx context.Context, eventType string, driverID string, data interface{}) error {
	p.logger.Info("Publishing driver event",
		zap.String("event_type", eventType),
		zap.String("driver_id", driverID),
		zap.Any("data", data),
	)
	return nil
}
