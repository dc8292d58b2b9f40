package services

import (
	"context"
)

// Типы событий, которые публикуют сервисы
const (
	EventClockIn          = "clock.clockin"
	EventClockOut         = "clock.clockout"
	EventDriverRegistered = "driver.registered"
)

// EventPublisher интерфейс для публикации событий
type EventPublisher interface {
	PublishDriverEvent(ctx context.Context, eventType string, driverID string, data interface{}) error
}
