// Package notify delivers user-visible alerts to the embedding UI layer.
package notify

import (
	"github.com/careq/queuecore/internal/logging"
	"github.com/careq/queuecore/internal/models"
	"go.uber.org/zap"
)

// Emitter fires a notification. Fire-and-forget: implementations must not
// block the caller and give no delivery guarantee back.
type Emitter interface {
	Notify(n models.Notification)
}

// LogEmitter writes notifications to the structured log. Used standalone in
// headless runs and alongside the hub otherwise.
type LogEmitter struct{}

// Notify implements Emitter.
func (LogEmitter) Notify(n models.Notification) {
	logging.Info("notification",
		zap.String("kind", n.Kind),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
		zap.Any("data", n.Data))
}

// Multi fans a notification out to several emitters.
type Multi []Emitter

// Notify implements Emitter.
func (m Multi) Notify(n models.Notification) {
	for _, e := range m {
		e.Notify(n)
	}
}
