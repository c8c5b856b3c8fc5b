// Package emergency sends SOS alerts to the hospital backend.
package emergency

import (
	"context"

	"github.com/careq/queuecore/internal/api"
	"github.com/careq/queuecore/internal/logging"
	"github.com/careq/queuecore/internal/models"
	"github.com/careq/queuecore/internal/notify"
	"go.uber.org/zap"
)

type backend interface {
	SendSOS(ctx context.Context, req api.SOSRequest) (*api.SOSResult, error)
}

type Service struct {
	backend  backend
	notifier notify.Emitter
}

func NewService(backend backend, notifier notify.Emitter) *Service {
	return &Service{backend: backend, notifier: notifier}
}

// SendSOS dispatches an emergency alert and emits an emergency.sent
// notification on success. Errors are returned to the caller; there is no
// retry queue for emergencies.
func (s *Service) SendSOS(ctx context.Context, lat, lon float64, message string) (*api.SOSResult, error) {
	res, err := s.backend.SendSOS(ctx, api.SOSRequest{
		Latitude:  lat,
		Longitude: lon,
		Message:   message,
	})
	if err != nil {
		logging.Error("sos dispatch failed", zap.Error(err))
		return nil, err
	}

	s.notifier.Notify(models.Notification{
		Kind:    models.NotifyEmergencySent,
		Title:   "Emergency alert sent",
		Message: "Help is on the way",
		Data: map[string]interface{}{
			"alert_id": res.AlertID,
		},
	})
	return res, nil
}
