package api

import (
	"context"
	"net/http"

	"github.com/careq/queuecore/internal/models"
)

// BookAppointmentRequest is the appointment booking payload.
type BookAppointmentRequest struct {
	ServiceID int    `json:"service_id"`
	Date      string `json:"date"`
	TimeSlot  string `json:"time_slot"`
	Notes     string `json:"notes,omitempty"`
}

// BookAppointment books an appointment slot.
func (c *Client) BookAppointment(ctx context.Context, req BookAppointmentRequest) (*models.Appointment, error) {
	var appt models.Appointment
	if err := c.doJSON(ctx, http.MethodPost, "/api/appointments", req, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

// ListAppointments returns the caller's appointments.
func (c *Client) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	var appts []models.Appointment
	if err := c.doJSON(ctx, http.MethodGet, "/api/appointments", nil, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}
