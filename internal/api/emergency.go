package api

import (
	"context"
	"net/http"
)

// SOSRequest is the emergency alert payload.
type SOSRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Message   string  `json:"message,omitempty"`
}

// SOSResult acknowledges an emergency alert.
type SOSResult struct {
	AlertID int    `json:"alert_id"`
	Status  string `json:"status"`
}

// SendSOS raises an emergency alert. Unlike queue joins, emergencies are not
// queued offline; the caller must surface a hard failure to the user instead.
func (c *Client) SendSOS(ctx context.Context, req SOSRequest) (*SOSResult, error) {
	var result SOSResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/emergency/sos", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
