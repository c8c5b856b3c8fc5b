package api

import (
	"context"
	"fmt"
	"net/http"
)

// JoinResult carries the server-assigned placement after joining a queue.
type JoinResult struct {
	QueueNumber   int `json:"queue_number"`
	Position      int `json:"position"`
	EstimatedWait int `json:"estimated_wait"` // minutes
}

// joinRequest is the join-queue payload. Priority and symptoms are forwarded
// verbatim; their interpretation is backend-owned.
type joinRequest struct {
	ServiceID int    `json:"service_id"`
	Priority  string `json:"priority"`
	Symptoms  string `json:"symptoms"`
}

// JoinQueue submits one join request to the backend.
func (c *Client) JoinQueue(ctx context.Context, serviceID int, priority, symptoms string) (*JoinResult, error) {
	var result JoinResult
	body := joinRequest{ServiceID: serviceID, Priority: priority, Symptoms: symptoms}
	if err := c.doJSON(ctx, http.MethodPost, "/api/queue/join", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// QueueStatusResult is a snapshot of the caller's place in a service queue.
type QueueStatusResult struct {
	QueueNumber   int    `json:"queue_number"`
	Position      int    `json:"position"`
	EstimatedWait int    `json:"estimated_wait"`
	Status        string `json:"status"`
}

// QueueStatus fetches the caller's current position in a service queue.
func (c *Client) QueueStatus(ctx context.Context, serviceID int) (*QueueStatusResult, error) {
	var result QueueStatusResult
	path := fmt.Sprintf("/api/queue/status/%d", serviceID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
