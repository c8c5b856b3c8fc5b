package api

import (
	"context"
	"net/http"
)

// Health pings the backend health endpoint. A nil error means the backend is
// reachable; the reachability probe is built on this call.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/health", nil, nil)
}
