// ABOUTME: Health check operation against GET /health.
// ABOUTME: The status body is opaque and passed through as-is.

package twin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Health fetches the server's health status. The payload shape is not
// part of the query contract; callers get the decoded object as-is.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decoding health response: %w", err)
	}
	return status, nil
}
