// ABOUTME: Non-streaming query operation against POST /api/query.
// ABOUTME: Returns the full answer payload as a single JSON body.

package twin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Query sends a question to the non-streaming endpoint and returns the
// answer payload. Non-2xx statuses become *APIError.
func (c *Client) Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error) {
	httpReq, err := c.newJSONRequest(ctx, "/api/query", req)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	var out QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}

	c.logger.Debug("query completed",
		"mode", out.Mode,
		"citations", len(out.Citations),
		"out_of_scope", out.OutOfScope)
	return &out, nil
}
