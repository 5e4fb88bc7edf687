// ABOUTME: Request and response shapes for the query API.
// ABOUTME: Response payloads are shared with the stream event layer.

package twin

import "github.com/Ridam2k/Digital-Twin-sample/internal/sse"

// Role values for conversation history entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryMessage is one prior conversation turn sent with a query.
type HistoryMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// QueryRequest is the JSON body for both query endpoints.
type QueryRequest struct {
	Query       string           `json:"query"`
	ContentType string           `json:"content_type,omitempty"`
	History     []HistoryMessage `json:"history,omitempty"`
}

// QueryResponse is the answer payload: response text, evidence
// citations, the persona mode the router selected, its per-mode
// confidence scores, and the out-of-scope judgment. The streaming
// endpoint delivers the same shape inside a response event.
type QueryResponse = sse.ResponsePayload

// Citation references one piece of retrieved evidence.
type Citation = sse.Citation
