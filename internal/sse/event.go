// ABOUTME: Typed stream events and their wire payloads.
// ABOUTME: Mirrors the /api/query/stream envelope contract.

package sse

import "encoding/json"

// EventType discriminates stream event envelopes.
type EventType string

const (
	EventResponse     EventType = "response"
	EventGroundedness EventType = "metrics_groundedness"
	EventPersona      EventType = "metrics_persona"
	EventDone         EventType = "done"
	EventError        EventType = "error"
)

// IsMetrics reports whether the type is one of the evaluation channels.
func (t EventType) IsMetrics() bool {
	return t == EventGroundedness || t == EventPersona
}

// Event is one decoded frame from the query stream. Data holds the raw
// payload; the typed accessors decode it on demand.
type Event struct {
	Type EventType
	Data json.RawMessage
}

// Citation references one piece of retrieved evidence. Index is 1-based
// and aligned to the order the generator saw the evidence.
type Citation struct {
	Index     int     `json:"index"`
	DocTitle  string  `json:"doc_title"`
	SourceURL string  `json:"source_url"`
	Score     float64 `json:"score"`
}

// ResponsePayload is the data of a "response" event.
type ResponsePayload struct {
	Response     string             `json:"response"`
	Citations    []Citation         `json:"citations"`
	Mode         string             `json:"mode"`
	RouterScores map[string]float64 `json:"router_scores"`
	OutOfScope   bool               `json:"out_of_scope"`
}

// ErrorPayload is the data of an "error" event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Response decodes the payload of a response event.
func (e *Event) Response() (*ResponsePayload, error) {
	var p ResponsePayload
	if err := json.Unmarshal(e.Data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Error decodes the payload of an error event.
func (e *Event) Error() (*ErrorPayload, error) {
	var p ErrorPayload
	if err := json.Unmarshal(e.Data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
