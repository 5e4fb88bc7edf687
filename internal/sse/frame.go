// ABOUTME: Frame recognition and envelope decoding for stream lines.
// ABOUTME: Only "data: " lines carry events; everything else is skipped.

package sse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// frameMarker prefixes every event-carrying line. Blank separator lines
// and ":" comment lines are valid stream content and never frames.
const frameMarker = "data: "

// envelope is the wire shape of a frame payload.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// knownTypes are the envelope discriminators this client understands.
// Frames with other discriminators are ignored rather than rejected so
// the server can add event kinds without breaking older clients.
var knownTypes = map[EventType]bool{
	EventResponse:     true,
	EventGroundedness: true,
	EventPersona:      true,
	EventDone:         true,
	EventError:        true,
}

// ParseFrame inspects one stream line. It returns (nil, false, nil) for
// non-frame lines and unknown event types, a decoded Event for
// recognized frames, and an error when a frame line carries a payload
// that does not parse; a payload that does not parse signals protocol
// desynchronization and must abort the stream, not be skipped.
func ParseFrame(line string) (*Event, bool, error) {
	if !strings.HasPrefix(line, frameMarker) {
		return nil, false, nil
	}

	raw := line[len(frameMarker):]
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, false, fmt.Errorf("malformed stream frame: %w", err)
	}
	if env.Type == "" {
		return nil, false, fmt.Errorf("stream frame missing type discriminator")
	}

	t := EventType(env.Type)
	if !knownTypes[t] {
		return nil, false, nil
	}

	return &Event{Type: t, Data: env.Data}, true, nil
}
