// ABOUTME: Streaming query operation against POST /api/query/stream.
// ABOUTME: Reassembles SSE frames and dispatches events in wire order.

package twin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Ridam2k/Digital-Twin-sample/internal/sse"
)

// streamReadSize is the chunk size for stream body reads. Frames may
// split anywhere relative to this boundary; the line decoder handles
// reassembly.
const streamReadSize = 2048

// StreamHandlers receives dispatched stream events. Any handler may be
// nil; a nil handler is a silent no-op. OnDone runs at most once and
// never after an error.
type StreamHandlers struct {
	// OnResponse receives the answer payload. Exactly one response
	// event is expected per completed stream.
	OnResponse func(*QueryResponse)

	// OnMetrics receives evaluation events: the channel name
	// ("metrics_groundedness" or "metrics_persona") and the raw
	// payload. Informational only.
	OnMetrics func(channel string, payload []byte)

	// OnDone signals normal stream completion.
	OnDone func()
}

// StreamQuery sends a question to the streaming endpoint and
// dispatches each stream event to h as it is framed on the wire.
//
// It returns nil after a done event, *APIError for a non-2xx status,
// *StreamError when the server signals an error event, ErrStreamClosed
// when the body ends without completing, and a decode error when a
// frame cannot be parsed. The response body is closed on every path.
func (c *Client) StreamQuery(ctx context.Context, req *QueryRequest, h StreamHandlers) error {
	httpReq, err := c.newJSONRequest(ctx, "/api/query/stream", req)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.apiError(resp)
	}

	return c.readStream(ctx, resp.Body, h)
}

// readStream consumes the body chunk by chunk until a terminal event
// or end of stream.
func (c *Client) readStream(ctx context.Context, body io.Reader, h StreamHandlers) error {
	var decoder sse.LineDecoder
	buf := make([]byte, streamReadSize)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, line := range decoder.Feed(buf[:n]) {
				done, err := c.dispatch(line, h)
				if err != nil {
					return err
				}
				if done {
					return nil
				}
			}
		}

		if readErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(readErr, io.EOF) {
				// An unterminated trailing fragment cannot form a
				// frame; a stream that ends here never completed.
				decoder.Discard()
				return ErrStreamClosed
			}
			return fmt.Errorf("reading stream: %w", readErr)
		}
	}
}

// dispatch routes one stream line to its handler. Returns done=true
// after the completion event.
func (c *Client) dispatch(line string, h StreamHandlers) (done bool, err error) {
	ev, ok, err := sse.ParseFrame(line)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	switch ev.Type {
	case sse.EventResponse:
		payload, err := ev.Response()
		if err != nil {
			return false, fmt.Errorf("malformed response payload: %w", err)
		}
		c.logger.Debug("response event",
			"mode", payload.Mode,
			"citations", len(payload.Citations),
			"out_of_scope", payload.OutOfScope)
		if h.OnResponse != nil {
			h.OnResponse(payload)
		}

	case sse.EventGroundedness, sse.EventPersona:
		if h.OnMetrics != nil {
			h.OnMetrics(string(ev.Type), ev.Data)
		}

	case sse.EventDone:
		if h.OnDone != nil {
			h.OnDone()
		}
		return true, nil

	case sse.EventError:
		payload, err := ev.Error()
		if err != nil {
			return false, fmt.Errorf("malformed error payload: %w", err)
		}
		return false, newStreamError(payload.Message)
	}

	return false, nil
}
