// Package twin is the HTTP client for the digital-twin query API.
//
// # Overview
//
// The remote service answers questions from retrieved evidence and
// reports which persona mode (technical / nontechnical) it answered
// in. Two query surfaces exist:
//
//   - Query: POST /api/query, plain JSON request/response.
//   - StreamQuery: POST /api/query/stream, a text/event-stream body
//     carrying the response followed by zero or more evaluation
//     metric events and a terminal done or error event.
//
// StreamQuery drives caller-supplied handlers in wire order. A server
// error event, a malformed frame, or a body that ends without a done
// event all abort the read and surface as an error to the caller; the
// completion handler never runs after a failure.
//
// # Errors
//
// Non-2xx responses become *APIError carrying the server's detail
// text. Server-signaled stream errors become *StreamError. A stream
// that ends without completing is ErrStreamClosed.
package twin
