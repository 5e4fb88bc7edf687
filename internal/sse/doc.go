// Package sse reassembles the digital-twin streaming wire format.
//
// # Overview
//
// The query stream arrives as text/event-stream style frames, one JSON
// envelope per "data: " line:
//
//	data: {"type":"response","data":{...}}
//	data: {"type":"metrics_groundedness","data":{...}}
//	data: {"type":"done","data":{}}
//
// The network hands us the body in arbitrary chunks, so reassembly has
// two layers:
//
//   - LineDecoder buffers raw bytes across chunk boundaries and yields
//     complete newline-terminated lines. Splits inside a multi-byte
//     UTF-8 sequence are safe because decoding only happens on complete
//     lines.
//   - ParseFrame recognizes "data: " lines among separator and comment
//     lines, decodes the JSON envelope, and returns a typed Event.
//
// A malformed envelope on a frame line is a protocol desynchronization
// and is reported as an error rather than skipped. Unknown event types
// are ignored for forward compatibility.
package sse
