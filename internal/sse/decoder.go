// ABOUTME: Incremental line decoder for chunked stream bodies.
// ABOUTME: Buffers partial lines across reads so frames can split anywhere.

package sse

import "bytes"

// LineDecoder turns an incremental byte stream into complete lines.
// Chunks may split a line, or a multi-byte UTF-8 sequence, at any
// byte offset; the decoder holds the unterminated remainder until the
// rest arrives. Conversion to string is deferred until a full line is
// available, so partial UTF-8 sequences are never decoded.
//
// The zero value is ready to use.
type LineDecoder struct {
	pending []byte
}

// Feed appends chunk to the pending buffer and returns every complete
// line found, in order, with the trailing "\n" stripped. The final
// fragment after the last newline (possibly the whole chunk) is
// retained for the next call.
func (d *LineDecoder) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	d.pending = append(d.pending, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(d.pending, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(d.pending[:i]))
		d.pending = d.pending[i+1:]
	}

	// Release the backing array once fully consumed so long streams
	// don't pin the largest chunk seen.
	if len(d.pending) == 0 {
		d.pending = nil
	}
	return lines
}

// Pending reports whether an unterminated fragment is buffered.
func (d *LineDecoder) Pending() bool {
	return len(d.pending) > 0
}

// Discard drops any buffered fragment. Called at end of stream: a
// fragment that was never newline-terminated cannot form a frame.
func (d *LineDecoder) Discard() {
	d.pending = nil
}
