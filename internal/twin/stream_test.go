// ABOUTME: Tests for the streaming query operation and event dispatch.
// ABOUTME: Uses httptest servers that emit frames in controlled chunks.

package twin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamServer returns a test server that writes each chunk to the
// stream body in order, flushing between chunks so the client sees the
// exact split points.
func streamServer(t *testing.T, chunks ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/query/stream", r.URL.Path)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		for _, c := range chunks {
			_, err := w.Write([]byte(c))
			require.NoError(t, err)
			flusher.Flush()
		}
	}))
}

// recorder collects dispatched events for assertions.
type recorder struct {
	responses []*QueryResponse
	metrics   []string
	done      int
}

func (r *recorder) handlers() StreamHandlers {
	return StreamHandlers{
		OnResponse: func(p *QueryResponse) { r.responses = append(r.responses, p) },
		OnMetrics:  func(ch string, _ []byte) { r.metrics = append(r.metrics, ch) },
		OnDone:     func() { r.done++ },
	}
}

const responseFrame = `data: {"type":"response","data":{"response":"hi","citations":[],"mode":"technical","router_scores":{"technical":0.9,"nontechnical":0.1},"out_of_scope":false}}` + "\n\n"

func TestStreamQuery_CompleteStream(t *testing.T) {
	srv := streamServer(t,
		responseFrame,
		`data: {"type":"metrics_groundedness","data":{"groundedness_score":0.95}}`+"\n\n",
		`data: {"type":"metrics_persona","data":{"persona_consistency_score":0.8}}`+"\n\n",
		`data: {"type":"done","data":{}}`+"\n\n",
	)
	defer srv.Close()

	var rec recorder
	client := New(srv.URL)
	err := client.StreamQuery(context.Background(), &QueryRequest{Query: "hello"}, rec.handlers())
	require.NoError(t, err)

	require.Len(t, rec.responses, 1)
	assert.Equal(t, "hi", rec.responses[0].Response)
	assert.Equal(t, "technical", rec.responses[0].Mode)
	assert.Equal(t, []string{"metrics_groundedness", "metrics_persona"}, rec.metrics)
	assert.Equal(t, 1, rec.done)
}

func TestStreamQuery_FrameSplitAcrossChunks(t *testing.T) {
	// The done frame arrives split mid-envelope; exactly one done
	// dispatch must occur.
	srv := streamServer(t,
		`data: {"typ`,
		`e":"done","data":{}}`+"\n\n",
	)
	defer srv.Close()

	var rec recorder
	client := New(srv.URL)
	err := client.StreamQuery(context.Background(), &QueryRequest{Query: "q"}, rec.handlers())
	require.NoError(t, err)
	assert.Equal(t, 1, rec.done)
}

func TestStreamQuery_ArbitraryChunking(t *testing.T) {
	// Byte-at-a-time delivery of a full stream must dispatch the same
	// events as an unpartitioned one.
	full := responseFrame + `data: {"type":"done","data":{}}` + "\n\n"
	var chunks []string
	for _, b := range []byte(full) {
		chunks = append(chunks, string([]byte{b}))
	}
	srv := streamServer(t, chunks...)
	defer srv.Close()

	var rec recorder
	client := New(srv.URL)
	err := client.StreamQuery(context.Background(), &QueryRequest{Query: "q"}, rec.handlers())
	require.NoError(t, err)
	require.Len(t, rec.responses, 1)
	assert.Equal(t, "hi", rec.responses[0].Response)
	assert.Equal(t, 1, rec.done)
}

func TestStreamQuery_ServerErrorEvent(t *testing.T) {
	srv := streamServer(t,
		`data: {"type":"error","data":{"message":"boom"}}`+"\n\n",
		// Anything after the error frame must not be dispatched.
		`data: {"type":"done","data":{}}`+"\n\n",
	)
	defer srv.Close()

	var rec recorder
	client := New(srv.URL)
	err := client.StreamQuery(context.Background(), &QueryRequest{Query: "q"}, rec.handlers())

	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, "boom", streamErr.Message)
	assert.Equal(t, StreamErrorSeverity, streamErr.Severity)
	assert.Equal(t, 0, rec.done, "done handler must not run after an error")
}

func TestStreamQuery_ClosedWithoutCompletion(t *testing.T) {
	srv := streamServer(t, responseFrame)
	defer srv.Close()

	var rec recorder
	client := New(srv.URL)
	err := client.StreamQuery(context.Background(), &QueryRequest{Query: "q"}, rec.handlers())
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.Len(t, rec.responses, 1, "partial dispatches are kept")
	assert.Equal(t, 0, rec.done)
}

func TestStreamQuery_MalformedFrameIsFatal(t *testing.T) {
	srv := streamServer(t, "data: {not json}\n\n")
	defer srv.Close()

	var rec recorder
	client := New(srv.URL)
	err := client.StreamQuery(context.Background(), &QueryRequest{Query: "q"}, rec.handlers())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStreamClosed)
}

func TestStreamQuery_IgnoresNoiseLines(t *testing.T) {
	srv := streamServer(t,
		": comment\n\n",
		`data: {"type":"future_event","data":{}}`+"\n\n",
		`data: {"type":"done","data":{}}`+"\n\n",
	)
	defer srv.Close()

	var rec recorder
	client := New(srv.URL)
	err := client.StreamQuery(context.Background(), &QueryRequest{Query: "q"}, rec.handlers())
	require.NoError(t, err)
	assert.Equal(t, 1, rec.done)
	assert.Empty(t, rec.metrics)
}

func TestStreamQuery_NilHandlersAreNoOps(t *testing.T) {
	srv := streamServer(t,
		responseFrame,
		`data: {"type":"metrics_persona","data":{}}`+"\n\n",
		`data: {"type":"done","data":{}}`+"\n\n",
	)
	defer srv.Close()

	client := New(srv.URL)
	err := client.StreamQuery(context.Background(), &QueryRequest{Query: "q"}, StreamHandlers{})
	assert.NoError(t, err)
}

func TestStreamQuery_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Query cannot be empty"})
	}))
	defer srv.Close()

	client := New(srv.URL)
	err := client.StreamQuery(context.Background(), &QueryRequest{}, StreamHandlers{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Query cannot be empty", apiErr.Detail)
}

func TestStreamQuery_TransportFailure(t *testing.T) {
	// Point at a closed server to force a connection error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New(srv.URL)
	err := client.StreamQuery(context.Background(), &QueryRequest{Query: "q"}, StreamHandlers{})
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures are not API errors")
}

func TestStreamQuery_SendsHistoryAndContentType(t *testing.T) {
	var got QueryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Write([]byte(`data: {"type":"done","data":{}}` + "\n\n"))
	}))
	defer srv.Close()

	client := New(srv.URL)
	req := &QueryRequest{
		Query:       "and then?",
		ContentType: "documentation",
		History: []HistoryMessage{
			{Role: RoleUser, Text: "hello"},
			{Role: RoleAssistant, Text: "hi"},
		},
	}
	require.NoError(t, client.StreamQuery(context.Background(), req, StreamHandlers{}))

	assert.Equal(t, "and then?", got.Query)
	assert.Equal(t, "documentation", got.ContentType)
	require.Len(t, got.History, 2)
	assert.Equal(t, RoleUser, got.History[0].Role)
}
