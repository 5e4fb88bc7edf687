// ABOUTME: Tests for the non-streaming query and health operations.
// ABOUTME: Verifies payload decoding and the API error taxonomy.

package twin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is the stack?", req.Query)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(QueryResponse{
			Response: "Go, mostly.",
			Citations: []Citation{
				{Index: 1, DocTitle: "Stack Notes", SourceURL: "https://docs/stack", Score: 0.77},
			},
			Mode:         "technical",
			RouterScores: map[string]float64{"technical": 0.85, "nontechnical": 0.15},
		})
	}))
	defer srv.Close()

	client := New(srv.URL)
	resp, err := client.Query(context.Background(), &QueryRequest{Query: "what is the stack?"})
	require.NoError(t, err)

	assert.Equal(t, "Go, mostly.", resp.Response)
	assert.Equal(t, "technical", resp.Mode)
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, "Stack Notes", resp.Citations[0].DocTitle)
	assert.False(t, resp.OutOfScope)
}

func TestQuery_ErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Pipeline error: retriever down"})
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Query(context.Background(), &QueryRequest{Query: "q"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Pipeline error: retriever down", apiErr.Detail)
	assert.Contains(t, apiErr.Error(), "retriever down")
}

func TestQuery_ErrorWithoutDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream blew up"))
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Query(context.Background(), &QueryRequest{Query: "q"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.Detail)
	assert.Equal(t, "api error (status 502)", apiErr.Error())
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy", "service": "digital-twin-api"})
	}))
	defer srv.Close()

	client := New(srv.URL)
	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status["status"])
}

func TestDecodeMetrics(t *testing.T) {
	g, err := DecodeGroundedness([]byte(`{"groundedness_score":0.92,"fabricated_claims":["x"],"claim_audits":[{"claim":"c","grounded":true,"evidence":"e"}]}`))
	require.NoError(t, err)
	assert.InDelta(t, 0.92, g.GroundednessScore, 1e-9)
	require.Len(t, g.ClaimAudits, 1)
	assert.True(t, g.ClaimAudits[0].Grounded)

	p, err := DecodePersona([]byte(`{"persona_consistency_score":0.7,"dimension_scores":{"tone_fidelity":0.6}}`))
	require.NoError(t, err)
	assert.InDelta(t, 0.7, p.PersonaConsistencyScore, 1e-9)
	assert.InDelta(t, 0.6, p.DimensionScores["tone_fidelity"], 1e-9)
}
