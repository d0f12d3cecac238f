package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&common.ScraperConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		WebhookURL:     "http://callback.test/webhook",
		RequestTimeout: 5 * time.Second,
		RateLimit:      time.Microsecond,
		DefaultLimit:   100,
	}, arbor.NewLogger())
}

func TestClient_Submit(t *testing.T) {
	var captured submitRequest
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/scrapes", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(submitResponse{RequestID: "req_42"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	requestID, err := client.Submit(context.Background(), models.SearchParams{Query: "cdl driver", Location: "Dallas, TX", Limit: 50})
	require.NoError(t, err)

	assert.Equal(t, "req_42", requestID)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "cdl driver", captured.Query)
	assert.Equal(t, 50, captured.Limit)
	assert.Equal(t, "http://callback.test/webhook", captured.WebhookURL)
}

func TestClient_Submit_DefaultLimit(t *testing.T) {
	var captured submitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(submitResponse{RequestID: "req_1"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Submit(context.Background(), models.SearchParams{Query: "cdl driver"})
	require.NoError(t, err)
	assert.Equal(t, 100, captured.Limit)
}

func TestClient_Submit_ProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusInternalServerError, "boom"},
		{"rejection in body", http.StatusOK, `{"error": "invalid query"}`},
		{"missing request id", http.StatusOK, `{}`},
		{"garbage body", http.StatusOK, "not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			_, err := client.Submit(context.Background(), models.SearchParams{Query: "cdl driver"})
			assert.Error(t, err)
		})
	}
}

func TestClient_Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/scrapes/req_42", r.URL.Path)

		json.NewEncoder(w).Encode(interfaces.StatusResponse{
			RequestID: "req_42",
			Status:    interfaces.ScrapeStatusSuccess,
			Postings:  []models.Posting{{Title: "driver", Company: "acme", Location: "dallas"}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	status, err := client.Status(context.Background(), "req_42")
	require.NoError(t, err)

	assert.Equal(t, interfaces.ScrapeStatusSuccess, status.Status)
	require.Len(t, status.Postings, 1)
	assert.Equal(t, "driver", status.Postings[0].Title)
}

func TestClient_Status_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Status(context.Background(), "req_unknown")
	assert.Error(t, err)
}

func TestClient_Status_Unreachable(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	_, err := client.Status(context.Background(), "req_42")
	assert.Error(t, err)
}
