package worldtime_client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/tiforama/go/clients"
)

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UTCEndpoint, r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchUTC(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"utc_datetime":"2025-03-01T12:00:30.250000+00:00","unixtime":1740830430}`)
	client := NewWorldTimeClient(srv.URL, UTCEndpoint)

	got, err := client.FetchUTC(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 30, 250_000_000, time.UTC), got)
}

func TestFetchUTCFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"non 2xx", http.StatusBadGateway, `{"utc_datetime":"2025-03-01T12:00:30Z"}`},
		{"malformed json", http.StatusOK, `{"utc_datetime":`},
		{"missing field", http.StatusOK, `{"unixtime":1}`},
		{"bad datetime", http.StatusOK, `{"utc_datetime":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.status, tt.body)
			client := NewWorldTimeClient(srv.URL, UTCEndpoint)

			_, err := client.FetchUTC(context.Background())
			require.Error(t, err)
		})
	}
}

func TestNewClientForSource(t *testing.T) {
	c, err := NewClientForSource(clients.TimeSourceWorldTimeAPI, "")
	require.NoError(t, err)
	assert.Equal(t, BaseURL, c.BaseURL())

	c, err = NewClientForSource(clients.TimeSourceTiforama, "http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.BaseURL())
	assert.Equal(t, "/api/time", c.endpoint)

	_, err = NewClientForSource(clients.TimeSourceTiforama, "")
	assert.Error(t, err)

	_, err = NewClientForSource("ntp", "")
	assert.Error(t, err)
}
