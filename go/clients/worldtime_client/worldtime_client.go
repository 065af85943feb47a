package worldtime_client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/tiforama/go/clients"
)

// ErrMissingDatetime is returned when the response has no utc_datetime field
var ErrMissingDatetime = errors.New("response has no utc_datetime")

// TimeResponse is the subset of the worldtimeapi payload we read
type TimeResponse struct {
	UTCDatetime string `json:"utc_datetime"`
	Unixtime    int64  `json:"unixtime,omitempty"`
}

type WorldTimeClient struct {
	*clients.BaseClient
	endpoint string
}

// NewWorldTimeClient creates a client for baseURL+endpoint with the default timeout
func NewWorldTimeClient(baseURL, endpoint string) *WorldTimeClient {
	client := &WorldTimeClient{
		BaseClient: clients.NewBaseClient(baseURL),
		endpoint:   endpoint,
	}

	client.SetHeader("Accept", "application/json")
	client.SetTimeout(DefaultTimeout)

	return client
}

// NewDefaultWorldTimeClient targets the public worldtimeapi.org UTC endpoint
func NewDefaultWorldTimeClient() *WorldTimeClient {
	return NewWorldTimeClient(BaseURL, UTCEndpoint)
}

// FetchUTC returns the remote clock's current UTC time
func (c *WorldTimeClient) FetchUTC(ctx context.Context) (time.Time, error) {
	var resp TimeResponse
	if err := c.GetJSON(ctx, c.endpoint, &resp); err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch remote time: %w", err)
	}
	if resp.UTCDatetime == "" {
		return time.Time{}, ErrMissingDatetime
	}

	t, err := time.Parse(time.RFC3339Nano, resp.UTCDatetime)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse utc_datetime %q: %w", resp.UTCDatetime, err)
	}
	return t.UTC(), nil
}

// NewClientForSource builds a client for a known time source. apiBaseURL is
// used for sources served by the tiforama API server.
func NewClientForSource(source clients.TimeSource, apiBaseURL string) (*WorldTimeClient, error) {
	cfg, ok := clients.GetTimeSources()[source]
	if !ok {
		return nil, fmt.Errorf("unknown time source %q", source)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if apiBaseURL == "" {
			return nil, fmt.Errorf("time source %q needs an API base URL", source)
		}
		baseURL = apiBaseURL
	}
	return NewWorldTimeClient(baseURL, cfg.Endpoint), nil
}
