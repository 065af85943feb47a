package worldtime_client

import "time"

const (
	// Base URL
	BaseURL = "https://worldtimeapi.org"

	// API Endpoints
	UTCEndpoint = "/api/timezone/UTC"

	// DefaultTimeout bounds a single time fetch
	DefaultTimeout = 5 * time.Second
)
