package clients

// TimeSource identifies a remote clock the spectator can sync against
type TimeSource string

const (
	// TimeSourceWorldTimeAPI is the public worldtimeapi.org UTC endpoint
	TimeSourceWorldTimeAPI TimeSource = "worldtimeapi"

	// TimeSourceTiforama is the /api/time endpoint served by the tiforama API server
	TimeSourceTiforama TimeSource = "tiforama"
)

// TimeSourceConfig describes how to reach a time source
type TimeSourceConfig struct {
	Source      TimeSource `json:"source" yaml:"source"`
	Name        string     `json:"name" yaml:"name"`
	BaseURL     string     `json:"base_url" yaml:"base_url"`
	Endpoint    string     `json:"endpoint" yaml:"endpoint"`
	Description string     `json:"description" yaml:"description"`
}

// GetTimeSources returns the built-in time sources. The tiforama entry has no
// base URL; callers fill in the API server address.
func GetTimeSources() map[TimeSource]TimeSourceConfig {
	return map[TimeSource]TimeSourceConfig{
		TimeSourceWorldTimeAPI: {
			Source:      TimeSourceWorldTimeAPI,
			Name:        "World Time API",
			BaseURL:     "https://worldtimeapi.org",
			Endpoint:    "/api/timezone/UTC",
			Description: "Public UTC clock",
		},
		TimeSourceTiforama: {
			Source:      TimeSourceTiforama,
			Name:        "Tiforama API",
			Endpoint:    "/api/time",
			Description: "Clock of the tiforama API server",
		},
	}
}

// ValidateTimeSource checks if the source is known
func ValidateTimeSource(source TimeSource) bool {
	_, exists := GetTimeSources()[source]
	return exists
}
