package timesync

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// TimeResponse mirrors the worldtimeapi payload so clients can point a
// Source at either endpoint.
type TimeResponse struct {
	UTCDatetime string `json:"utc_datetime"`
	Unixtime    int64  `json:"unixtime"`
}

// Clock is anything that tells the time: a clockwork.Clock or a Service.
type Clock interface {
	Now() time.Time
}

// NewHandler serves the clock's current UTC time.
func NewHandler(clock Clock) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		now := clock.Now().UTC()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(TimeResponse{
			UTCDatetime: now.Format(time.RFC3339Nano),
			Unixtime:    now.Unix(),
		}); err != nil {
			log.Error().Err(err).Msg("failed to write time response")
		}
	})
}
