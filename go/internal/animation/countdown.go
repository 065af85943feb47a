package animation

import "time"

const minuteMillis = 60_000

// DefaultStartGateSecond is the first second of each minute at which
// starting is offered.
const DefaultStartGateSecond = 30

// CountdownTarget is the time left until the next top of the minute of the
// corrected clock, or zero when t sits exactly on the boundary.
func CountdownTarget(t time.Time) time.Duration {
	into := ((t.UnixMilli() % minuteMillis) + minuteMillis) % minuteMillis
	return time.Duration((minuteMillis-into)%minuteMillis) * time.Millisecond
}

// StartGateOpen reports whether the local wall clock is in the part of the
// minute where a start may be offered.
func StartGateOpen(local time.Time, gateSecond int) bool {
	return local.Second() >= gateSecond
}
