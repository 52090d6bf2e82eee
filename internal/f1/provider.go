// Package f1 talks to the upstream motorsport timing provider. It exposes a
// small Provider contract the HTTP handlers compute against, an HTTP client
// implementation with rate limiting, retries and a circuit breaker, and the
// telemetry downsampling used to keep lap traces at a manageable size.
package f1

import (
	"context"
	"errors"
)

// ErrNotFound reports that the requested season, event, session or driver
// does not exist upstream. It is distinct from transport faults so callers
// can answer with "no such data" instead of "provider unavailable".
var ErrNotFound = errors.New("f1: data not found")

// Event is one entry of a season schedule.
type Event struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Country  string `json:"country"`
	Date     string `json:"date"`
	Round    int    `json:"round"`
}

// Driver describes one session participant.
type Driver struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Team string `json:"team"`
}

// Result is one row of a session classification. The JSON field names match
// the upstream timing feed's column names, which the public API exposes
// unchanged.
type Result struct {
	Driver   string  `json:"Abbreviation"`
	Team     string  `json:"TeamName"`
	Position string  `json:"ClassifiedPosition,omitempty"`
	Points   float64 `json:"Points"`
}

// TelemetryPoint is one sample of a lap trace. Time and Distance are measured
// from the start of the lap.
type TelemetryPoint struct {
	Time     float64 `json:"time"`     // seconds
	Speed    float64 `json:"speed"`    // km/h
	Throttle float64 `json:"throttle"` // percent
	Brake    float64 `json:"brake"`    // 0 or 1
	Distance float64 `json:"distance"` // metres
}

// LapTelemetry is the fastest-lap trace for one driver in one session.
type LapTelemetry struct {
	LapTime string
	Points  []TelemetryPoint
}

// SessionData is the loaded content of a session: the participating drivers
// and, when requested, the classification results.
type SessionData struct {
	Drivers []Driver
	Results []Result
}

// LoadOptions selects which parts of a session to load. The zero value is a
// cheap existence probe that transfers no lap or result data.
type LoadOptions struct {
	Drivers bool
	Results bool
}

// Session is a handle on one session of one event. Creating a handle is
// free; data is fetched by Load and Telemetry, which return ErrNotFound when
// the session or driver does not exist upstream.
type Session interface {
	// Load fetches the session content selected by opts. Calls may take
	// several seconds on a cold upstream.
	Load(ctx context.Context, opts LoadOptions) (*SessionData, error)

	// Telemetry fetches the driver's fastest-lap trace, downsampled to the
	// provider's configured point limit.
	Telemetry(ctx context.Context, driver string) (*LapTelemetry, error)
}

// Provider is the upstream data contract the API handlers compute against.
type Provider interface {
	// Schedule returns the event calendar for a season.
	Schedule(ctx context.Context, year int) ([]Event, error)

	// Session returns a handle on one session. The event may be an event
	// name or a round number; code is the session type (FP1, FP2, FP3, Q, R).
	Session(year int, event, code string) Session
}
