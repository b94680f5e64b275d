// Package fix defines the positioning samples consumed and emitted by the location filter,
// and their decodings from GeoJSON, JSON and NMEA.
package fix

import (
	"math"
	"time"

	"github.com/paulmach/orb"
)

// RawFix is one reading from a positioning sensor.
// Optional readings are nil when the sensor did not report them.
type RawFix struct {
	Time     time.Time `json:"time"`
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	Altitude *float64  `json:"alt,omitempty"`
	// Accuracy is the horizontal uncertainty radius in meters; lower is better.
	Accuracy float64  `json:"accuracy"`
	Heading  *float64 `json:"heading,omitempty"`
	// Speed is in m/s.
	Speed *float64 `json:"speed,omitempty"`
}

func (f RawFix) Point() orb.Point {
	return orb.Point{f.Lon, f.Lat}
}

// Status records which branch of the filter produced a SmoothedFix.
type Status string

const (
	// StatusPassthrough is a gated fix returned as-is because there was no lock.
	StatusPassthrough Status = "passthrough"
	// StatusAcquired is the first fix after construction or reset.
	StatusAcquired Status = "acquired"
	// StatusWarmup is the lock held while the history is too short to blend.
	StatusWarmup Status = "warmup"
	// StatusHeld is the lock held within the movement threshold, streak not yet stable.
	StatusHeld Status = "held"
	// StatusStationary is the lock held with speed forced to zero.
	StatusStationary Status = "stationary"
	// StatusMoving is a lock moved toward the candidate.
	StatusMoving Status = "moving"
	// StatusGated is the lock returned for a fix rejected by the gate.
	StatusGated Status = "gated"
	// StatusInvalid is the zero fix returned for an unusable fix with no lock.
	StatusInvalid Status = "invalid"
)

// SmoothedFix is the filter's output.
// Heading, when present, is always within [0, 360).
type SmoothedFix struct {
	Time     time.Time `json:"time"`
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	Altitude *float64  `json:"alt,omitempty"`
	Accuracy float64   `json:"accuracy"`
	Heading  *float64  `json:"heading,omitempty"`
	Speed    *float64  `json:"speed,omitempty"`
	Status   Status    `json:"status"`
}

func (s SmoothedFix) Point() orb.Point {
	return orb.Point{s.Lon, s.Lat}
}

// IsZero is true for the fix returned when nothing usable has been seen.
func (s SmoothedFix) IsZero() bool {
	return s.Time.IsZero() && s.Lat == 0 && s.Lon == 0 && s.Accuracy == 0
}

// Copy returns a deep copy; optional readings are not shared.
func (s SmoothedFix) Copy() SmoothedFix {
	s.Altitude = Clone(s.Altitude)
	s.Heading = Clone(s.Heading)
	s.Speed = Clone(s.Speed)
	return s
}

// Float returns a pointer to v, for optional readings.
func Float(v float64) *float64 {
	return &v
}

// Clone copies an optional reading.
func Clone(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Finite is nil for a nil, NaN or infinite reading, else a copy of v.
func Finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return Clone(v)
}
