// Package refkalman wraps a full 2-D Kalman filter over fixes, as a reference
// track to compare the location filter against.
package refkalman

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	rkalman "github.com/regnull/kalman"
	"github.com/rotblauer/fixd/common"
	"github.com/rotblauer/fixd/types/fix"
)

// ResetInterval is the gap in fixes after which the tracker starts over.
var ResetInterval = 5 * time.Minute

// Speed observation accuracies in m/s. An unknown speed is observed as 0
// with an accuracy loose enough that it does not pull the track to a stop.
const (
	knownSpeedAccuracy   = 0.2
	unknownSpeedAccuracy = 1000
)

func NewRKalmanFilter(latitude, speed, acceleration float64) (*rkalman.GeoFilter, error) {
	processNoise := &rkalman.GeoProcessNoise{
		// Measurements are assumed close enough together to disregard the earth's curvature.
		BaseLat: latitude,
		// How much do we expect the device to move, meters per second.
		DistancePerSecond: speed,
		// How much do we expect the device's speed to change, meters per second squared.
		SpeedPerSecond: acceleration,
	}
	filter, err := rkalman.NewGeoFilter(processNoise)
	if err != nil {
		return nil, fmt.Errorf("new kalman filter: %w", err)
	}
	return filter, nil
}

// Tracker feeds fixes, in time order, to a Kalman filter.
type Tracker struct {
	filter *rkalman.GeoFilter
	last   time.Time
	point  orb.Point
}

// Observe consumes one fix and returns the current estimate.
// Fixes at the time of the last, or less than a second before it, are ignored.
// A fix further back in time, or after a gap of ResetInterval, starts the tracker over.
func (t *Tracker) Observe(f fix.RawFix) (orb.Point, error) {
	span := f.Time.Sub(t.last)
	if t.filter == nil || span > ResetInterval || span < -time.Second {
		return t.reset(f)
	}
	if span <= 0 {
		return t.point, nil
	}
	speed, speedAccuracy, heading := 0.0, float64(unknownSpeedAccuracy), 0.0
	if f.Speed != nil {
		speed, speedAccuracy = *f.Speed, knownSpeedAccuracy
	}
	if f.Heading != nil {
		heading = *f.Heading
	}
	alt := 0.0
	if f.Altitude != nil {
		alt = *f.Altitude
	}
	err := t.filter.Observe(span.Seconds(), &rkalman.GeoObserved{
		Lat:                f.Lat,
		Lng:                f.Lon,
		Altitude:           alt,
		Speed:              speed,
		SpeedAccuracy:      speedAccuracy,
		Direction:          heading,
		DirectionAccuracy:  0,
		HorizontalAccuracy: f.Accuracy,
		VerticalAccuracy:   2.0,
	})
	if err != nil {
		return t.point, fmt.Errorf("kalman observe: %w", err)
	}
	t.last = f.Time
	if est := t.filter.Estimate(); est != nil {
		t.point = orb.Point{est.Lng, est.Lat}
	}
	return t.point, nil
}

func (t *Tracker) reset(f fix.RawFix) (orb.Point, error) {
	speed := common.SpeedOfWalkingMean
	if f.Speed != nil {
		speed = *f.Speed
	}
	filter, err := NewRKalmanFilter(f.Lat, speed, 0.1)
	if err != nil {
		return orb.Point{}, err
	}
	t.filter = filter
	t.last = f.Time
	t.point = f.Point()
	return t.point, nil
}

// Track runs a whole track through a fresh tracker. Failed observations
// repeat the previous estimate, so the result is aligned with raws.
func Track(raws []fix.RawFix) []orb.Point {
	t := &Tracker{}
	out := make([]orb.Point, 0, len(raws))
	for _, f := range raws {
		p, err := t.Observe(f)
		if err != nil {
			slog.Warn("Reference kalman failed", "error", err)
		}
		out = append(out, p)
	}
	return out
}
