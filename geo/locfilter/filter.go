// Package locfilter turns a noisy stream of raw positioning fixes into a stable
// position and heading suitable for driving a map cursor.
//
// Each Update runs the fix through a gate, records it in a rolling history,
// smooths its heading, blends the history into a candidate position, and finally
// runs a hysteresis lock which only moves the emitted position once the candidate
// has left the movement threshold. The filter does no I/O.
package locfilter

import (
	"fmt"
	"log/slog"

	"github.com/rotblauer/fixd/common"
	"github.com/rotblauer/fixd/geo/heading"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/types/fix"
)

// Filter holds the state of one tracking session.
// A Filter is not safe for concurrent use; see Stream for a channel-serialized form.
type Filter struct {
	config *params.LocationFilterConfig
	logger *slog.Logger

	positions *common.RingBuffer[fix.RawFix]
	heading   *heading.Smoother
	estimator *estimator

	locked *fix.SmoothedFix
	streak int

	stats Stats
}

// Stats counts the filter's decisions since construction.
type Stats struct {
	Accepted   uint64
	Gated      uint64
	Invalid    uint64
	Acquired   uint64
	Warmup     uint64
	Held       uint64
	Stationary uint64
	Moving     uint64

	Locked     bool
	Streak     int
	History    int
	Covariance float64
}

// New returns a filter configured by config, which is validated.
// A nil config uses params.DefaultLocationFilterConfig.
func New(config *params.LocationFilterConfig) (*Filter, error) {
	if config == nil {
		config = params.DefaultLocationFilterConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new location filter: %w", err)
	}
	return &Filter{
		config:    config,
		logger:    slog.With("d", "locfilter"),
		positions: common.NewRingBuffer[fix.RawFix](config.PositionWindow),
		heading:   heading.NewSmoother(config),
		estimator: newEstimator(config),
	}, nil
}

// Update consumes one raw fix and returns the fix to display.
// It never fails: unusable input yields the current lock, the input itself
// (while nothing has been locked), or the zero fix with StatusInvalid.
func (f *Filter) Update(raw fix.RawFix) fix.SmoothedFix {
	in, verdict := f.gate(raw)
	switch verdict {
	case verdictInvalid:
		f.stats.Invalid++
		f.logger.Debug("Rejected invalid fix", "lat", raw.Lat, "lon", raw.Lon, "accuracy", raw.Accuracy)
		if f.locked == nil {
			return fix.SmoothedFix{Status: fix.StatusInvalid}
		}
		return f.emitLocked(raw, fix.StatusGated)
	case verdictInaccurate:
		f.stats.Gated++
		f.logger.Debug("Gated inaccurate fix", "accuracy", raw.Accuracy, "ceiling", f.config.AccuracyCeiling)
		if f.locked == nil {
			return f.passthrough(in)
		}
		return f.emitLocked(in, fix.StatusGated)
	}

	f.stats.Accepted++
	f.positions.Add(in)

	if f.locked == nil {
		return f.acquire(in)
	}

	h := f.heading.Smooth(in.Heading, in.Speed)
	if f.positions.Len() < f.config.MinSamples {
		return f.warmup(in, h)
	}
	candidate := f.estimator.blend(f.positions.Get(), f.locked)
	return f.stabilize(in, candidate, h)
}

// Reset clears the lock so that the next accepted fix is acquired as-is.
// The rolling histories and the estimator covariance are kept.
func (f *Filter) Reset() {
	f.locked = nil
	f.streak = 0
	f.heading.Reset()
	f.logger.Debug("Reset lock")
}

// Locked returns a copy of the current lock, or nil before the first lock.
func (f *Filter) Locked() *fix.SmoothedFix {
	if f.locked == nil {
		return nil
	}
	c := f.locked.Copy()
	return &c
}

func (f *Filter) Stats() Stats {
	s := f.stats
	s.Locked = f.locked != nil
	s.Streak = f.streak
	s.History = f.positions.Len()
	s.Covariance = f.estimator.covariance
	return s
}

func (f *Filter) Config() *params.LocationFilterConfig {
	return f.config
}

// emitLocked returns the lock stamped with the time of the triggering fix.
func (f *Filter) emitLocked(trigger fix.RawFix, status fix.Status) fix.SmoothedFix {
	out := f.locked.Copy()
	if !trigger.Time.IsZero() {
		out.Time = trigger.Time
	}
	out.Status = status
	return out
}

func (f *Filter) passthrough(in fix.RawFix) fix.SmoothedFix {
	out := f.fromRaw(in)
	out.Status = fix.StatusPassthrough
	return out
}

func (f *Filter) fromRaw(in fix.RawFix) fix.SmoothedFix {
	out := fix.SmoothedFix{
		Time:     in.Time,
		Lat:      in.Lat,
		Lon:      in.Lon,
		Altitude: fix.Clone(in.Altitude),
		Accuracy: f.displayAccuracy(in.Accuracy),
		Speed:    fix.Clone(in.Speed),
	}
	if in.Heading != nil {
		out.Heading = fix.Float(normalizeHeading(*in.Heading))
	}
	return out
}

func (f *Filter) displayAccuracy(acc float64) float64 {
	if acc > f.config.DisplayAccuracyCeiling {
		return f.config.DisplayAccuracyCeiling
	}
	return acc
}
