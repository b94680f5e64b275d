package heading

import (
	"math"

	"github.com/rotblauer/fixd/common"
	"github.com/rotblauer/fixd/geo"
	"github.com/rotblauer/fixd/params"
)

// Smoother is a recency-weighted, speed-aware exponential smoother of compass headings.
// It freezes the heading while the device is near stationary.
// A Smoother is not safe for concurrent use.
type Smoother struct {
	config   *params.LocationFilterConfig
	history  *common.RingBuffer[float64]
	previous *float64
}

// NewSmoother returns a smoother configured by config.
// A nil config uses params.DefaultLocationFilterConfig.
func NewSmoother(config *params.LocationFilterConfig) *Smoother {
	if config == nil {
		config = params.DefaultLocationFilterConfig()
	}
	return &Smoother{
		config:  config,
		history: common.NewRingBuffer[float64](config.HeadingWindow),
	}
}

// Smooth consumes one raw heading reading and the fix's speed, both optional,
// and returns the heading to display, which is nil only while no heading has ever been seen.
func (s *Smoother) Smooth(heading, speed *float64) *float64 {
	if heading == nil || !finite(*heading) {
		return s.Previous()
	}
	if speed != nil && *speed < s.config.StationarySpeed && s.previous != nil {
		return s.Previous()
	}

	raw := geo.NormalizeBearing(*heading)
	s.history.Add(raw)
	if s.history.Len() < 2 {
		return s.set(raw)
	}

	f := s.trust(speed)
	mean := geo.NormalizeBearing(weightedMean(Unwrap(s.history.Get()), f))
	if s.previous == nil {
		return s.set(mean)
	}

	alpha := s.config.AlphaMin + (s.config.AlphaMax-s.config.AlphaMin)*f
	prev := *s.previous
	return s.set(geo.NormalizeBearing(prev + alpha*geo.AngleDelta(prev, mean)))
}

// Acquire records heading as the locked heading verbatim, bypassing the blend.
// It is used when the filter (re)acquires its lock, so that the first emitted
// heading after a reset is the raw reading, as it is for a new filter.
func (s *Smoother) Acquire(heading *float64) *float64 {
	if heading == nil || !finite(*heading) {
		return s.Previous()
	}
	raw := geo.NormalizeBearing(*heading)
	s.history.Add(raw)
	return s.set(raw)
}

// Previous returns a copy of the locked heading, or nil.
func (s *Smoother) Previous() *float64 {
	if s.previous == nil {
		return nil
	}
	v := *s.previous
	return &v
}

// Reset forgets the locked heading. The heading history is kept.
func (s *Smoother) Reset() {
	s.previous = nil
}

// Len is the number of headings in the history.
func (s *Smoother) Len() int {
	return s.history.Len()
}

func (s *Smoother) set(h float64) *float64 {
	s.previous = &h
	v := h
	return &v
}

// trust is the speed-dependent factor f in [0, 1].
// Unknown speed is trusted fully.
func (s *Smoother) trust(speed *float64) float64 {
	if speed == nil {
		return 1
	}
	return math.Max(0, math.Min(*speed/s.config.SpeedForFullTrust, 1))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
