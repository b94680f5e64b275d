package locfilter

import (
	"math"

	"github.com/rotblauer/fixd/geo"
	"github.com/rotblauer/fixd/types/fix"
)

type verdict int

const (
	verdictAccept verdict = iota
	// verdictInaccurate is a well-formed fix worse than the accuracy ceiling.
	verdictInaccurate
	// verdictInvalid is a fix that cannot be located at all.
	verdictInvalid
)

// gate sanitizes a raw fix and decides whether it may enter the history.
// Accepted fixes are returned with their accuracy raised to the floor.
// Non-finite optional readings, and negative speeds, are dropped to absent.
func (f *Filter) gate(raw fix.RawFix) (fix.RawFix, verdict) {
	if !finite(raw.Lat) || !finite(raw.Lon) || !finite(raw.Accuracy) ||
		raw.Accuracy < 0 ||
		raw.Lat < -90 || raw.Lat > 90 ||
		raw.Lon < -180 || raw.Lon > 180 {
		return raw, verdictInvalid
	}

	out := raw
	out.Altitude = fix.Finite(raw.Altitude)
	out.Heading = fix.Finite(raw.Heading)
	out.Speed = fix.Finite(raw.Speed)
	if out.Speed != nil && *out.Speed < 0 {
		out.Speed = nil
	}

	if out.Accuracy > f.config.AccuracyCeiling {
		return out, verdictInaccurate
	}
	out.Accuracy = math.Max(out.Accuracy, f.config.AccuracyFloor)
	return out, verdictAccept
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func normalizeHeading(h float64) float64 {
	return geo.NormalizeBearing(h)
}
