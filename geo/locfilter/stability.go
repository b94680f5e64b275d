package locfilter

import (
	"github.com/paulmach/orb"
	"github.com/rotblauer/fixd/geo"
	"github.com/rotblauer/fixd/types/fix"
)

// acquire locks onto an accepted fix unconditionally.
// The fix is emitted as recorded, with its raw heading.
func (f *Filter) acquire(in fix.RawFix) fix.SmoothedFix {
	out := f.fromRaw(in)
	out.Heading = f.heading.Acquire(in.Heading)
	out.Status = fix.StatusAcquired
	f.locked = &out
	f.streak = 0
	f.stats.Acquired++
	f.logger.Debug("Acquired lock", "lat", out.Lat, "lon", out.Lon, "accuracy", out.Accuracy)
	return out.Copy()
}

// warmup holds the lock while the history is too short to blend.
// The raw fix stands in as the candidate for streak keeping.
func (f *Filter) warmup(in fix.RawFix, h *float64) fix.SmoothedFix {
	if geo.DistanceMeters(f.locked.Lat, f.locked.Lon, in.Lat, in.Lon) < f.config.MovementThreshold {
		f.streak++
	} else {
		f.streak = 0
	}
	f.stats.Warmup++
	return f.hold(in, h, in.Speed, fix.StatusWarmup)
}

// stabilize is the hysteresis gate. Candidates within the movement threshold
// of the lock are jitter and the lock is held, with speed forced to zero once
// the streak is long enough. Anything further moves the lock part of the way
// toward the candidate.
func (f *Filter) stabilize(in fix.RawFix, candidate estimate, h *float64) fix.SmoothedFix {
	d := geo.DistanceMeters(f.locked.Lat, f.locked.Lon, candidate.Lat, candidate.Lon)
	if d < f.config.MovementThreshold {
		f.streak++
		if f.streak >= f.config.RequiredStableCount {
			f.stats.Stationary++
			return f.hold(in, h, fix.Float(0), fix.StatusStationary)
		}
		f.stats.Held++
		return f.hold(in, h, in.Speed, fix.StatusHeld)
	}

	f.streak = 0
	f.stats.Moving++
	from := orb.Point{f.locked.Lon, f.locked.Lat}
	to := orb.Point{candidate.Lon, candidate.Lat}
	p := geo.Interpolate(from, to, f.config.LockBlend)

	alt := fix.Clone(f.locked.Altitude)
	switch {
	case alt != nil && candidate.Altitude != nil:
		*alt += (*candidate.Altitude - *alt) * f.config.LockBlend
	case candidate.Altitude != nil:
		alt = fix.Clone(candidate.Altitude)
	}

	next := fix.SmoothedFix{
		Time:     in.Time,
		Lat:      p.Lat(),
		Lon:      p.Lon(),
		Altitude: alt,
		Accuracy: f.displayAccuracy(candidate.Accuracy),
		Heading:  h,
		Speed:    fix.Clone(in.Speed),
		Status:   fix.StatusMoving,
	}
	f.logger.Debug("Moved lock", "distance", d, "lat", next.Lat, "lon", next.Lon)
	f.locked = &next
	return next.Copy()
}

// hold emits the locked position with the given heading and speed,
// which the lock adopts so that later gated fixes repeat them.
func (f *Filter) hold(in fix.RawFix, h, speed *float64, status fix.Status) fix.SmoothedFix {
	f.locked.Heading = fix.Clone(h)
	f.locked.Speed = fix.Clone(speed)
	f.locked.Status = status
	return f.emitLocked(in, status)
}
