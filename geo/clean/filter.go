// Package clean drops fixes no location filter should see:
// physically implausible readings and teleportations.
package clean

import (
	"context"

	"github.com/rotblauer/fixd/common"
	"github.com/rotblauer/fixd/geo"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/types/fix"
)

// FilterUltraHighSpeed filters out fixes with unreasonable speeds.
func FilterUltraHighSpeed(f fix.RawFix) bool {
	return f.Speed == nil || *f.Speed < common.SpeedOfSound
}

// FilterWildElevation filters out fixes with unreasonable elevations.
func FilterWildElevation(f fix.RawFix) bool {
	if f.Altitude == nil {
		return true
	}
	deepestDive := -100.0
	return *f.Altitude > common.ElevationOfDeadSea+deepestDive &&
		*f.Altitude < common.ElevationCommercialFlightCruising*1.2
}

// Cleaner applies the filters to one device's fixes, in order.
type Cleaner struct {
	config *params.TrackCleaningConfig
	last   *fix.RawFix
}

func NewCleaner(config *params.TrackCleaningConfig) *Cleaner {
	if config == nil {
		config = params.DefaultCleanConfig()
	}
	return &Cleaner{config: config}
}

// Keep reports whether f should be passed on.
func (c *Cleaner) Keep(f fix.RawFix) bool {
	if !FilterUltraHighSpeed(f) || !FilterWildElevation(f) {
		return false
	}
	if c.teleported(f) {
		return false
	}
	c.last = &f
	return true
}

// teleported compares the speed needed to get from the last kept fix to f
// against the speed f reports.
func (c *Cleaner) teleported(f fix.RawFix) bool {
	// The first fix is always kept.
	if c.last == nil {
		return false
	}
	// Signal loss is not teleportation.
	interval := f.Time.Sub(c.last.Time)
	if interval <= 0 || interval > c.config.TeleportWindow {
		return false
	}
	dist := geo.Distance(c.last.Point(), f.Point())
	if dist < c.config.TeleportMinDistance {
		return false
	}
	// Without a reported speed, there is nothing to compare.
	if f.Speed == nil {
		return false
	}
	calculatedSpeed := dist / interval.Seconds()
	return calculatedSpeed > *f.Speed*c.config.TeleportSpeedFactor
}

// TeleportationFilter is a stream stage keeping the fixes a Cleaner keeps.
func TeleportationFilter(ctx context.Context, config *params.TrackCleaningConfig, in <-chan fix.RawFix) <-chan fix.RawFix {
	out := make(chan fix.RawFix)
	c := NewCleaner(config)
	go func() {
		defer close(out)
		for f := range in {
			if !c.Keep(f) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- f:
			}
		}
	}()
	return out
}
