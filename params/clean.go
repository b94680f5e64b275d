package params

import "time"

// TrackCleaningConfig bounds what a cleaner considers physically plausible
// before fixes reach a location filter.
type TrackCleaningConfig struct {
	// TeleportSpeedFactor is the factor to determine teleportation.
	// If calculated speed is X times faster than reported speed, it's a teleportation.
	TeleportSpeedFactor float64 `mapstructure:"teleport_speed_factor"`

	// TeleportMinDistance is the minimum distance between two points to consider teleportation.
	// This helps remove spurious teleportations for small distances (e.g. speed=0.04, distance=10).
	TeleportMinDistance float64 `mapstructure:"teleport_min_distance"`

	// Teleportations must happen within this window of time.
	// Otherwise, it'll be considered signal loss instead.
	TeleportWindow time.Duration `mapstructure:"teleport_window"`
}

func DefaultCleanConfig() *TrackCleaningConfig {
	return &TrackCleaningConfig{
		TeleportSpeedFactor: 10.0,
		TeleportWindow:      60 * time.Second,
		TeleportMinDistance: 25.0,
	}
}
