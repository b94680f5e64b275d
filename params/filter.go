package params

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every config validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type LocationFilterConfig struct {
	// PositionWindow is the capacity of the rolling history of accepted fixes.
	PositionWindow int `mapstructure:"position_window"`

	// HeadingWindow is the capacity of the rolling history of headings.
	HeadingWindow int `mapstructure:"heading_window"`

	// AccuracyCeiling is the absolute gate. Fixes reporting a horizontal accuracy
	// worse (greater) than this are never recorded.
	AccuracyCeiling float64 `mapstructure:"accuracy_ceiling"`

	// AccuracyFloor is the best accuracy a recorded fix may claim.
	// Better reported accuracies are raised to this value so that
	// a single overconfident fix cannot dominate the weighting.
	AccuracyFloor float64 `mapstructure:"accuracy_floor"`

	// OutlierCeiling is the accuracy above which a recorded fix is ignored by the estimator.
	OutlierCeiling float64 `mapstructure:"outlier_ceiling"`

	// DisplayAccuracyCeiling clamps the accuracy of emitted fixes.
	DisplayAccuracyCeiling float64 `mapstructure:"display_accuracy_ceiling"`

	ProcessNoise     float64 `mapstructure:"process_noise"`
	MeasurementNoise float64 `mapstructure:"measurement_noise"`

	// InitialCovariance seeds the estimator's scalar error covariance.
	InitialCovariance float64 `mapstructure:"initial_covariance"`

	// MinSamples is the history length below which the estimator does not blend.
	MinSamples int `mapstructure:"min_samples"`

	// MovementThreshold is the distance in meters from the lock
	// under which a candidate is considered jitter.
	MovementThreshold float64 `mapstructure:"movement_threshold"`

	// RequiredStableCount is the streak of in-threshold candidates
	// after which the device is considered stationary.
	RequiredStableCount int `mapstructure:"required_stable_count"`

	// LockBlend is the weight given to the candidate when the lock moves.
	LockBlend float64 `mapstructure:"lock_blend"`

	// StationarySpeed is the speed in m/s below which the heading freezes.
	StationarySpeed float64 `mapstructure:"stationary_speed"`

	// AlphaMin and AlphaMax bound the exponential-smoothing factor for headings.
	AlphaMin float64 `mapstructure:"alpha_min"`
	AlphaMax float64 `mapstructure:"alpha_max"`

	// SpeedForFullTrust is the speed in m/s at which the heading smoother
	// fully trusts the most recent reading.
	SpeedForFullTrust float64 `mapstructure:"speed_for_full_trust"`
}

func DefaultLocationFilterConfig() *LocationFilterConfig {
	return &LocationFilterConfig{
		PositionWindow:         5,
		HeadingWindow:          8,
		AccuracyCeiling:        100,
		AccuracyFloor:          15,
		OutlierCeiling:         50,
		DisplayAccuracyCeiling: 100,
		ProcessNoise:           0.1,
		MeasurementNoise:       1.0,
		InitialCovariance:      1.0,
		MinSamples:             3,
		MovementThreshold:      2.5,
		RequiredStableCount:    4,
		LockBlend:              0.6,
		StationarySpeed:        0.5,
		AlphaMin:               0,
		AlphaMax:               0.7,
		SpeedForFullTrust:      2,
	}
}

// Validate returns an error wrapping ErrInvalidConfig that joins every violated constraint,
// or nil.
func (c *LocationFilterConfig) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}
	if c.PositionWindow < 1 {
		bad("position window must be positive, got %d", c.PositionWindow)
	}
	if c.HeadingWindow < 1 {
		bad("heading window must be positive, got %d", c.HeadingWindow)
	}
	if c.AccuracyCeiling <= 0 {
		bad("accuracy ceiling must be positive, got %v", c.AccuracyCeiling)
	}
	if c.AccuracyFloor < 0 || c.AccuracyFloor > c.AccuracyCeiling {
		bad("accuracy floor %v must be within [0, %v]", c.AccuracyFloor, c.AccuracyCeiling)
	}
	if c.OutlierCeiling <= 0 {
		bad("outlier ceiling must be positive, got %v", c.OutlierCeiling)
	}
	if c.DisplayAccuracyCeiling <= 0 {
		bad("display accuracy ceiling must be positive, got %v", c.DisplayAccuracyCeiling)
	}
	if c.ProcessNoise < 0 {
		bad("process noise must not be negative, got %v", c.ProcessNoise)
	}
	if c.MeasurementNoise <= 0 {
		bad("measurement noise must be positive, got %v", c.MeasurementNoise)
	}
	if c.InitialCovariance < 0 {
		bad("initial covariance must not be negative, got %v", c.InitialCovariance)
	}
	if c.MinSamples < 1 {
		bad("min samples must be positive, got %d", c.MinSamples)
	}
	if c.MovementThreshold <= 0 {
		bad("movement threshold must be positive, got %v", c.MovementThreshold)
	}
	if c.RequiredStableCount < 1 {
		bad("required stable count must be positive, got %d", c.RequiredStableCount)
	}
	if c.LockBlend <= 0 || c.LockBlend > 1 {
		bad("lock blend must be within (0, 1], got %v", c.LockBlend)
	}
	if c.StationarySpeed < 0 {
		bad("stationary speed must not be negative, got %v", c.StationarySpeed)
	}
	if c.AlphaMin < 0 || c.AlphaMax > 1 || c.AlphaMin > c.AlphaMax {
		bad("alpha bounds [%v, %v] must be ordered within [0, 1]", c.AlphaMin, c.AlphaMax)
	}
	if c.SpeedForFullTrust <= 0 {
		bad("speed for full trust must be positive, got %v", c.SpeedForFullTrust)
	}
	return errors.Join(errs...)
}
