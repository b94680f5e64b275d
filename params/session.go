package params

import (
	"errors"
	"fmt"
	"time"
)

type SessionConfig struct {
	// SessionTTL is how long an idle device session is kept before
	// its tracking is considered stopped and its filter discarded.
	SessionTTL time.Duration `mapstructure:"ttl"`

	// MaxDevices caps the live sessions, and any per-device state kept beside them.
	// The least recently updated device is dropped first.
	MaxDevices int `mapstructure:"max_devices"`

	// DedupeCacheSize is the number of recent fix hashes remembered per host.
	DedupeCacheSize int `mapstructure:"dedupe_cache_size"`

	Filter *LocationFilterConfig `mapstructure:"-"`
}

func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		SessionTTL:      10 * time.Minute,
		MaxDevices:      10_000,
		DedupeCacheSize: 10_000,
		Filter:          DefaultLocationFilterConfig(),
	}
}

// Validate returns an error wrapping ErrInvalidConfig that joins every violated constraint,
// including those of the filter config, or nil.
func (c *SessionConfig) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}
	if c.SessionTTL <= 0 {
		bad("session ttl must be positive, got %v", c.SessionTTL)
	}
	if c.MaxDevices < 1 {
		bad("max devices must be positive, got %d", c.MaxDevices)
	}
	// groupcache treats a zero-sized lru as unbounded.
	if c.DedupeCacheSize < 1 {
		bad("dedupe cache size must be positive, got %d", c.DedupeCacheSize)
	}
	if c.Filter != nil {
		errs = append(errs, c.Filter.Validate())
	}
	return errors.Join(errs...)
}
