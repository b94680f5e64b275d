package session

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rotblauer/fixd/conceptual"
	"github.com/rotblauer/fixd/params"
)

// DeviceState holds per-device helpers that live alongside a device's session,
// like NMEA assemblers and track cleaners. An entry not used for the session TTL
// is dropped, and at most MaxDevices are kept, least recently used first out.
// A device returning after that starts over with fresh state.
type DeviceState[T any] struct {
	mu     sync.Mutex
	cache  *expirable.LRU[conceptual.DeviceID, T]
	create func(conceptual.DeviceID) T
}

func NewDeviceState[T any](config *params.SessionConfig, create func(conceptual.DeviceID) T) *DeviceState[T] {
	if config == nil {
		config = params.DefaultSessionConfig()
	}
	return &DeviceState[T]{
		cache:  expirable.NewLRU[conceptual.DeviceID, T](config.MaxDevices, nil, config.SessionTTL),
		create: create,
	}
}

// Get returns the device's state, creating it if missing or expired.
// Every Get extends the entry's life.
func (s *DeviceState[T]) Get(device conceptual.DeviceID) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(device)
	if !ok {
		v = s.create(device)
	}
	// Re-adding refreshes the expiry.
	s.cache.Add(device, v)
	return v
}

// Remove drops the device's state. It is a no-op for unknown devices.
func (s *DeviceState[T]) Remove(device conceptual.DeviceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(device)
}

func (s *DeviceState[T]) Len() int {
	return s.cache.Len()
}
