// Package session hosts location filters for many devices at once.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotblauer/fixd/conceptual"
	"github.com/rotblauer/fixd/geo/locfilter"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/types/fix"
)

// Session is one device's tracking session: a filter guarded for use
// from many goroutines, and the last fix it emitted.
type Session struct {
	Device  conceptual.DeviceID
	ID      uuid.UUID
	Started time.Time

	mu      sync.Mutex
	filter  *locfilter.Filter
	last    *fix.SmoothedFix
	updates uint64
}

func NewSession(device conceptual.DeviceID, config *params.LocationFilterConfig) (*Session, error) {
	f, err := locfilter.New(config)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", device, err)
	}
	return &Session{
		Device:  device,
		ID:      uuid.New(),
		Started: time.Now(),
		filter:  f,
	}, nil
}

func (s *Session) Update(raw fix.RawFix) fix.SmoothedFix {
	return s.update(raw, nil)
}

// update runs raw through the filter. publish, if set, is called with the result
// before the session is unlocked, so concurrent updates publish in update order.
func (s *Session) update(raw fix.RawFix, publish func(fix.SmoothedFix)) fix.SmoothedFix {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.filter.Update(raw)
	s.updates++
	if out.Status != fix.StatusInvalid {
		c := out.Copy()
		s.last = &c
	}
	if publish != nil {
		publish(out.Copy())
	}
	return out
}

// Reset forces the filter to re-acquire on its next fix.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.Reset()
}

// Last returns the last usable fix emitted, if any.
func (s *Session) Last() (fix.SmoothedFix, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return fix.SmoothedFix{}, false
	}
	return s.last.Copy(), true
}

func (s *Session) Stats() locfilter.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.Stats()
}

func (s *Session) Updates() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}
