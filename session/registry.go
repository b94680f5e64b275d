package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rotblauer/fixd/conceptual"
	"github.com/rotblauer/fixd/events"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/types/fix"
)

// Registry keeps one Session per device. A session not updated for the
// configured TTL is dropped, which ends its tracking; the device's next fix
// starts a new session.
type Registry struct {
	config *params.SessionConfig
	logger *slog.Logger

	mu       sync.Mutex
	sessions *ttlcache.Cache[conceptual.DeviceID, *Session]

	endMu sync.Mutex
	onEnd []func(conceptual.DeviceID)

	// Feed receives every update. It defaults to events.SmoothedFeed.
	Feed *event.FeedOf[events.DeviceFix]
}

func NewRegistry(config *params.SessionConfig) *Registry {
	if config == nil {
		config = params.DefaultSessionConfig()
	}
	r := &Registry{
		config: config,
		logger: slog.With("d", "session"),
		sessions: ttlcache.New[conceptual.DeviceID, *Session](
			ttlcache.WithTTL[conceptual.DeviceID, *Session](config.SessionTTL),
			ttlcache.WithCapacity[conceptual.DeviceID, *Session](uint64(max(config.MaxDevices, 0)))),
		Feed: &events.SmoothedFeed,
	}
	r.sessions.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[conceptual.DeviceID, *Session]) {
		s := item.Value()
		r.logger.Info("Session ended", "device", s.Device, "session", s.ID,
			"updates", s.Updates(), "expired", reason == ttlcache.EvictionReasonExpired)
		r.endMu.Lock()
		hooks := r.onEnd
		r.endMu.Unlock()
		for _, fn := range hooks {
			fn(s.Device)
		}
	})
	return r
}

// OnSessionEnd registers fn to be called with the device of every session
// that expires or is evicted.
func (r *Registry) OnSessionEnd(fn func(conceptual.DeviceID)) {
	r.endMu.Lock()
	defer r.endMu.Unlock()
	r.onEnd = append(r.onEnd, fn)
}

func (r *Registry) Config() *params.SessionConfig {
	return r.config
}

// Start runs the expiry loop until Stop. It blocks.
func (r *Registry) Start() {
	r.sessions.Start()
}

func (r *Registry) Stop() {
	r.sessions.Stop()
}

// Get returns the device's session, starting one if needed.
// Getting a session extends its life.
func (r *Registry) Get(device conceptual.DeviceID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item := r.sessions.Get(device); item != nil {
		return item.Value(), nil
	}
	s, err := NewSession(device, r.config.Filter)
	if err != nil {
		return nil, err
	}
	r.sessions.Set(device, s, ttlcache.DefaultTTL)
	r.logger.Info("Session started", "device", device, "session", s.ID)
	return s, nil
}

// Update runs raw through the device's filter and publishes the result on the feed.
func (r *Registry) Update(device conceptual.DeviceID, raw fix.RawFix) (fix.SmoothedFix, error) {
	s, err := r.Get(device)
	if err != nil {
		return fix.SmoothedFix{}, err
	}
	feed := r.Feed
	if feed == nil {
		return s.Update(raw), nil
	}
	return s.update(raw, func(out fix.SmoothedFix) {
		feed.Send(events.DeviceFix{Device: device, Raw: raw, Fix: out})
	}), nil
}

// Reset clears the device's lock. It reports false if the device has no session.
func (r *Registry) Reset(device conceptual.DeviceID) bool {
	item := r.sessions.Get(device)
	if item == nil {
		return false
	}
	item.Value().Reset()
	events.ResetFeed.Send(device)
	r.logger.Debug("Session reset", "device", device)
	return true
}

// Last returns the device's last usable fix.
func (r *Registry) Last(device conceptual.DeviceID) (fix.SmoothedFix, bool) {
	item := r.sessions.Get(device, ttlcache.WithDisableTouchOnHit[conceptual.DeviceID, *Session]())
	if item == nil {
		return fix.SmoothedFix{}, false
	}
	return item.Value().Last()
}

// Lasts returns the last usable fix of every live session.
func (r *Registry) Lasts() map[conceptual.DeviceID]fix.SmoothedFix {
	out := make(map[conceptual.DeviceID]fix.SmoothedFix)
	for device, item := range r.sessions.Items() {
		if last, ok := item.Value().Last(); ok {
			out[device] = last
		}
	}
	return out
}

func (r *Registry) Len() int {
	return r.sessions.Len()
}
