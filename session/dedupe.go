package session

import (
	"fmt"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/fixd/conceptual"
	"github.com/rotblauer/fixd/types/fix"
)

// dedupeKey flattens a fix for hashing; hashstructure skips unexported
// fields, so the time is carried as nanoseconds.
type dedupeKey struct {
	Device   string
	UnixNano int64
	Lat, Lon float64
	Altitude *float64
	Accuracy float64
	Heading  *float64
	Speed    *float64
}

// NewDedupeFunc returns a func reporting true for fixes it has not seen among
// the last size fixes (per device), and false for exact repeats.
// Sizes below 1 are raised to 1.
// Some clients resend whole batches on a flaky uplink; a repeated fix would
// otherwise count toward the stability streak.
func NewDedupeFunc(size int) func(conceptual.DeviceID, fix.RawFix) bool {
	var mu sync.Mutex
	if size < 1 {
		size = 1
	}
	cache := lru.New(size)
	return func(device conceptual.DeviceID, f fix.RawFix) bool {
		hash, err := hashstructure.Hash(dedupeKey{
			Device:   device.String(),
			UnixNano: f.Time.UnixNano(),
			Lat:      f.Lat,
			Lon:      f.Lon,
			Altitude: f.Altitude,
			Accuracy: f.Accuracy,
			Heading:  f.Heading,
			Speed:    f.Speed,
		}, hashstructure.FormatV2, nil)
		if err != nil {
			return false
		}
		key := fmt.Sprintf("%d", hash)
		mu.Lock()
		defer mu.Unlock()
		if _, ok := cache.Get(key); ok {
			return false
		}
		cache.Add(key, true)
		return true
	}
}
