package clean

import (
	"context"
	"testing"
	"time"

	"github.com/rotblauer/fixd/geo/synth"
	"github.com/rotblauer/fixd/stream"
	"github.com/rotblauer/fixd/types/fix"
)

func TestFilters(t *testing.T) {
	f := fix.RawFix{Lat: 1, Lon: 1, Accuracy: 10}
	if !FilterUltraHighSpeed(f) || !FilterWildElevation(f) {
		t.Error("missing readings should pass")
	}
	f.Speed = fix.Float(400)
	if FilterUltraHighSpeed(f) {
		t.Error("supersonic fix kept")
	}
	f.Altitude = fix.Float(20000)
	if FilterWildElevation(f) {
		t.Error("stratospheric fix kept")
	}
	f.Altitude = fix.Float(-1000)
	if FilterWildElevation(f) {
		t.Error("subterranean fix kept")
	}
}

func TestCleaner_Teleportation(t *testing.T) {
	raws := synth.Walk(synth.DefaultConfig(), 6, 1.4, 90)

	// A fix 1 km off, one second later, claiming walking speed.
	jump := raws[3]
	jump.Lat += 0.01
	raws[3] = jump

	c := NewCleaner(nil)
	var kept []int
	for i, r := range raws {
		if c.Keep(r) {
			kept = append(kept, i)
		}
	}
	if len(kept) != 5 || kept[3] != 4 {
		t.Errorf("kept %v, want the jump dropped", kept)
	}
}

func TestCleaner_SignalLoss(t *testing.T) {
	raws := synth.Walk(synth.DefaultConfig(), 2, 1.4, 90)
	far := raws[1]
	far.Lat += 0.01
	far.Time = raws[0].Time.Add(10 * time.Minute)

	c := NewCleaner(nil)
	if !c.Keep(raws[0]) || !c.Keep(far) {
		t.Error("a jump after signal loss is not teleportation")
	}
}

func TestTeleportationFilter(t *testing.T) {
	ctx := context.Background()
	raws := synth.Stationary(synth.DefaultConfig(), 10)
	got := stream.Collect(ctx, TeleportationFilter(ctx, nil, stream.Slice(ctx, raws)))
	if len(got) != len(raws) {
		t.Errorf("jitter dropped: kept %d of %d", len(got), len(raws))
	}
}
