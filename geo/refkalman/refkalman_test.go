package refkalman

import (
	"testing"
	"time"

	"github.com/rotblauer/fixd/geo"
	"github.com/rotblauer/fixd/geo/synth"
)

func TestTrack_Aligned(t *testing.T) {
	raws := synth.Walk(synth.DefaultConfig(), 30, 2, 45)
	ref := Track(raws)
	if len(ref) != len(raws) {
		t.Fatalf("want %d points, got %d", len(raws), len(ref))
	}
	if !ref[0].Equal(raws[0].Point()) {
		t.Errorf("first estimate should be the first fix")
	}
}

func TestTrack_FollowsWalk(t *testing.T) {
	cfg := synth.DefaultConfig()
	raws := synth.Walk(cfg, 60, 2, 0)
	ref := Track(raws)
	last := raws[len(raws)-1]
	d := geo.DistanceMeters(ref[len(ref)-1].Lat(), ref[len(ref)-1].Lon(), last.Lat, last.Lon)
	if d > 30 {
		t.Errorf("reference track ended %.1f m from the last fix", d)
	}
}

func TestTracker_IgnoresRepeats(t *testing.T) {
	raws := synth.Stationary(synth.DefaultConfig(), 3)
	tr := &Tracker{}
	first, err := tr.Observe(raws[0])
	if err != nil {
		t.Fatal(err)
	}
	again, err := tr.Observe(raws[0])
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equal(again) {
		t.Error("a repeated fix moved the estimate")
	}
}

func TestTrack_FollowsWalkWithoutSpeed(t *testing.T) {
	raws := synth.Walk(synth.DefaultConfig(), 60, 2, 0)
	for i := range raws {
		raws[i].Speed = nil
	}
	ref := Track(raws)
	last := raws[len(raws)-1]
	d := geo.DistanceMeters(ref[len(ref)-1].Lat(), ref[len(ref)-1].Lon(), last.Lat, last.Lon)
	if d > 30 {
		t.Errorf("reference track without speeds ended %.1f m from the last fix", d)
	}
}

func TestTracker_TimeTravel(t *testing.T) {
	raws := synth.Walk(synth.DefaultConfig(), 10, 2, 90)
	tr := &Tracker{}
	for _, f := range raws[:5] {
		if _, err := tr.Observe(f); err != nil {
			t.Fatal(err)
		}
	}
	held := tr.point

	// Slightly late delivery is dropped.
	late := raws[9]
	late.Time = raws[4].Time.Add(-500 * time.Millisecond)
	if p, _ := tr.Observe(late); !p.Equal(held) {
		t.Errorf("fix half a second back moved the estimate to %v", p)
	}

	// Further back, the tracker starts over at that fix.
	back := raws[9]
	back.Time = raws[0].Time.Add(-time.Minute)
	if p, _ := tr.Observe(back); !p.Equal(back.Point()) {
		t.Errorf("want restart at %v, got %v", back.Point(), p)
	}
}
