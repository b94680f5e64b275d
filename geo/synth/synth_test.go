package synth

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/rotblauer/fixd/geo"
)

func TestDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	a := Walk(cfg, 20, 2, 90)
	b := Walk(cfg, 20, 2, 90)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different tracks")
	}
	cfg.Seed = 2
	if reflect.DeepEqual(a, Walk(cfg, 20, 2, 90)) {
		t.Error("different seeds produced the same track")
	}
}

func TestWalk_NoiselessSteps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Noise = 0
	cfg.HeadingNoise = 0
	track := Walk(cfg, 10, 2, 0)
	for i := 1; i < len(track); i++ {
		d := geo.DistanceMeters(track[i-1].Lat, track[i-1].Lon, track[i].Lat, track[i].Lon)
		if math.Abs(d-2) > 1e-6 {
			t.Errorf("step %d is %v m", i, d)
		}
		if track[i].Lat <= track[i-1].Lat {
			t.Errorf("step %d did not go north", i)
		}
		if *track[i].Heading != 0 {
			t.Errorf("heading %v", *track[i].Heading)
		}
	}
	if got := track[3].Time.Sub(track[0].Time); got != 3*cfg.Interval {
		t.Errorf("interval: %v", got)
	}
}

func TestStationary_StaysNear(t *testing.T) {
	cfg := DefaultConfig()
	for i, f := range Stationary(cfg, 100) {
		d := geo.DistanceMeters(cfg.Origin.Lat(), cfg.Origin.Lon(), f.Lat, f.Lon)
		if d > 6*cfg.Noise {
			t.Errorf("fix %d is %v m out", i, d)
		}
		if *f.Speed >= 0.5 {
			t.Errorf("fix %d speed %v", i, *f.Speed)
		}
	}
}

func TestTurn_CrossesNorth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeadingNoise = 0
	track := Turn(cfg, 5, 3, 340, 40)
	want := []float64{340, 350, 0, 10, 20}
	for i, f := range track {
		if math.Abs(geo.AngleDelta(want[i], *f.Heading)) > 1e-9 {
			t.Errorf("fix %d heading %v, want %v", i, *f.Heading, want[i])
		}
	}
}

func TestScenario(t *testing.T) {
	for _, name := range Scenarios {
		track, err := Scenario(name, DefaultConfig(), 7)
		if err != nil || len(track) != 7 {
			t.Errorf("%s: %d fixes, err %v", name, len(track), err)
		}
	}
	if _, err := Scenario("sail", DefaultConfig(), 3); !errors.Is(err, ErrUnknownScenario) {
		t.Errorf("want ErrUnknownScenario, got %v", err)
	}
}
