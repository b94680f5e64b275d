// Package synth generates deterministic synthetic fix tracks.
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/rotblauer/fixd/geo"
	"github.com/rotblauer/fixd/types/fix"
)

var ErrUnknownScenario = errors.New("unknown scenario")

// Scenarios lists the names accepted by Scenario.
var Scenarios = []string{"stationary", "walk", "turn"}

type Config struct {
	Origin   orb.Point
	Start    time.Time
	Interval time.Duration

	// Accuracy is the reported accuracy of every fix.
	Accuracy float64
	// Noise is the standard deviation, in meters, of the position error.
	Noise float64
	// HeadingNoise is the standard deviation, in degrees, of the compass error.
	HeadingNoise float64

	Seed int64
}

func DefaultConfig() Config {
	return Config{
		// La Maddalena.
		Origin:       orb.Point{9.7322, 40.8919},
		Start:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Interval:     time.Second,
		Accuracy:     10,
		Noise:        1.5,
		HeadingNoise: 8,
		Seed:         1,
	}
}

type generator struct {
	cfg Config
	rnd *rand.Rand
}

func newGenerator(cfg Config) *generator {
	return &generator{cfg: cfg, rnd: rand.New(rand.NewSource(cfg.Seed))}
}

// move returns the point distance meters from p at bearing, measured on geo's sphere.
func move(p orb.Point, bearing, distance float64) orb.Point {
	return orbgeo.PointAtBearingAndDistance(p, bearing, distance*orb.EarthRadius/geo.EarthRadius)
}

func (g *generator) jitter(p orb.Point) orb.Point {
	if g.cfg.Noise == 0 {
		return p
	}
	return move(p, g.rnd.Float64()*360, math.Abs(g.rnd.NormFloat64())*g.cfg.Noise)
}

func (g *generator) fixAt(i int, p orb.Point, heading, speed float64) fix.RawFix {
	h := geo.NormalizeBearing(heading + g.rnd.NormFloat64()*g.cfg.HeadingNoise)
	return fix.RawFix{
		Time:     g.cfg.Start.Add(time.Duration(i) * g.cfg.Interval),
		Lat:      p.Lat(),
		Lon:      p.Lon(),
		Accuracy: g.cfg.Accuracy,
		Heading:  fix.Float(h),
		Speed:    fix.Float(speed),
	}
}

// Stationary is n fixes scattered around the origin, with a wandering compass
// and a near-zero reported speed.
func Stationary(cfg Config, n int) []fix.RawFix {
	g := newGenerator(cfg)
	out := make([]fix.RawFix, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.fixAt(i, g.jitter(cfg.Origin), g.rnd.Float64()*360, 0.1*g.rnd.Float64()))
	}
	return out
}

// Walk is n fixes travelling from the origin in a straight line at speed m/s.
func Walk(cfg Config, n int, speed, bearing float64) []fix.RawFix {
	g := newGenerator(cfg)
	step := speed * cfg.Interval.Seconds()
	out := make([]fix.RawFix, 0, n)
	for i := 0; i < n; i++ {
		truth := move(cfg.Origin, bearing, step*float64(i))
		out = append(out, g.fixAt(i, g.jitter(truth), bearing, speed))
	}
	return out
}

// Turn is n fixes travelling at speed m/s while the bearing sweeps
// from start through sweep degrees, eg. 340 through 40 crosses north.
func Turn(cfg Config, n int, speed, start, sweep float64) []fix.RawFix {
	g := newGenerator(cfg)
	step := speed * cfg.Interval.Seconds()
	out := make([]fix.RawFix, 0, n)
	truth := cfg.Origin
	for i := 0; i < n; i++ {
		bearing := start
		if n > 1 {
			bearing += sweep * float64(i) / float64(n-1)
		}
		if i > 0 {
			truth = move(truth, bearing, step)
		}
		out = append(out, g.fixAt(i, g.jitter(truth), bearing, speed))
	}
	return out
}

// Scenario generates a named track of n fixes.
func Scenario(name string, cfg Config, n int) ([]fix.RawFix, error) {
	switch name {
	case "stationary":
		return Stationary(cfg, n), nil
	case "walk":
		return Walk(cfg, n, 1.4, 30), nil
	case "turn":
		return Turn(cfg, n, 3, 340, 40), nil
	}
	return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownScenario, name, Scenarios)
}
