package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

func TestDistanceMeters(t *testing.T) {
	if d := DistanceMeters(40.8919, 9.7322, 40.8919, 9.7322); d != 0 {
		t.Fatalf("identical points: got %v", d)
	}

	// One degree of latitude on a 6371 km sphere.
	want := EarthRadius * math.Pi / 180
	if d := DistanceMeters(0, 0, 1, 0); math.Abs(d-want) > 1e-6 {
		t.Errorf("one degree: got %v, want %v", d, want)
	}

	// Antipodes are half the circumference, and must not NaN.
	d := DistanceMeters(0, 0, 0, 180)
	if math.IsNaN(d) || math.Abs(d-math.Pi*EarthRadius) > 1e-3 {
		t.Errorf("antipodal: got %v", d)
	}

	// Symmetric.
	if a, b := DistanceMeters(45, 7, 46, 8), DistanceMeters(46, 8, 45, 7); math.Abs(a-b) > 1e-9 {
		t.Errorf("asymmetric: %v != %v", a, b)
	}
}

func TestDistanceAgreesWithOrb(t *testing.T) {
	a := orb.Point{9.7322, 40.8919}
	b := orb.Point{9.7422, 40.8999}
	ours := Distance(a, b)
	theirs := orbgeo.DistanceHaversine(a, b)
	// orb uses the equatorial radius; scale it out.
	theirs = theirs * EarthRadius / orb.EarthRadius
	if math.Abs(ours-theirs) > 0.01 {
		t.Errorf("got %v, orb says %v", ours, theirs)
	}
}

func TestBearing(t *testing.T) {
	cases := []struct {
		lat2, lon2 float64
		want       float64
	}{
		{1, 0, 0},
		{0, 1, 90},
		{-1, 0, 180},
		{0, -1, 270},
	}
	for _, c := range cases {
		if got := Bearing(0, 0, c.lat2, c.lon2); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Bearing to (%v,%v) = %v, want %v", c.lat2, c.lon2, got, c.want)
		}
	}
}

func TestNormalizeBearing(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		360:  0,
		361:  1,
		-1:   359,
		-720: 0,
		725:  5,
	}
	for in, want := range cases {
		if got := NormalizeBearing(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("NormalizeBearing(%v) = %v, want %v", in, got, want)
		}
	}
	if got := NormalizeBearing(-1e-15); got < 0 || got >= 360 {
		t.Errorf("tiny negative escaped range: %v", got)
	}
}

func TestAngleDelta(t *testing.T) {
	cases := []struct{ a, b, want float64 }{
		{359, 1, 2},
		{1, 359, -2},
		{0, 180, 180},
		{90, 270, 180},
		{10, 20, 10},
	}
	for _, c := range cases {
		if got := AngleDelta(c.a, c.b); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("AngleDelta(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestInterpolate(t *testing.T) {
	a := orb.Point{10, 40}
	b := orb.Point{20, 50}
	got := Interpolate(a, b, 0.6)
	if math.Abs(got.Lon()-16) > 1e-9 || math.Abs(got.Lat()-46) > 1e-9 {
		t.Errorf("got %v", got)
	}
	if !Interpolate(a, b, 0).Equal(a) || !Interpolate(a, b, 1).Equal(b) {
		t.Error("endpoints not preserved")
	}

	// Across the antimeridian the short way is 0.2 degrees, not 359.8.
	got = Interpolate(orb.Point{179.9, -17}, orb.Point{-179.9, -17}, 0.25)
	if math.Abs(got.Lon()-179.95) > 1e-9 {
		t.Errorf("eastward across 180: got %v", got)
	}
	got = Interpolate(orb.Point{179.9, -17}, orb.Point{-179.9, -17}, 0.75)
	if math.Abs(got.Lon()-(-179.95)) > 1e-9 {
		t.Errorf("eastward past 180: got %v", got)
	}
}

func TestNormalizeLon(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{180, 180},
		{-180, -180},
		{180.5, -179.5},
		{-180.5, 179.5},
		{540.25, -179.75},
	}
	for _, c := range cases {
		if got := NormalizeLon(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("NormalizeLon(%v) = %v, want %v", c.in, got, c.want)
		}
	}
	if got := UnwrapLon(179.9, -179.9); math.Abs(got-180.1) > 1e-9 {
		t.Errorf("UnwrapLon = %v", got)
	}
}
