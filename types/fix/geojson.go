package fix

import (
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	ErrNotPoint        = errors.New("feature geometry is not a point")
	ErrMissingTime     = errors.New("missing Time property")
	ErrMissingAccuracy = errors.New("missing Accuracy property")
)

// FromFeature reads a RawFix from a point feature carrying track properties:
// Time (RFC3339) or UnixTime, Accuracy, and optionally Elevation, Heading and Speed.
// Negative Heading or Speed are conventional "unknown" markers and read as absent.
func FromFeature(f *geojson.Feature) (RawFix, error) {
	if f == nil || f.Geometry == nil {
		return RawFix{}, ErrNotPoint
	}
	pt, ok := f.Geometry.(orb.Point)
	if !ok {
		return RawFix{}, fmt.Errorf("%w: %s", ErrNotPoint, f.Geometry.GeoJSONType())
	}
	t, err := featureTime(f.Properties)
	if err != nil {
		return RawFix{}, err
	}
	acc, ok := f.Properties["Accuracy"].(float64)
	if !ok {
		return RawFix{}, ErrMissingAccuracy
	}
	out := RawFix{
		Time:     t,
		Lat:      pt.Lat(),
		Lon:      pt.Lon(),
		Accuracy: acc,
	}
	if v, ok := f.Properties["Elevation"].(float64); ok {
		out.Altitude = Float(v)
	}
	if v, ok := f.Properties["Heading"].(float64); ok && v >= 0 {
		out.Heading = Float(v)
	}
	if v, ok := f.Properties["Speed"].(float64); ok && v >= 0 {
		out.Speed = Float(v)
	}
	return out, nil
}

// featureTime prefers Time, which keeps sub-second precision, over the whole-second UnixTime.
func featureTime(props geojson.Properties) (time.Time, error) {
	s, hasTime := props["Time"].(string)
	if hasTime {
		t, err := time.Parse(time.RFC3339, s)
		if err == nil {
			return t, nil
		}
		if _, ok := props["UnixTime"]; !ok {
			return time.Time{}, fmt.Errorf("parse Time: %w", err)
		}
	}
	switch v := props["UnixTime"].(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	case int64:
		return time.Unix(v, 0).UTC(), nil
	}
	return time.Time{}, ErrMissingTime
}

// ToFeature renders the fix as a point feature with track properties.
// The device name goes in the Name property; absent readings are omitted.
func (s SmoothedFix) ToFeature(name string) *geojson.Feature {
	f := geojson.NewFeature(s.Point())
	f.Properties["Name"] = name
	f.Properties["Time"] = s.Time.Format(time.RFC3339Nano)
	f.Properties["UnixTime"] = s.Time.Unix()
	f.Properties["Accuracy"] = s.Accuracy
	f.Properties["Status"] = string(s.Status)
	if s.Altitude != nil {
		f.Properties["Elevation"] = *s.Altitude
	}
	if s.Heading != nil {
		f.Properties["Heading"] = *s.Heading
	}
	if s.Speed != nil {
		f.Properties["Speed"] = *s.Speed
	}
	return f
}

// ToFeature renders a raw fix the same way, without a status.
func (f RawFix) ToFeature(name string) *geojson.Feature {
	sf := SmoothedFix{
		Time: f.Time, Lat: f.Lat, Lon: f.Lon,
		Altitude: f.Altitude, Accuracy: f.Accuracy,
		Heading: f.Heading, Speed: f.Speed,
	}
	feat := sf.ToFeature(name)
	delete(feat.Properties, "Status")
	return feat
}
