package fix

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/paulmach/orb/geojson"
	"github.com/tidwall/gjson"
)

var ErrUnknownFormat = errors.New("could not decode as geojson feature or fix json or nmea")

// Decoder decodes line-oriented fix input: GeoJSON features (and collections),
// flat RawFix JSON objects, and NMEA sentences.
// NMEA input is stateful, so one Decoder should serve one input stream.
type Decoder struct {
	NMEA *NMEAAssembler
}

func NewDecoder() *Decoder {
	return &Decoder{NMEA: NewNMEAAssembler()}
}

// DecodeLine decodes one line of input. The bool is false when the line
// was understood but did not complete a fix (eg. blank lines, GGA sentences, void RMCs).
func (d *Decoder) DecodeLine(line []byte) (RawFix, bool, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return RawFix{}, false, nil
	}
	if line[0] == '$' || line[0] == '!' {
		return d.NMEA.Feed(string(line))
	}
	if !gjson.ValidBytes(line) {
		return RawFix{}, false, ErrUnknownFormat
	}
	parsed := gjson.ParseBytes(line)
	if !parsed.IsObject() {
		return RawFix{}, false, fmt.Errorf("%w: not an object", ErrUnknownFormat)
	}
	f, err := decodeObject(parsed)
	if err != nil {
		return RawFix{}, false, err
	}
	return f, true, nil
}

// DecodeLine decodes a single line without NMEA sentence state.
func DecodeLine(line []byte) (RawFix, bool, error) {
	return NewDecoder().DecodeLine(line)
}

func decodeObject(parsed gjson.Result) (RawFix, error) {
	switch parsed.Get("type").String() {
	case "Feature":
		f, err := geojson.UnmarshalFeature([]byte(parsed.Raw))
		if err != nil {
			return RawFix{}, fmt.Errorf("decode feature: %w", err)
		}
		return FromFeature(f)
	case "":
		if !parsed.Get("lat").Exists() || !parsed.Get("lon").Exists() {
			return RawFix{}, ErrUnknownFormat
		}
		if !parsed.Get("accuracy").Exists() {
			return RawFix{}, ErrMissingAccuracy
		}
		var f RawFix
		if err := json.Unmarshal([]byte(parsed.Raw), &f); err != nil {
			return RawFix{}, fmt.Errorf("decode fix: %w", err)
		}
		return f, nil
	}
	return RawFix{}, fmt.Errorf("%w: type %q", ErrUnknownFormat, parsed.Get("type").String())
}

// Scan reads r line by line and calls onEach for every decoded fix.
// Besides single objects per line, a line may hold a JSON array of objects
// or a GeoJSON FeatureCollection.
// Undecodable lines abort the scan with an error naming the line number.
func (d *Decoder) Scan(r io.Reader, onEach func(RawFix) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var objects []gjson.Result
		if line[0] == '[' || line[0] == '{' {
			parsed := gjson.ParseBytes(line)
			switch {
			case parsed.IsArray():
				objects = parsed.Array()
			case parsed.Get("type").String() == "FeatureCollection":
				objects = parsed.Get("features").Array()
			}
		}
		if objects == nil {
			f, ok, err := d.DecodeLine(line)
			if err != nil {
				return fmt.Errorf("line %d: %w", n, err)
			}
			if !ok {
				continue
			}
			if err := onEach(f); err != nil {
				return err
			}
			continue
		}
		for _, o := range objects {
			f, err := decodeObject(o)
			if err != nil {
				return fmt.Errorf("line %d: %w", n, err)
			}
			if err := onEach(f); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

// DeviceOf returns the device a line of JSON input names, if any:
// properties.Name for features, or a top-level "device" field.
func DeviceOf(line []byte) string {
	if v := gjson.GetBytes(line, "properties.Name"); v.Exists() {
		return v.String()
	}
	return gjson.GetBytes(line, "device").String()
}
