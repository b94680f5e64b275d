package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotblauer/fixd/common"
	"github.com/rotblauer/fixd/geo/synth"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/types/fix"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
)

func simulated(t *testing.T, scenario string, n int) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := runSimulate(context.Background(), buf, scenario, n, synth.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRunSimulate(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(string(simulated(t, "turn", 12))), "\n")
	if len(lines) != 12 {
		t.Fatalf("want 12 lines, got %d", len(lines))
	}
	if _, ok, err := fix.DecodeLine([]byte(lines[0])); !ok || err != nil {
		t.Errorf("simulated line does not decode: %v", err)
	}
	if err := runSimulate(context.Background(), &bytes.Buffer{}, "fly", 1, synth.DefaultConfig()); err == nil {
		t.Error("expected unknown scenario error")
	}
}

func TestRunSmooth(t *testing.T) {
	in := simulated(t, "walk", 20)
	out := &bytes.Buffer{}
	err := runSmooth(context.Background(), bytes.NewReader(in), out, smoothOptions{Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	var got []fix.SmoothedFix
	dec := json.NewDecoder(out)
	for dec.More() {
		var f fix.SmoothedFix
		if err := dec.Decode(&f); err != nil {
			t.Fatal(err)
		}
		got = append(got, f)
	}
	if len(got) != 20 {
		t.Fatalf("want 20 smoothed fixes, got %d", len(got))
	}
	if got[0].Status != fix.StatusAcquired {
		t.Errorf("first status %s", got[0].Status)
	}
}

func TestRunSmooth_RoutesDedupesSkips(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelError)()
	raws := synth.Stationary(synth.DefaultConfig(), 2)
	feature := func(name string, r fix.RawFix) string {
		b, _ := json.Marshal(r.ToFeature(name))
		return string(b)
	}
	in := strings.Join([]string{
		feature("rye8", raws[0]),
		feature("rye8", raws[0]), // repeat
		"garbage",
		feature("ia", raws[0]),
		feature("rye8", raws[1]),
	}, "\n")

	out := &bytes.Buffer{}
	err := runSmooth(context.Background(), strings.NewReader(in), out, smoothOptions{Format: "geojson"})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	var names []string
	for _, l := range lines {
		names = append(names, gjson.Get(l, "properties.Name").String())
	}
	if strings.Join(names, ",") != "rye8,ia,rye8" {
		t.Errorf("unexpected routing %v", names)
	}
	if gjson.Get(lines[1], "properties.Status").String() != string(fix.StatusAcquired) {
		t.Errorf("second device should acquire on its own: %s", lines[1])
	}
}

func TestRunSmooth_UnknownFormat(t *testing.T) {
	err := runSmooth(context.Background(), strings.NewReader(""), &bytes.Buffer{}, smoothOptions{Format: "xml"})
	if err == nil {
		t.Error("expected error")
	}
}

func TestRunReport(t *testing.T) {
	out := &bytes.Buffer{}
	err := runReport(bytes.NewReader(simulated(t, "stationary", 30)), out, params.DefaultLocationFilterConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"fixes:", "raw:", "smoothed:", "reference:", "stationary"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("report missing %q:\n%s", want, out.String())
		}
	}
	if err := runReport(strings.NewReader(""), out, params.DefaultLocationFilterConfig()); err == nil {
		t.Error("expected error for no fixes")
	}
}

func TestRunSmooth_Clean(t *testing.T) {
	raws := synth.Walk(synth.DefaultConfig(), 3, 1.4, 90)
	raws[1].Speed = fix.Float(500)
	buf := &bytes.Buffer{}
	for _, r := range raws {
		_ = json.NewEncoder(buf).Encode(r)
	}
	out := &bytes.Buffer{}
	err := runSmooth(context.Background(), buf, out, smoothOptions{Format: "json", Clean: params.DefaultCleanConfig()})
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out.String(), "\n"); n != 2 {
		t.Errorf("want the supersonic fix dropped, got %d lines", n)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	defer viper.Reset()
	defer func(prev string) { cfgFile = prev }(cfgFile)
	cfgFile = filepath.Join(t.TempDir(), "absent.yaml")

	t.Setenv("FIXD_FILTER_MOVEMENT_THRESHOLD", "4")
	t.Setenv("FIXD_SESSION_TTL", "90s")
	t.Setenv("FIXD_SESSION_MAX_DEVICES", "12")
	t.Setenv("FIXD_INFLUX_BUCKET", "fixes")
	t.Setenv("FIXD_MQTT_PASSWORD", "hunter2")
	initConfig()

	sessions, err := sessionConfig()
	if err != nil {
		t.Fatal(err)
	}
	if sessions.Filter.MovementThreshold != 4 {
		t.Errorf("movement threshold %v", sessions.Filter.MovementThreshold)
	}
	if sessions.SessionTTL != 90*time.Second || sessions.MaxDevices != 12 {
		t.Errorf("session config %+v", sessions)
	}
	influx, err := influxConfig()
	if err != nil {
		t.Fatal(err)
	}
	if influx.Bucket != "fixes" {
		t.Errorf("influx bucket %q", influx.Bucket)
	}
	mqtt := params.DefaultMQTTDaemonConfig()
	if err := viper.UnmarshalKey("mqtt", mqtt); err != nil {
		t.Fatal(err)
	}
	if mqtt.Password != "hunter2" {
		t.Errorf("mqtt password %q", mqtt.Password)
	}

	t.Setenv("FIXD_SESSION_DEDUPE_CACHE_SIZE", "0")
	if _, err := sessionConfig(); !errors.Is(err, params.ErrInvalidConfig) {
		t.Errorf("want ErrInvalidConfig for an empty dedupe cache, got %v", err)
	}
}
