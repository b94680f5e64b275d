package mqttd

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/fixd/conceptual"
	"github.com/rotblauer/fixd/events"
	"github.com/rotblauer/fixd/geo/synth"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/session"
	"github.com/rotblauer/fixd/types/fix"
)

func newTestBridge() *Bridge {
	registry := session.NewRegistry(nil)
	registry.Feed = &event.FeedOf[events.DeviceFix]{}
	return NewBridge(params.DefaultMQTTDaemonConfig(), registry)
}

func payload(t *testing.T, raws ...fix.RawFix) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	for _, r := range raws {
		if err := json.NewEncoder(buf).Encode(r); err != nil {
			t.Fatal(err)
		}
	}
	return buf.Bytes()
}

func TestParseTopic(t *testing.T) {
	cases := []struct {
		topic  string
		kind   string
		device conceptual.DeviceID
		ok     bool
	}{
		{"fixd/raw/rye8", "raw", "rye8", true},
		{"fixd/reset/Rye8", "reset", "rye8", true},
		{"fixd/smoothed/ia", "smoothed", "ia", true},
		{"other/raw/rye8", "", "", false},
		{"fixd/raw", "", "", false},
		{"fixd/raw/a/b", "", "", false},
		{"fixd/raw/--", "", "", false},
	}
	for _, c := range cases {
		kind, device, ok := ParseTopic("fixd", c.topic)
		if kind != c.kind || device != c.device || ok != c.ok {
			t.Errorf("ParseTopic(%q) = %q, %q, %v", c.topic, kind, device, ok)
		}
	}
	if got := SmoothedTopic("fixd", "rye8"); got != "fixd/smoothed/rye8" {
		t.Errorf("SmoothedTopic = %q", got)
	}
	if got := RawTopicFilter("fixd"); got != "fixd/raw/+" {
		t.Errorf("RawTopicFilter = %q", got)
	}
}

func TestBridge_handleRaw(t *testing.T) {
	b := newTestBridge()
	raws := synth.Walk(synth.DefaultConfig(), 4, 1.4, 30)

	pubs, err := b.handle("fixd/raw/rye8", payload(t, raws...))
	if err != nil {
		t.Fatal(err)
	}
	if len(pubs) != len(raws) {
		t.Fatalf("want %d publications, got %d", len(raws), len(pubs))
	}
	for i, p := range pubs {
		if p.Topic != "fixd/smoothed/rye8" {
			t.Errorf("topic %q", p.Topic)
		}
		var out fix.SmoothedFix
		if err := json.Unmarshal(p.Payload, &out); err != nil {
			t.Fatal(err)
		}
		if !out.Time.Equal(raws[i].Time) {
			t.Errorf("publication %d time %v", i, out.Time)
		}
	}
	if _, ok := b.registry.Last("rye8"); !ok {
		t.Error("no session for the device")
	}
}

func TestBridge_handleReset(t *testing.T) {
	b := newTestBridge()
	raws := synth.Walk(synth.DefaultConfig(), 3, 1.4, 30)
	if _, err := b.handle("fixd/raw/ia", payload(t, raws[:2]...)); err != nil {
		t.Fatal(err)
	}
	pubs, err := b.handle("fixd/reset/ia", nil)
	if err != nil || len(pubs) != 0 {
		t.Fatalf("reset: %v, %d publications", err, len(pubs))
	}
	pubs, err = b.handle("fixd/raw/ia", payload(t, raws[2]))
	if err != nil {
		t.Fatal(err)
	}
	var out fix.SmoothedFix
	_ = json.Unmarshal(pubs[0].Payload, &out)
	if out.Status != fix.StatusAcquired {
		t.Errorf("status after reset = %s", out.Status)
	}
}

func TestBridge_handleNMEAPerDevice(t *testing.T) {
	b := newTestBridge()
	gga := "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	rmc := "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"

	// GGA alone completes nothing.
	pubs, err := b.handle("fixd/raw/boat", []byte(gga))
	if err != nil || len(pubs) != 0 {
		t.Fatalf("gga: %v, %d publications", err, len(pubs))
	}
	pubs, err = b.handle("fixd/raw/boat", []byte(rmc))
	if err != nil || len(pubs) != 1 {
		t.Fatalf("rmc: %v, %d publications", err, len(pubs))
	}
	var out fix.SmoothedFix
	_ = json.Unmarshal(pubs[0].Payload, &out)
	if out.Altitude == nil || *out.Altitude != 545.4 {
		t.Errorf("altitude from the device's GGA not carried: %v", out.Altitude)
	}

	// Another device's sentences are assembled separately.
	pubs, _ = b.handle("fixd/raw/other", []byte(rmc))
	_ = json.Unmarshal(pubs[0].Payload, &out)
	if out.Altitude != nil {
		t.Error("altitude leaked across devices")
	}
}

func TestBridge_handleNMEAAfterExpiry(t *testing.T) {
	cfg := params.DefaultSessionConfig()
	cfg.SessionTTL = 30 * time.Millisecond
	registry := session.NewRegistry(cfg)
	registry.Feed = &event.FeedOf[events.DeviceFix]{}
	b := NewBridge(params.DefaultMQTTDaemonConfig(), registry)

	gga := "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	rmc := "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	if _, err := b.handle("fixd/raw/boat", []byte(gga)); err != nil {
		t.Fatal(err)
	}
	time.Sleep(60 * time.Millisecond)

	// The device went quiet past the session TTL; its half-assembled GGA is gone.
	pubs, err := b.handle("fixd/raw/boat", []byte(rmc))
	if err != nil || len(pubs) != 1 {
		t.Fatalf("rmc: %v, %d publications", err, len(pubs))
	}
	var out fix.SmoothedFix
	_ = json.Unmarshal(pubs[0].Payload, &out)
	if out.Altitude != nil {
		t.Errorf("stale altitude carried across sessions: %v", *out.Altitude)
	}
	if out.Status != fix.StatusAcquired {
		t.Errorf("status %v, want a fresh acquisition", out.Status)
	}
}

func TestBridge_handleErrors(t *testing.T) {
	b := newTestBridge()
	if _, err := b.handle("elsewhere/raw/ia", nil); err == nil {
		t.Error("expected error for foreign topic")
	}
	if _, err := b.handle("fixd/smoothed/ia", nil); err == nil {
		t.Error("expected error for the output topic")
	}
	if _, err := b.handle("fixd/raw/ia", []byte("not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestBridge_Dedupe(t *testing.T) {
	b := newTestBridge()
	b.Dedupe = session.NewDedupeFunc(16)
	raws := synth.Stationary(synth.DefaultConfig(), 2)
	pubs, _ := b.handle("fixd/raw/ia", payload(t, raws...))
	if len(pubs) != 2 {
		t.Fatalf("want 2, got %d", len(pubs))
	}
	pubs, _ = b.handle("fixd/raw/ia", payload(t, raws...))
	if len(pubs) != 0 {
		t.Errorf("redelivered fixes published %d times", len(pubs))
	}
}
