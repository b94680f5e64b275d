package stream

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/rotblauer/fixd/conceptual"
	"github.com/rotblauer/fixd/types/fix"
)

func divideByTwo(n int) int {
	return n / 2
}

func isNonZero(n int) bool {
	return n != 0
}

func TestStream1(t *testing.T) {
	data := []int{0, 2, 4, 6, 8}
	ctx := context.Background()
	myStream := Slice(ctx, data)
	result := Collect(ctx,
		Transform(ctx, divideByTwo,
			Filter(ctx, isNonZero,
				myStream)))

	if !slices.Equal([]int{1, 2, 3, 4}, result) {
		t.Errorf("Expected [1, 2, 3, 4], got %v", result)
	}
}

func TestCollectCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	never := make(chan int)
	done := make(chan []int)
	go func() { done <- Collect(ctx, never) }()
	cancel()
	select {
	case got := <-done:
		if len(got) != 0 {
			t.Errorf("got %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Collect ignored cancellation")
	}
}

func TestNDJSON(t *testing.T) {
	input := `{"lat":1,"lon":2,"accuracy":3}
{"lat":"oops","lon":2,"accuracy":3}
{"lat":4,"lon":5,"accuracy":6}
`
	var errs []error
	got := Collect(context.Background(),
		NDJSON[fix.RawFix](context.Background(), strings.NewReader(input), func(err error) {
			errs = append(errs, err)
		}))
	if len(got) != 2 || got[1].Lat != 4 {
		t.Errorf("got %+v", got)
	}
	if len(errs) != 1 {
		t.Errorf("want 1 error, got %v", errs)
	}

	got = Collect(context.Background(),
		NDJSON[fix.RawFix](context.Background(), strings.NewReader(`{"lat":1,"lon":2,"accuracy":3} {nope`), nil))
	if len(got) != 1 {
		t.Errorf("syntax error should end the stream after 1, got %d", len(got))
	}
}

func TestWriteNDJSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteNDJSON(&buf, Slice(context.Background(), []fix.SmoothedFix{
		{Lat: 1, Lon: 2, Accuracy: 15, Status: fix.StatusAcquired},
		{Lat: 1, Lon: 2, Accuracy: 15, Status: fix.StatusWarmup},
	}))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], `"status":"warmup"`) {
		t.Errorf("got %q", buf.String())
	}
}

func TestScanLines(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"Feature","properties":{"Name":"Rye8"}}`,
		``,
		`{"device":"ia","lat":1}`,
		`$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47`,
		`{"lat":1}`,
	}, "\n")
	lines, errs := ScanLines(context.Background(), strings.NewReader(input), "default")
	var devices []conceptual.DeviceID
	for l := range lines {
		devices = append(devices, l.Device)
	}
	if err := <-errs; err != nil {
		t.Fatal(err)
	}
	want := []conceptual.DeviceID{"rye8", "ia", "default", "default"}
	if !slices.Equal(devices, want) {
		t.Errorf("got %v, want %v", devices, want)
	}
}

func TestMeter(t *testing.T) {
	m := NewMeter(0)
	defer m.Stop()
	m.MarkRead("rye", time.Now(), []byte("abc"))
	m.MarkRead("ia", time.Now(), []byte("de"))
	m.MarkEmitted(fix.SmoothedFix{Status: fix.StatusMoving})
	m.MarkEmitted(fix.SmoothedFix{Status: fix.StatusMoving})
	m.MarkEmitted(fix.SmoothedFix{Status: fix.StatusGated})
	if m.Read() != 2 {
		t.Errorf("read: %d", m.Read())
	}
	if m.StatusCount(fix.StatusMoving) != 2 || m.StatusCount(fix.StatusGated) != 1 {
		t.Errorf("status counts: moving=%d gated=%d", m.StatusCount(fix.StatusMoving), m.StatusCount(fix.StatusGated))
	}
	m.Log()
}
