package report

import (
	"strings"
	"testing"

	"github.com/rotblauer/fixd/geo/locfilter"
	"github.com/rotblauer/fixd/geo/refkalman"
	"github.com/rotblauer/fixd/geo/synth"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/types/fix"
)

func smooth(t *testing.T, raws []fix.RawFix) []fix.SmoothedFix {
	t.Helper()
	f, err := locfilter.New(params.DefaultLocationFilterConfig())
	if err != nil {
		t.Fatal(err)
	}
	out := make([]fix.SmoothedFix, 0, len(raws))
	for _, r := range raws {
		out = append(out, f.Update(r))
	}
	return out
}

func TestSummarize_StationaryJitterReduced(t *testing.T) {
	raws := synth.Stationary(synth.DefaultConfig(), 60)
	s := Summarize(raws, smooth(t, raws), nil)

	if s.Count != 60 {
		t.Errorf("count = %d", s.Count)
	}
	if s.Smoothed.Path >= s.Raw.Path {
		t.Errorf("smoothed path %.1f should be shorter than raw %.1f", s.Smoothed.Path, s.Raw.Path)
	}
	if s.Smoothed.Cells > s.Raw.Cells {
		t.Errorf("smoothed visited %d cells, raw %d", s.Smoothed.Cells, s.Raw.Cells)
	}
	if s.Statuses[fix.StatusStationary] == 0 {
		t.Errorf("expected stationary emissions, got %v", s.Statuses)
	}
	if s.MeanDeviation != 0 || s.Reference.Cells != 0 {
		t.Error("no reference was given")
	}
}

func TestSummarize_Reference(t *testing.T) {
	raws := synth.Walk(synth.DefaultConfig(), 40, 1.4, 90)
	ref := refkalman.Track(raws)
	s := Summarize(raws, smooth(t, raws), ref)
	if s.Reference.Cells == 0 {
		t.Fatal("reference summary is empty")
	}
	if s.MeanDeviation <= 0 || s.MeanDeviation > 20 {
		t.Errorf("unexpected deviation %.2f", s.MeanDeviation)
	}
	out := s.String()
	for _, want := range []string{"fixes:", "reference:", "deviation:", string(fix.StatusMoving)} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, nil, nil)
	if s.Count != 0 || s.Raw.Path != 0 || s.Smoothed.Cells != 0 {
		t.Errorf("unexpected summary %+v", s)
	}
	_ = s.String()
}

func TestSummarize_SkipsInvalid(t *testing.T) {
	smoothed := []fix.SmoothedFix{{Status: fix.StatusInvalid}, {Status: fix.StatusInvalid}}
	s := Summarize(nil, smoothed, nil)
	if s.Smoothed.Cells != 0 {
		t.Errorf("invalid emissions counted as places: %d", s.Smoothed.Cells)
	}
	if s.Statuses[fix.StatusInvalid] != 2 {
		t.Errorf("statuses = %v", s.Statuses)
	}
}
