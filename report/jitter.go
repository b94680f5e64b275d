// Package report summarizes how much a smoothed track jitters
// compared with the raw fixes it was derived from.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/golang/geo/s2"
	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"github.com/rotblauer/fixd/common"
	"github.com/rotblauer/fixd/geo"
	"github.com/rotblauer/fixd/types/fix"
)

// CellLevel is the S2 level used to count the distinct places a track visits.
// Level 21 cells are roughly 4 m across.
const CellLevel = 21

type Steps struct {
	Mean   float64
	Median float64
	P95    float64
	Max    float64
	// Path is the sum of all steps.
	Path float64
	// Cells counts the distinct level CellLevel cells visited.
	Cells int
}

type Summary struct {
	Count    int
	Raw      Steps
	Smoothed Steps
	// Reference is empty when no reference track was given.
	Reference Steps

	// MeanDeviation is the mean distance in meters between each smoothed point
	// and the reference point at the same index. Zero without a reference.
	MeanDeviation float64

	Statuses map[fix.Status]int
}

func statsMust(fn func(stats.Float64Data) (float64, error), data stats.Float64Data) float64 {
	out, err := fn(data)
	if err != nil {
		return 0
	}
	return out
}

func p95(data stats.Float64Data) (float64, error) {
	return stats.Percentile(data, 95)
}

func summarizeSteps(points []orb.Point) Steps {
	var s Steps
	if len(points) == 0 {
		return s
	}
	cells := map[s2.CellID]struct{}{}
	steps := make([]float64, 0, len(points))
	for i, pt := range points {
		leaf := s2.CellIDFromLatLng(s2.LatLngFromDegrees(pt.Lat(), pt.Lon()))
		cells[leaf.Parent(CellLevel)] = struct{}{}
		if i == 0 {
			continue
		}
		d := geo.Distance(points[i-1], pt)
		steps = append(steps, d)
		s.Path += d
	}
	s.Cells = len(cells)
	if len(steps) == 0 {
		return s
	}
	data := stats.Float64Data(steps)
	s.Mean = statsMust(stats.Mean, data)
	s.Median = statsMust(stats.Median, data)
	s.P95 = statsMust(p95, data)
	s.Max = statsMust(stats.Max, data)
	return s
}

// Summarize compares raw fixes with the smoothed fixes emitted for them.
// ref is an optional reference track of the same length as smoothed.
func Summarize(raw []fix.RawFix, smoothed []fix.SmoothedFix, ref []orb.Point) *Summary {
	rawPts := make([]orb.Point, 0, len(raw))
	for _, r := range raw {
		rawPts = append(rawPts, r.Point())
	}
	out := &Summary{
		Count:    len(smoothed),
		Raw:      summarizeSteps(rawPts),
		Statuses: map[fix.Status]int{},
	}
	smoothPts := make([]orb.Point, 0, len(smoothed))
	for _, s := range smoothed {
		out.Statuses[s.Status]++
		// Invalid emissions carry no position.
		if s.Status == fix.StatusInvalid && s.IsZero() {
			continue
		}
		smoothPts = append(smoothPts, s.Point())
	}
	out.Smoothed = summarizeSteps(smoothPts)

	if len(ref) > 0 {
		out.Reference = summarizeSteps(ref)
		n := len(ref)
		if len(smoothed) < n {
			n = len(smoothed)
		}
		var sum float64
		var m int
		for i := 0; i < n; i++ {
			if smoothed[i].Status == fix.StatusInvalid && smoothed[i].IsZero() {
				continue
			}
			sum += geo.Distance(smoothed[i].Point(), ref[i])
			m++
		}
		if m > 0 {
			out.MeanDeviation = sum / float64(m)
		}
	}
	return out
}

func (s Steps) String() string {
	return fmt.Sprintf("path=%sm cells=%s step mean=%v median=%v p95=%v max=%v",
		humanize.Commaf(common.DecimalToFixed(s.Path, 1)),
		humanize.Comma(int64(s.Cells)),
		common.DecimalToFixed(s.Mean, 2),
		common.DecimalToFixed(s.Median, 2),
		common.DecimalToFixed(s.P95, 2),
		common.DecimalToFixed(s.Max, 2),
	)
}

func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fixes:     %s\n", humanize.Comma(int64(s.Count)))
	fmt.Fprintf(&b, "raw:       %s\n", s.Raw)
	fmt.Fprintf(&b, "smoothed:  %s\n", s.Smoothed)
	if s.Reference.Path > 0 || s.Reference.Cells > 0 {
		fmt.Fprintf(&b, "reference: %s\n", s.Reference)
		fmt.Fprintf(&b, "deviation: %vm\n", common.DecimalToFixed(s.MeanDeviation, 2))
	}
	statuses := make([]string, 0, len(s.Statuses))
	for st := range s.Statuses {
		statuses = append(statuses, string(st))
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		fmt.Fprintf(&b, "  %-11s %s\n", st, humanize.Comma(int64(s.Statuses[fix.Status(st)])))
	}
	return b.String()
}
