// Package heading smooths compass bearings across the 360/0 discontinuity.
package heading

// Unwrap returns a copy of headings in which every element has been shifted by
// a multiple of 360 toward its (already shifted) predecessor, so that consecutive
// values never differ by more than 180 degrees and can be averaged arithmetically.
//
//	Unwrap([]float64{359, 1}) == []float64{359, 361}
func Unwrap(headings []float64) []float64 {
	out := make([]float64, len(headings))
	for i, h := range headings {
		if i > 0 {
			prev := out[i-1]
			for h-prev > 180 {
				h -= 360
			}
			for h-prev < -180 {
				h += 360
			}
		}
		out[i] = h
	}
	return out
}

// weightedMean averages the unwrapped headings with weights growing linearly
// with recency: w_i = 1 + i*f.
func weightedMean(unwrapped []float64, f float64) float64 {
	var sum, weights float64
	for i, h := range unwrapped {
		w := 1 + float64(i)*f
		sum += h * w
		weights += w
	}
	return sum / weights
}
