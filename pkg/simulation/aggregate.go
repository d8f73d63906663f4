package simulation

import (
	"math"
)

// Statistics summarizes a sorted sample set.
type Statistics struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Percentiles are nearest-rank values at index floor(N×q).
type Percentiles struct {
	P10 float64 `json:"p10"`
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// Bin is one equal-width histogram bucket. Probability is a percentage.
type Bin struct {
	Lower       float64 `json:"lower"`
	Upper       float64 `json:"upper"`
	Count       int     `json:"count"`
	Probability float64 `json:"probability"`
}

// summarize computes population statistics. sorted must be ascending and
// non-empty.
func summarize(sorted []float64) Statistics {
	n := float64(len(sorted))

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / n

	var sq float64
	for _, v := range sorted {
		d := v - mean
		sq += d * d
	}

	return Statistics{
		Mean:   mean,
		Median: sorted[len(sorted)/2],
		StdDev: math.Sqrt(sq / n),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

// percentile returns sorted[floor(N×q)], clamped to the last index.
func percentile(sorted []float64, q float64) float64 {
	idx := int(math.Floor(float64(len(sorted)) * q))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func percentiles(sorted []float64) Percentiles {
	return Percentiles{
		P10: percentile(sorted, 0.10),
		P50: percentile(sorted, 0.50),
		P90: percentile(sorted, 0.90),
		P95: percentile(sorted, 0.95),
		P99: percentile(sorted, 0.99),
	}
}

// histogram buckets sorted into bins equal-width bins over [min, max]. The
// last bin is closed on the right; when min == max every sample lands in the
// first bin.
func histogram(sorted []float64, bins int) []Bin {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	width := (hi - lo) / float64(bins)

	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, v := range sorted {
		idx := 0
		if width > 0 {
			idx = int((v - lo) / width)
			if idx >= bins {
				idx = bins - 1
			}
		}
		out[idx].Count++
	}

	n := float64(len(sorted))
	for i := range out {
		out[i].Probability = float64(out[i].Count) / n * 100
	}
	return out
}
