package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BoxStats summarizes one group for a box plot.
type BoxStats struct {
	Group  string  `json:"group"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

type Histogram struct {
	Field string `json:"field"`
	Bins  []Bin  `json:"bins"`
	Total int    `json:"total"`
}

// MaxCount is the tallest bin, used to scale bar heights.
func (h Histogram) MaxCount() int {
	max := 0
	for _, b := range h.Bins {
		if b.Count > max {
			max = b.Count
		}
	}
	return max
}

func NewBoxStats(group string, values []float64) BoxStats {
	stats := BoxStats{Group: group, Count: len(values)}
	if len(values) == 0 {
		return stats
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	stats.Min = sorted[0]
	stats.Max = sorted[len(sorted)-1]
	stats.Q1 = Quantile(sorted, 0.25)
	stats.Median = Quantile(sorted, 0.5)
	stats.Q3 = Quantile(sorted, 0.75)
	stats.Mean = stat.Mean(sorted, nil)
	return stats
}

// Quantile interpolates linearly between the closest ranks of an ascending
// slice (position q*(n-1)), matching the usual default of numeric libraries.
// gonum's LinInterp places the quantile at q*n, so q is shifted onto that scale.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	p := (q*float64(n-1) + 1) / float64(n)
	return stat.Quantile(math.Min(p, 1), stat.LinInterp, sorted, nil)
}

// NewHistogram splits [min, max] into equal-width bins. The last bin includes max.
// NaN and infinite values are left out of the bins and of Total.
func NewHistogram(field string, values []float64, bins int) Histogram {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}

	h := Histogram{Field: field, Total: len(finite)}
	if len(finite) == 0 || bins <= 0 {
		return h
	}
	min, max := floats.Min(finite), floats.Max(finite)
	if min == max {
		h.Bins = []Bin{{Lower: min, Upper: max, Count: len(finite)}}
		return h
	}

	width := (max - min) / float64(bins)
	h.Bins = make([]Bin, bins)
	for i := range h.Bins {
		h.Bins[i].Lower = min + float64(i)*width
		h.Bins[i].Upper = min + float64(i+1)*width
	}
	h.Bins[bins-1].Upper = max

	for _, v := range finite {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		h.Bins[idx].Count++
	}
	return h
}
