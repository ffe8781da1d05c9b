package report

import (
	"sort"

	"insurequote/ml"
)

type Importance struct {
	Feature string  `json:"feature"`
	Label   string  `json:"label"`
	Weight  float64 `json:"weight"`
}

// ImportanceFromCoefficients keeps each weight with its label and sorts by
// weight, largest first.
func ImportanceFromCoefficients(coefs []ml.Coefficient) []Importance {
	out := make([]Importance, len(coefs))
	for i, c := range coefs {
		out[i] = Importance{Feature: c.Feature, Label: c.Label, Weight: c.Weight}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

// MaxAbsWeight is used to scale the importance bars.
func MaxAbsWeight(items []Importance) float64 {
	max := 0.0
	for _, it := range items {
		w := it.Weight
		if w < 0 {
			w = -w
		}
		if w > max {
			max = w
		}
	}
	return max
}
