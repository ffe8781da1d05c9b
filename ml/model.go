package ml

import "gonum.org/v1/gonum/floats"

// StandardScaler holds per-feature mean and scale fit offline.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func (s *StandardScaler) Dim() int { return len(s.Mean) }

// Transform returns (x - mean) / scale for every column. The input is not modified.
func (s *StandardScaler) Transform(vec FeatureVector) (FeatureVector, error) {
	if len(vec) != len(s.Mean) {
		return nil, &DimensionError{Expected: len(s.Mean), Got: len(vec)}
	}
	out := make(FeatureVector, len(vec))
	floats.SubTo(out, vec, s.Mean)
	floats.Div(out, s.Scale)
	return out, nil
}

// LinearModel is an ordinary least squares fit: dot(coef, x) + intercept.
type LinearModel struct {
	FeatureNames []string
	Coef         []float64
	Intercept    float64
}

func (m *LinearModel) Dim() int { return len(m.Coef) }

func (m *LinearModel) Predict(vec FeatureVector) (float64, error) {
	if len(vec) != len(m.Coef) {
		return 0, &DimensionError{Expected: len(m.Coef), Got: len(vec)}
	}
	return floats.Dot(m.Coef, vec) + m.Intercept, nil
}
