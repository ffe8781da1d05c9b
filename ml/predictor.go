package ml

import "fmt"

// Estimate is the outcome of one prediction. Premium is not clamped and can be
// negative for unusual inputs.
type Estimate struct {
	Premium  float64       `json:"premium"`
	Features FeatureVector `json:"features"`
}

type Coefficient struct {
	Feature string  `json:"feature"`
	Label   string  `json:"label"`
	Weight  float64 `json:"weight"`
}

// Predictor applies a fitted scaler and linear model to encoded records.
// It is immutable after construction and safe for concurrent use.
type Predictor struct {
	schema Schema
	scaler *StandardScaler
	model  *LinearModel
}

// NewPredictor binds artifacts to the schema the service is configured for.
func NewPredictor(schema Schema, artifacts *Artifacts) (*Predictor, error) {
	dim := schema.Dim()
	if dim == 0 {
		return nil, fmt.Errorf("invalid schema %v", schema)
	}
	if artifacts == nil || artifacts.Model == nil || artifacts.Scaler == nil {
		return nil, fmt.Errorf("%w: artifacts not loaded", ErrArtifactUnavailable)
	}
	if got := artifacts.Scaler.Dim(); got != dim {
		return nil, fmt.Errorf("scaler: %w", &DimensionError{Expected: dim, Got: got})
	}
	if got := artifacts.Model.Dim(); got != dim {
		return nil, fmt.Errorf("model: %w", &DimensionError{Expected: dim, Got: got})
	}
	if artifacts.Schema != 0 && artifacts.Schema != schema {
		return nil, fmt.Errorf("%w: artifacts were fit on schema %v, service configured for %v",
			ErrArtifactUnavailable, artifacts.Schema, schema)
	}
	if err := checkFeatureNames(artifacts.Model.FeatureNames, schema); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactUnavailable, err)
	}
	return &Predictor{schema: schema, scaler: artifacts.Scaler, model: artifacts.Model}, nil
}

func (p *Predictor) Schema() Schema { return p.schema }

// Predict scales vec and applies the linear model. A vector of the wrong length
// fails with ErrDimensionMismatch.
func (p *Predictor) Predict(vec FeatureVector) (float64, error) {
	scaled, err := p.scaler.Transform(vec)
	if err != nil {
		return 0, err
	}
	return p.model.Predict(scaled)
}

func (p *Predictor) Estimate(rec InputRecord) (Estimate, error) {
	if err := rec.Validate(); err != nil {
		return Estimate{}, err
	}
	vec, err := Encode(p.schema, rec)
	if err != nil {
		return Estimate{}, err
	}
	premium, err := p.Predict(vec)
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{Premium: premium, Features: vec}, nil
}

// Coefficients labels each model weight with its schema column, in column order.
func (p *Predictor) Coefficients() []Coefficient {
	names := p.schema.FeatureNames()
	labels := p.schema.FeatureLabels()
	out := make([]Coefficient, len(p.model.Coef))
	for i, w := range p.model.Coef {
		out[i] = Coefficient{Feature: names[i], Label: labels[i], Weight: w}
	}
	return out
}

func (p *Predictor) Intercept() float64 { return p.model.Intercept }
