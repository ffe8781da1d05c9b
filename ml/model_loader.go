package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
)

const (
	ArtifactFormatVersion = 1

	kindLinearRegression = "linear_regression"
	kindStandardScaler   = "standard_scaler"
)

// Artifacts is the model/scaler pair produced by the offline training step.
type Artifacts struct {
	// Schema is the feature layout both files declare.
	Schema Schema
	Model  *LinearModel
	Scaler *StandardScaler
}

type modelFile struct {
	FormatVersion int       `json:"format_version"`
	Kind          string    `json:"kind"`
	Schema        string    `json:"schema"`
	FeatureNames  []string  `json:"feature_names"`
	Coef          []float64 `json:"coef"`
	Intercept     float64   `json:"intercept"`
}

type scalerFile struct {
	FormatVersion int       `json:"format_version"`
	Kind          string    `json:"kind"`
	Schema        string    `json:"schema"`
	Mean          []float64 `json:"mean"`
	Scale         []float64 `json:"scale"`
}

// LoadArtifacts reads both artifact files. Every failure wraps ErrArtifactUnavailable.
func LoadArtifacts(modelPath, scalerPath string) (*Artifacts, error) {
	var mf modelFile
	if err := readArtifact(modelPath, &mf); err != nil {
		return nil, err
	}
	var sf scalerFile
	if err := readArtifact(scalerPath, &sf); err != nil {
		return nil, err
	}

	model, modelSchema, err := mf.decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactUnavailable, modelPath, err)
	}
	scaler, scalerSchema, err := sf.decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactUnavailable, scalerPath, err)
	}
	if modelSchema != scalerSchema {
		return nil, fmt.Errorf("%w: model declares schema %v but scaler declares %v",
			ErrArtifactUnavailable, modelSchema, scalerSchema)
	}
	if err := checkFeatureNames(model.FeatureNames, modelSchema); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactUnavailable, modelPath, err)
	}

	return &Artifacts{Schema: modelSchema, Model: model, Scaler: scaler}, nil
}

// checkFeatureNames requires the model columns in the encoder order of schema.
func checkFeatureNames(names []string, schema Schema) error {
	want := schema.FeatureNames()
	if slices.Equal(names, want) {
		return nil
	}
	if len(names) != len(want) {
		return fmt.Errorf("%d feature names, schema %v has %d", len(names), schema, len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			return fmt.Errorf("feature %d is %q, schema %v expects %q", i, names[i], schema, want[i])
		}
	}
	return nil
}

func readArtifact(path string, v interface{}) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArtifactUnavailable, err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArtifactUnavailable, path, err)
	}
	return nil
}

func checkHeader(version int, kind, wantKind, schema string) (Schema, error) {
	if version != ArtifactFormatVersion {
		return 0, fmt.Errorf("unsupported format version %d", version)
	}
	if kind != wantKind {
		return 0, fmt.Errorf("expected kind %q, got %q", wantKind, kind)
	}
	return ParseSchema(schema)
}

func (f *modelFile) decode() (*LinearModel, Schema, error) {
	schema, err := checkHeader(f.FormatVersion, f.Kind, kindLinearRegression, f.Schema)
	if err != nil {
		return nil, 0, err
	}
	if len(f.Coef) == 0 {
		return nil, 0, errors.New("no coefficients")
	}
	if len(f.FeatureNames) != len(f.Coef) {
		return nil, 0, fmt.Errorf("%d feature names for %d coefficients", len(f.FeatureNames), len(f.Coef))
	}
	for i, c := range f.Coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, 0, fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	return &LinearModel{
		FeatureNames: append([]string(nil), f.FeatureNames...),
		Coef:         append([]float64(nil), f.Coef...),
		Intercept:    f.Intercept,
	}, schema, nil
}

func (f *scalerFile) decode() (*StandardScaler, Schema, error) {
	schema, err := checkHeader(f.FormatVersion, f.Kind, kindStandardScaler, f.Schema)
	if err != nil {
		return nil, 0, err
	}
	if len(f.Mean) == 0 {
		return nil, 0, errors.New("empty mean")
	}
	if len(f.Mean) != len(f.Scale) {
		return nil, 0, fmt.Errorf("%d means for %d scales", len(f.Mean), len(f.Scale))
	}
	for i, s := range f.Scale {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, 0, fmt.Errorf("scale %d is %v", i, s)
		}
	}
	return &StandardScaler{
		Mean:  append([]float64(nil), f.Mean...),
		Scale: append([]float64(nil), f.Scale...),
	}, schema, nil
}
