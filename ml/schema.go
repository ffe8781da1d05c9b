package ml

import (
	"fmt"
	"strings"
)

// Schema fixes the length and column order of a FeatureVector. Model and scaler
// artifacts are only valid for the schema they were fit on.
type Schema uint8

const (
	_ Schema = iota
	// SchemaBase has 8 columns: sex, smoker, three region indicators, age, bmi, children.
	SchemaBase
	// SchemaInteraction is SchemaBase plus age*smoker and bmi*smoker.
	SchemaInteraction
)

type column struct {
	key   string
	label string
}

var baseColumns = []column{
	{"is_male", "Is Male"},
	{"is_smoker", "Smoker"},
	{"region_northwest", "NW Region"},
	{"region_southeast", "SE Region"},
	{"region_southwest", "SW Region"},
	{"age", "Age"},
	{"bmi", "BMI"},
	{"children", "Children"},
}

var interactionColumns = []column{
	{"age_smoker", "Age * Smoker"},
	{"bmi_smoker", "BMI * Smoker"},
}

func ParseSchema(s string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "base":
		return SchemaBase, nil
	case "interaction":
		return SchemaInteraction, nil
	default:
		return 0, fmt.Errorf("unknown feature schema %q", s)
	}
}

func (s Schema) String() string {
	switch s {
	case SchemaBase:
		return "base"
	case SchemaInteraction:
		return "interaction"
	default:
		return fmt.Sprintf("Schema(%d)", uint8(s))
	}
}

func (s Schema) columns() []column {
	switch s {
	case SchemaBase:
		return baseColumns
	case SchemaInteraction:
		cols := make([]column, 0, len(baseColumns)+len(interactionColumns))
		cols = append(cols, baseColumns...)
		return append(cols, interactionColumns...)
	default:
		return nil
	}
}

// Dim is the FeatureVector length for the schema, 0 for an invalid schema.
func (s Schema) Dim() int {
	return len(s.columns())
}

// FeatureNames returns the machine keys of each column.
func (s Schema) FeatureNames() []string {
	cols := s.columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.key
	}
	return names
}

// FeatureLabels returns the display label of each column, index-for-index
// with FeatureNames.
func (s Schema) FeatureLabels() []string {
	cols := s.columns()
	labels := make([]string, len(cols))
	for i, c := range cols {
		labels[i] = c.label
	}
	return labels
}
