package ml

import "fmt"

type FeatureVector []float64

// Encode maps a record onto the schema's column order. It does not range check
// the numeric fields; callers validate the record first.
func Encode(schema Schema, rec InputRecord) (FeatureVector, error) {
	var isMale float64
	switch rec.Sex {
	case SexMale:
		isMale = 1
	case SexFemale:
		isMale = 0
	default:
		return nil, fmt.Errorf("sex %v: %w", rec.Sex, ErrUnknownCategory)
	}

	var isSmoker float64
	switch rec.Smoker {
	case SmokerYes:
		isSmoker = 1
	case SmokerNo:
		isSmoker = 0
	default:
		return nil, fmt.Errorf("smoker %v: %w", rec.Smoker, ErrUnknownCategory)
	}

	var nw, se, sw float64
	switch rec.Region {
	case RegionNortheast:
	case RegionNorthwest:
		nw = 1
	case RegionSoutheast:
		se = 1
	case RegionSouthwest:
		sw = 1
	default:
		return nil, fmt.Errorf("region %v: %w", rec.Region, ErrUnknownCategory)
	}

	age := float64(rec.Age)
	vec := FeatureVector{
		isMale,
		isSmoker,
		nw, se, sw,
		age,
		rec.BMI,
		float64(rec.Children),
	}

	switch schema {
	case SchemaBase:
		return vec, nil
	case SchemaInteraction:
		return append(vec, age*isSmoker, rec.BMI*isSmoker), nil
	default:
		return nil, fmt.Errorf("encode: invalid schema %v", schema)
	}
}
