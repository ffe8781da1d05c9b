package ml

import (
	"fmt"
	"strings"
)

const (
	MinAge      = 18
	MaxAge      = 100
	MinBMI      = 10.0
	MaxBMI      = 60.0
	MinChildren = 0
	MaxChildren = 5
)

type Sex uint8

const (
	_ Sex = iota
	SexMale
	SexFemale
)

func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male":
		return SexMale, nil
	case "female":
		return SexFemale, nil
	default:
		return 0, fmt.Errorf("sex %q: %w", s, ErrUnknownCategory)
	}
}

func (s Sex) String() string {
	switch s {
	case SexMale:
		return "male"
	case SexFemale:
		return "female"
	default:
		return fmt.Sprintf("Sex(%d)", uint8(s))
	}
}

func (s Sex) Valid() bool { return s == SexMale || s == SexFemale }

type Smoker uint8

const (
	_ Smoker = iota
	SmokerYes
	SmokerNo
)

func ParseSmoker(s string) (Smoker, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return SmokerYes, nil
	case "no":
		return SmokerNo, nil
	default:
		return 0, fmt.Errorf("smoker %q: %w", s, ErrUnknownCategory)
	}
}

func (s Smoker) String() string {
	switch s {
	case SmokerYes:
		return "yes"
	case SmokerNo:
		return "no"
	default:
		return fmt.Sprintf("Smoker(%d)", uint8(s))
	}
}

func (s Smoker) Valid() bool { return s == SmokerYes || s == SmokerNo }

// Region is encoded against northeast, which has no indicator column.
type Region uint8

const (
	_ Region = iota
	RegionNortheast
	RegionNorthwest
	RegionSoutheast
	RegionSouthwest
)

var regionNames = map[Region]string{
	RegionNortheast: "northeast",
	RegionNorthwest: "northwest",
	RegionSoutheast: "southeast",
	RegionSouthwest: "southwest",
}

// Regions lists every region in form order.
func Regions() []Region {
	return []Region{RegionNortheast, RegionNorthwest, RegionSoutheast, RegionSouthwest}
}

func ParseRegion(s string) (Region, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for region, name := range regionNames {
		if name == key {
			return region, nil
		}
	}
	return 0, fmt.Errorf("region %q: %w", s, ErrUnknownCategory)
}

func (r Region) String() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Region(%d)", uint8(r))
}

func (r Region) Valid() bool {
	_, ok := regionNames[r]
	return ok
}

// InputRecord is one applicant as entered on the form. It is a comparable value
// so it can key the prediction cache directly.
type InputRecord struct {
	Age      int
	BMI      float64
	Children int
	Sex      Sex
	Smoker   Smoker
	Region   Region
}

// DefaultInputRecord returns the values the predictor form starts with.
func DefaultInputRecord() InputRecord {
	return InputRecord{
		Age:      30,
		BMI:      25.0,
		Children: 0,
		Sex:      SexMale,
		Smoker:   SmokerNo,
		Region:   RegionNortheast,
	}
}

func (r InputRecord) Validate() error {
	if r.Age < MinAge || r.Age > MaxAge {
		return &RangeError{Field: "age", Value: float64(r.Age), Min: MinAge, Max: MaxAge}
	}
	// NaN fails both comparisons, so test the accepted interval instead.
	if !(r.BMI >= MinBMI && r.BMI <= MaxBMI) {
		return &RangeError{Field: "bmi", Value: r.BMI, Min: MinBMI, Max: MaxBMI}
	}
	if r.Children < MinChildren || r.Children > MaxChildren {
		return &RangeError{Field: "children", Value: float64(r.Children), Min: MinChildren, Max: MaxChildren}
	}
	if !r.Sex.Valid() {
		return fmt.Errorf("sex: %w", ErrUnknownCategory)
	}
	if !r.Smoker.Valid() {
		return fmt.Errorf("smoker: %w", ErrUnknownCategory)
	}
	if !r.Region.Valid() {
		return fmt.Errorf("region: %w", ErrUnknownCategory)
	}
	return nil
}
