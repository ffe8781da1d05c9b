// Package dataset loads the insurance CSV and keeps it queryable for the dashboard.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"insurequote/ml"
)

var ErrDatasetUnavailable = errors.New("dataset unavailable")

// Row is one policy holder from the dataset.
type Row struct {
	Age      int     `json:"age"`
	Sex      string  `json:"sex"`
	BMI      float64 `json:"bmi"`
	Children int     `json:"children"`
	Smoker   string  `json:"smoker"`
	Region   string  `json:"region"`
	Charges  float64 `json:"charges"`
}

var requiredColumns = []string{"age", "sex", "bmi", "children", "smoker", "region", "charges"}

// ParseCSV reads rows keyed by header name, so column order does not matter.
// Rows that cannot be parsed are skipped and counted.
func ParseCSV(r io.Reader) (rows []Row, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[toSnakeCase(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, 0, fmt.Errorf("missing required column %q", col)
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		row, err := parseRow(record, index)
		if err != nil {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

// LoadFile parses the CSV at path.
func LoadFile(path string) ([]Row, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
	}
	defer f.Close()
	return ParseCSV(f)
}

func parseRow(record []string, index map[string]int) (Row, error) {
	field := func(name string) (string, error) {
		i := index[name]
		if i >= len(record) {
			return "", fmt.Errorf("column %s missing", name)
		}
		return strings.TrimSpace(record[i]), nil
	}

	var row Row
	var err error
	var v string

	if v, err = field("age"); err != nil {
		return row, err
	}
	if row.Age, err = strconv.Atoi(v); err != nil {
		return row, err
	}
	if v, err = field("bmi"); err != nil {
		return row, err
	}
	if row.BMI, err = parseFinite("bmi", v); err != nil {
		return row, err
	}
	if v, err = field("children"); err != nil {
		return row, err
	}
	if row.Children, err = strconv.Atoi(v); err != nil {
		return row, err
	}
	if v, err = field("charges"); err != nil {
		return row, err
	}
	if row.Charges, err = parseFinite("charges", v); err != nil {
		return row, err
	}

	if v, err = field("sex"); err != nil {
		return row, err
	}
	sex, err := ml.ParseSex(v)
	if err != nil {
		return row, err
	}
	row.Sex = sex.String()

	if v, err = field("smoker"); err != nil {
		return row, err
	}
	smoker, err := ml.ParseSmoker(v)
	if err != nil {
		return row, err
	}
	row.Smoker = smoker.String()

	if v, err = field("region"); err != nil {
		return row, err
	}
	region, err := ml.ParseRegion(v)
	if err != nil {
		return row, err
	}
	row.Region = region.String()

	return row, nil
}

// parseFinite rejects NaN and ±Inf, which ParseFloat accepts.
func parseFinite(name, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s %q is not a finite number", name, v)
	}
	return f, nil
}

// toSnakeCase converts "Column Name" → "column_name".
func toSnakeCase(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
