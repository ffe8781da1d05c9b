// Command evaluate scores the model artifacts against a labelled CSV and
// prints the fit statistics.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	"insurequote/dataset"
	"insurequote/ml"
)

func main() {
	modelPath := flag.String("model_path", "./models/model.json", "model artifact path")
	scalerPath := flag.String("scaler_path", "./models/scaler.json", "scaler artifact path")
	schemaName := flag.String("schema", "interaction", "feature schema: base or interaction")
	dataPath := flag.String("data", "./data/insurance.csv", "labelled dataset")
	flag.Parse()

	schema, err := ml.ParseSchema(*schemaName)
	if err != nil {
		log.Fatal(err)
	}
	artifacts, err := ml.LoadArtifacts(*modelPath, *scalerPath)
	if err != nil {
		log.Fatalf("failed to load artifacts: %v", err)
	}
	predictor, err := ml.NewPredictor(schema, artifacts)
	if err != nil {
		log.Fatalf("failed to build predictor: %v", err)
	}

	rows, skipped, err := dataset.LoadFile(*dataPath)
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}
	if skipped > 0 {
		log.Printf("skipped %d malformed rows", skipped)
	}

	m := evaluateModel(predictor, rows)
	log.Printf("rows=%d rejected=%d", m.Scored, m.Rejected)
	fmt.Printf("mae=%.2f rmse=%.2f r2=%.4f\n", m.MAE, m.RMSE, m.R2)
}

type metrics struct {
	Scored   int
	Rejected int
	MAE      float64
	RMSE     float64
	R2       float64
}

func recordFromRow(row dataset.Row) (ml.InputRecord, error) {
	rec := ml.InputRecord{Age: row.Age, BMI: row.BMI, Children: row.Children}
	var err error
	if rec.Sex, err = ml.ParseSex(row.Sex); err != nil {
		return rec, err
	}
	if rec.Smoker, err = ml.ParseSmoker(row.Smoker); err != nil {
		return rec, err
	}
	if rec.Region, err = ml.ParseRegion(row.Region); err != nil {
		return rec, err
	}
	return rec, nil
}

// evaluateModel scores every row the form would accept. Rows outside the
// input limits are counted as rejected, not scored.
func evaluateModel(est ml.Estimator, rows []dataset.Row) metrics {
	var m metrics
	var absErr, sqErr, sum, sumSq float64
	actual := make([]float64, 0, len(rows))

	for _, row := range rows {
		rec, err := recordFromRow(row)
		if err != nil {
			m.Rejected++
			continue
		}
		e, err := est.Estimate(rec)
		if err != nil {
			m.Rejected++
			continue
		}
		diff := e.Premium - row.Charges
		absErr += math.Abs(diff)
		sqErr += diff * diff
		sum += row.Charges
		actual = append(actual, row.Charges)
		m.Scored++
	}
	if m.Scored == 0 {
		return m
	}

	n := float64(m.Scored)
	mean := sum / n
	for _, y := range actual {
		sumSq += (y - mean) * (y - mean)
	}
	m.MAE = absErr / n
	m.RMSE = math.Sqrt(sqErr / n)
	if sumSq > 0 {
		m.R2 = 1 - sqErr/sumSq
	}
	return m
}
