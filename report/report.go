// Package report computes the dashboard's aggregates from the dataset store and
// the loaded model.
package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"insurequote/dataset"
	"insurequote/ml"
)

var ErrNoReport = errors.New("no report available")

// Source is the read side of the dataset store.
type Source interface {
	Count(ctx context.Context) (int, error)
	Rows(ctx context.Context, limit int) ([]dataset.Row, error)
	MeanCharges(ctx context.Context, dimension string) ([]dataset.GroupMean, error)
	Column(ctx context.Context, measure string) ([]float64, error)
	ValuesBy(ctx context.Context, dimension, measure string) ([]dataset.GroupValues, error)
}

type ScatterPoint struct {
	BMI     float64 `json:"bmi"`
	Charges float64 `json:"charges"`
	Smoker  string  `json:"smoker"`
}

type Options struct {
	HistogramBins int
	// ScatterLimit caps the scatter plot and raw table; 0 keeps every row.
	ScatterLimit int
}

type Report struct {
	RowCount      int                 `json:"row_count"`
	SmokerCharges []BoxStats          `json:"smoker_charges"`
	RegionCharges []dataset.GroupMean `json:"region_charges"`
	AgeHistogram  Histogram           `json:"age_histogram"`
	BMIHistogram  Histogram           `json:"bmi_histogram"`
	Scatter       []ScatterPoint      `json:"scatter"`
	Importance    []Importance        `json:"importance,omitempty"`
	Rows          []dataset.Row       `json:"rows"`
	GeneratedAt   time.Time           `json:"generated_at"`
}

// Build assembles a report. coefs may be nil, in which case the importance
// chart is left out.
func Build(ctx context.Context, src Source, coefs []ml.Coefficient, opts Options) (*Report, error) {
	if opts.HistogramBins <= 0 {
		opts.HistogramBins = 20
	}

	count, err := src.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", ErrNoReport)
	}

	r := &Report{RowCount: count, GeneratedAt: time.Now()}

	groups, err := src.ValuesBy(ctx, "smoker", "charges")
	if err != nil {
		return nil, fmt.Errorf("charges by smoker: %w", err)
	}
	r.SmokerCharges = make([]BoxStats, len(groups))
	for i, g := range groups {
		r.SmokerCharges[i] = NewBoxStats(g.Key, g.Values)
	}

	if r.RegionCharges, err = src.MeanCharges(ctx, "region"); err != nil {
		return nil, fmt.Errorf("charges by region: %w", err)
	}

	ages, err := src.Column(ctx, "age")
	if err != nil {
		return nil, fmt.Errorf("age column: %w", err)
	}
	r.AgeHistogram = NewHistogram("age", ages, opts.HistogramBins)

	bmis, err := src.Column(ctx, "bmi")
	if err != nil {
		return nil, fmt.Errorf("bmi column: %w", err)
	}
	r.BMIHistogram = NewHistogram("bmi", bmis, opts.HistogramBins)

	if r.Rows, err = src.Rows(ctx, opts.ScatterLimit); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	r.Scatter = make([]ScatterPoint, len(r.Rows))
	for i, row := range r.Rows {
		r.Scatter[i] = ScatterPoint{BMI: row.BMI, Charges: row.Charges, Smoker: row.Smoker}
	}

	if coefs != nil {
		r.Importance = ImportanceFromCoefficients(coefs)
	}
	return r, nil
}

// Service holds the most recent report for the HTTP layer.
type Service struct {
	src   Source
	coefs []ml.Coefficient
	opts  Options
	log   *zap.SugaredLogger

	mu      sync.RWMutex
	current *Report
	lastErr error
}

func NewService(src Source, coefs []ml.Coefficient, opts Options, log *zap.SugaredLogger) *Service {
	return &Service{src: src, coefs: coefs, opts: opts, log: log}
}

// Refresh rebuilds the report. On failure the previous report is dropped so
// the dashboard never shows data that no longer matches the file.
func (s *Service) Refresh(ctx context.Context) (*Report, error) {
	start := time.Now()
	r, err := Build(ctx, s.src, s.coefs, s.opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.current = nil
		s.lastErr = err
		s.log.Warnw("report rebuild failed", "error", err)
		return nil, err
	}
	s.current = r
	s.lastErr = nil
	s.log.Infow("report rebuilt", "rows", r.RowCount, "duration", time.Since(start))
	return r, nil
}

// Invalidate drops the current report, recording why.
func (s *Service) Invalidate(reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.lastErr = reason
}

func (s *Service) Current() (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		if s.lastErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoReport, s.lastErr)
		}
		return nil, ErrNoReport
	}
	return s.current, nil
}
