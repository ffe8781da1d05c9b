package main

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"insurequote/dataset"
	"insurequote/monitoring"
	"insurequote/report"
)

type publisher interface {
	Publish(msgType monitoring.MessageType, data interface{}) error
}

// datasetLoader moves the CSV into the store, rebuilds the report and tells
// connected dashboards. Reloads are serialized.
type datasetLoader struct {
	path    string
	store   *dataset.Store
	reports *report.Service
	hub     publisher
	log     *zap.SugaredLogger

	mu sync.Mutex
}

type reloadSummary struct {
	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
}

func (l *datasetLoader) reload(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	loaded, skipped, err := l.store.LoadFile(ctx, l.path)
	if err != nil {
		monitoring.DatasetReloads.WithLabelValues("error").Inc()
		if dataset.IsUnavailable(err) {
			l.log.Warnw("dataset not found, dashboard disabled", "path", l.path)
		} else {
			l.log.Errorw("dataset load failed", "path", l.path, "error", err)
		}
		if clearErr := l.store.Replace(ctx, nil); clearErr != nil {
			l.log.Warnw("clear dataset store", "error", clearErr)
		}
		monitoring.DatasetRows.Set(0)
		l.reports.Invalidate(err)
		l.publish(monitoring.DatasetUnavailable, nil)
		return
	}

	monitoring.DatasetRows.Set(float64(loaded))
	if skipped > 0 {
		l.log.Warnw("skipped malformed dataset rows", "path", l.path, "skipped", skipped)
	}
	if _, err := l.reports.Refresh(ctx); err != nil {
		monitoring.DatasetReloads.WithLabelValues("error").Inc()
		l.publish(monitoring.DatasetUnavailable, nil)
		return
	}
	monitoring.DatasetReloads.WithLabelValues("ok").Inc()
	l.log.Infow("dataset loaded", "path", l.path, "rows", loaded, "skipped", skipped)
	l.publish(monitoring.ReportUpdated, reloadSummary{Rows: loaded, Skipped: skipped})
}

func (l *datasetLoader) publish(t monitoring.MessageType, data interface{}) {
	if err := l.hub.Publish(t, data); err != nil {
		l.log.Warnw("publish dashboard update", "type", t, "error", err)
	}
}
