package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"insurequote/dataset"
	qhttp "insurequote/http"
	"insurequote/logger"
	"insurequote/ml"
	"insurequote/monitoring"
	"insurequote/report"
)

const defaultConfigPath = "config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to the YAML config file")
	flag.Parse()

	// 1. Load config
	config, err := loadConfig(*configPath, *configPath == defaultConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Logger
	zl, closeLog, err := logger.New(config.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := zl.Sugar()

	if err := run(config, log); err != nil {
		log.Errorw("exiting", "error", err)
		closeLog()
		os.Exit(1)
	}
	log.Info("exiting")
	closeLog()
}

func run(config *Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Model artifacts; the service cannot answer anything without them
	schema, err := ml.ParseSchema(config.Model.Schema)
	if err != nil {
		return err
	}
	artifacts, err := ml.LoadArtifacts(config.Model.ModelPath, config.Model.ScalerPath)
	if err != nil {
		return err
	}
	predictor, err := ml.NewPredictor(schema, artifacts)
	if err != nil {
		return fmt.Errorf("model does not match configured schema: %w", err)
	}
	estimator, err := ml.NewCachedPredictor(predictor, config.Model.CacheSize, monitoring.ObserveCache)
	if err != nil {
		return err
	}
	log.Infow("model loaded", "schema", schema, "features", schema.Dim(), "cache_size", config.Model.CacheSize)

	// 4. Dataset and dashboard
	store, err := dataset.OpenStore(config.Dataset.StoreDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	reports := report.NewService(store, predictor.Coefficients(), report.Options{
		HistogramBins: config.Dataset.HistogramBins,
		ScatterLimit:  config.Dataset.ScatterLimit,
	}, log.Named("report"))

	hub := monitoring.NewHub(config.HTTP.AllowedOrigins, log.Named("ws"))
	go hub.Run()
	defer hub.Stop()

	loader := &datasetLoader{
		path:    config.Dataset.Path,
		store:   store,
		reports: reports,
		hub:     hub,
		log:     log.Named("dataset"),
	}
	loader.reload(ctx)

	if config.Dataset.Watch {
		w, err := dataset.NewWatcher(config.Dataset.Path, config.Dataset.Debounce, func() { loader.reload(ctx) }, log.Named("watcher"))
		if err != nil {
			log.Warnw("dataset watcher disabled", "error", err)
		} else {
			go w.Run(ctx)
		}
	}

	// 5. HTTP server
	server, err := qhttp.NewServer(qhttp.ServerConfig{
		Port:            config.HTTP.Port,
		Timeout:         config.HTTP.Timeout,
		AllowedOrigins:  config.HTTP.AllowedOrigins,
		MaxBodyBytes:    config.HTTP.MaxBodyBytes,
		ChartAssetsHost: config.HTTP.ChartAssetsHost,
	}, qhttp.Deps{
		Estimator: estimator,
		Reports:   reports,
		Live:      hub,
		Log:       log.Named("http"),
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 6. Handle graceful shutdown
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	return server.Stop(context.Background())
}
