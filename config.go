package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	qhttp "insurequote/http"
	"insurequote/logger"
	"insurequote/ml"
)

type Config struct {
	HTTP struct {
		Port            int           `yaml:"port"`
		Timeout         time.Duration `yaml:"timeout"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
		MaxBodyBytes    int64         `yaml:"max_body_bytes"`
		ChartAssetsHost string        `yaml:"chart_assets_host"`
	} `yaml:"http"`
	Log   logger.Config `yaml:"log"`
	Model struct {
		Schema     string `yaml:"schema"`
		ModelPath  string `yaml:"model_path"`
		ScalerPath string `yaml:"scaler_path"`
		CacheSize  int    `yaml:"cache_size"`
	} `yaml:"model"`
	Dataset struct {
		Path          string        `yaml:"path"`
		StoreDSN      string        `yaml:"store_dsn"`
		Watch         bool          `yaml:"watch"`
		Debounce      time.Duration `yaml:"debounce"`
		HistogramBins int           `yaml:"histogram_bins"`
		ScatterLimit  int           `yaml:"scatter_limit"`
	} `yaml:"dataset"`
}

func defaultConfig() *Config {
	var c Config
	c.HTTP.Port = 8501
	c.HTTP.Timeout = 30 * time.Second
	c.HTTP.AllowedOrigins = []string{"*"}
	c.HTTP.MaxBodyBytes = 1 << 20
	c.HTTP.ChartAssetsHost = qhttp.DefaultChartAssetsHost
	c.Log = logger.Config{Level: "info", MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28}
	c.Model.Schema = ml.SchemaInteraction.String()
	c.Model.ModelPath = "models/model.json"
	c.Model.ScalerPath = "models/scaler.json"
	c.Model.CacheSize = 1024
	c.Dataset.Path = "data/insurance.csv"
	c.Dataset.StoreDSN = ":memory:"
	c.Dataset.Watch = true
	c.Dataset.Debounce = 250 * time.Millisecond
	c.Dataset.HistogramBins = 20
	return &c
}

// loadConfig decodes path over the defaults, so a file only needs the keys it
// changes. A missing file is not an error when allowMissing is set.
func loadConfig(path string, allowMissing bool) (*Config, error) {
	config := defaultConfig()

	file, err := os.Open(path)
	if err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			return config, config.validate()
		}
		return nil, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.HTTP.Timeout < 0 {
		return errors.New("http.timeout must not be negative")
	}
	if c.HTTP.MaxBodyBytes < 0 {
		return errors.New("http.max_body_bytes must not be negative")
	}
	if c.HTTP.ChartAssetsHost != "" {
		u, err := url.Parse(c.HTTP.ChartAssetsHost)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || !strings.HasSuffix(u.Path, "/") {
			return fmt.Errorf("http.chart_assets_host %q must be an http(s) URL ending in /", c.HTTP.ChartAssetsHost)
		}
	}
	if _, err := ml.ParseSchema(c.Model.Schema); err != nil {
		return fmt.Errorf("model.schema: %w", err)
	}
	if c.Model.ModelPath == "" || c.Model.ScalerPath == "" {
		return errors.New("model.model_path and model.scaler_path are required")
	}
	if c.Model.CacheSize < 0 {
		return errors.New("model.cache_size must not be negative")
	}
	if c.Dataset.Path == "" {
		return errors.New("dataset.path is required")
	}
	if c.Dataset.HistogramBins <= 0 {
		return errors.New("dataset.histogram_bins must be positive")
	}
	if c.Dataset.ScatterLimit < 0 {
		return errors.New("dataset.scatter_limit must not be negative")
	}
	return nil
}
