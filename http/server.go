// Package http serves the premium form, the chart dashboard and the JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"insurequote/ml"
	"insurequote/report"
)

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
	MaxBodyBytes   int64
	// ChartAssetsHost is the URL prefix echarts.min.js is loaded from.
	ChartAssetsHost string
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            8501,
		Timeout:         30 * time.Second,
		AllowedOrigins:  []string{"*"},
		MaxBodyBytes:    1 << 20,
		ChartAssetsHost: DefaultChartAssetsHost,
	}
}

// ReportSource is satisfied by *report.Service.
type ReportSource interface {
	Current() (*report.Report, error)
}

// Deps are the collaborators the handlers need. Estimator is required; the
// others may be nil, in which case their routes answer 503.
type Deps struct {
	Estimator ml.Estimator
	Reports   ReportSource
	Live      http.Handler
	Log       *zap.SugaredLogger
}

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	log    *zap.SugaredLogger
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig, deps Deps) (*Server, error) {
	if deps.Estimator == nil {
		return nil, errors.New("http: estimator is required")
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}

	h, err := newHandlers(deps, newChartBuilder(config.ChartAssetsHost))
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	h.register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	chain := Chain(
		RecoveryMiddleware(deps.Log),                       // 1. 恢复中间件（最先执行，捕获panic）
		LoggerMiddleware(deps.Log),                         // 2. 日志中间件
		MetricsMiddleware(mux),                             // 3. 指标
		SecurityHeadersMiddleware(h.charts.scriptOrigin()), // 4. 安全头中间件
		CORSMiddleware(config.AllowedOrigins),              // 5. CORS中间件
		TimeoutMiddleware(config.Timeout),                  // 6. 超时中间件
		RequestSizeMiddleware(config.MaxBodyBytes),
	)

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Port),
			Handler:           chain(mux),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		config: config,
		log:    deps.Log,
	}, nil
}

// Handler exposes the wrapped mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start 启动服务器, blocking until the server stops.
func (s *Server) Start() error {
	s.log.Infow("starting HTTP server", "addr", s.server.Addr)
	s.log.Infof("dashboard: http://localhost%s/dashboard", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.log.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}
