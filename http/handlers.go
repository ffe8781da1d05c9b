package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"insurequote/ml"
	"insurequote/monitoring"
	"insurequote/report"
)

var errInvalidInput = errors.New("invalid input")

type handlers struct {
	estimator ml.Estimator
	reports   ReportSource
	live      http.Handler
	log       *zap.SugaredLogger
	pages     *pageRenderer
	charts    chartBuilder
}

func newHandlers(deps Deps, charts chartBuilder) (*handlers, error) {
	pages, err := newPageRenderer()
	if err != nil {
		return nil, err
	}
	return &handlers{
		estimator: deps.Estimator,
		reports:   deps.Reports,
		live:      deps.Live,
		log:       deps.Log,
		pages:     pages,
		charts:    charts,
	}, nil
}

func (h *handlers) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /{$}", h.handleSubmit)
	mux.HandleFunc("GET /dashboard", h.handleDashboard)
	mux.Handle("GET /static/", staticHandler())

	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/schema", h.handleSchema)
	mux.HandleFunc("GET /api/report", h.handleReport)
	mux.HandleFunc("GET /api/ws/dashboard", h.handleLive)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type predictRequest struct {
	Age      int     `json:"age"`
	BMI      float64 `json:"bmi"`
	Children int     `json:"children"`
	Sex      string  `json:"sex"`
	Smoker   string  `json:"smoker"`
	Region   string  `json:"region"`
}

func (p predictRequest) record() (ml.InputRecord, error) {
	rec := ml.InputRecord{Age: p.Age, BMI: p.BMI, Children: p.Children}
	var err error
	if rec.Sex, err = ml.ParseSex(p.Sex); err != nil {
		return rec, err
	}
	if rec.Smoker, err = ml.ParseSmoker(p.Smoker); err != nil {
		return rec, err
	}
	if rec.Region, err = ml.ParseRegion(p.Region); err != nil {
		return rec, err
	}
	return rec, nil
}

type predictResponse struct {
	Premium      float64   `json:"premium"`
	Formatted    string    `json:"formatted"`
	Schema       string    `json:"schema"`
	FeatureNames []string  `json:"feature_names"`
	Features     []float64 `json:"features"`
}

func (h *handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.countPrediction("invalid")
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := req.record()
	if err != nil {
		h.countPrediction("invalid")
		writeError(w, statusFor(err), err.Error())
		return
	}

	est, err := h.estimate(rec)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	schema := h.estimator.Schema()
	writeJSON(w, http.StatusOK, predictResponse{
		Premium:      est.Premium,
		Formatted:    FormatCurrency(est.Premium),
		Schema:       schema.String(),
		FeatureNames: schema.FeatureNames(),
		Features:     est.Features,
	})
}

// estimate runs the model and records the outcome.
func (h *handlers) estimate(rec ml.InputRecord) (ml.Estimate, error) {
	est, err := h.estimator.Estimate(rec)
	switch {
	case err == nil:
		h.countPrediction("ok")
		monitoring.PredictedPremium.Observe(est.Premium)
	case statusFor(err) == http.StatusBadRequest:
		h.countPrediction("invalid")
	default:
		h.countPrediction("error")
		h.log.Errorw("prediction failed", "error", err)
	}
	return est, err
}

func (h *handlers) countPrediction(status string) {
	monitoring.Predictions.WithLabelValues(h.estimator.Schema().String(), status).Inc()
}

type schemaResponse struct {
	Schema       string           `json:"schema"`
	Dim          int              `json:"dim"`
	Coefficients []ml.Coefficient `json:"coefficients"`
}

func (h *handlers) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema := h.estimator.Schema()
	writeJSON(w, http.StatusOK, schemaResponse{
		Schema:       schema.String(),
		Dim:          schema.Dim(),
		Coefficients: h.estimator.Coefficients(),
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ml.ErrInputOutOfRange),
		errors.Is(err, ml.ErrUnknownCategory),
		errors.Is(err, errInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, report.ErrNoReport):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
