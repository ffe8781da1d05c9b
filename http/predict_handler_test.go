package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"insurequote/ml"
	"insurequote/monitoring"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// mismatchedEstimator behaves like a predictor whose artifacts disagree with
// the encoder.
type mismatchedEstimator struct{}

func (mismatchedEstimator) Estimate(ml.InputRecord) (ml.Estimate, error) {
	return ml.Estimate{}, &ml.DimensionError{Expected: 8, Got: 10}
}
func (mismatchedEstimator) Coefficients() []ml.Coefficient { return nil }
func (mismatchedEstimator) Schema() ml.Schema              { return ml.SchemaBase }

func postJSON(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestPredictAPI(t *testing.T) {
	handler := newTestServer(t, Deps{})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"age":30,"bmi":25.0,"children":0,"sex":"male","smoker":"no","region":"northeast"}`, http.StatusOK},
		{"mixed case categories", `{"age":45,"bmi":31.5,"children":2,"sex":"Female","smoker":" YES ","region":"SouthWest"}`, http.StatusOK},
		{"upper bounds", `{"age":100,"bmi":60,"children":5,"sex":"female","smoker":"yes","region":"southeast"}`, http.StatusOK},
		{"age too low", `{"age":17,"bmi":25.0,"children":0,"sex":"male","smoker":"no","region":"northeast"}`, http.StatusBadRequest},
		{"bmi too high", `{"age":30,"bmi":60.1,"children":0,"sex":"male","smoker":"no","region":"northeast"}`, http.StatusBadRequest},
		{"too many children", `{"age":30,"bmi":25.0,"children":6,"sex":"male","smoker":"no","region":"northeast"}`, http.StatusBadRequest},
		{"unknown sex", `{"age":30,"bmi":25.0,"children":0,"sex":"other","smoker":"no","region":"northeast"}`, http.StatusBadRequest},
		{"missing fields", `{"age":30}`, http.StatusBadRequest},
		{"unknown field", `{"age":30,"bmi":25.0,"children":0,"sex":"male","smoker":"no","region":"northeast","income":1}`, http.StatusBadRequest},
		{"malformed", `{"age":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(handler, "/api/predict", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if tt.status != http.StatusOK {
				var body map[string]string
				if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["error"] == "" {
					t.Fatalf("expected error body, got %s", rr.Body.String())
				}
			}
		})
	}
}

func TestPredictAPIResponse(t *testing.T) {
	handler := newTestServer(t, Deps{})

	rr := postJSON(handler, "/api/predict", `{"age":30,"bmi":25.0,"children":0,"sex":"male","smoker":"yes","region":"northwest"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var got predictResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Schema != "interaction" {
		t.Fatalf("expected interaction schema, got %q", got.Schema)
	}
	want := []float64{1, 1, 1, 0, 0, 30, 25, 0, 30, 25}
	if len(got.Features) != len(want) || len(got.FeatureNames) != len(want) {
		t.Fatalf("expected %d features, got %d values and %d names", len(want), len(got.Features), len(got.FeatureNames))
	}
	for i := range want {
		if got.Features[i] != want[i] {
			t.Fatalf("feature %s: expected %v, got %v", got.FeatureNames[i], want[i], got.Features[i])
		}
	}
	if got.Formatted != FormatCurrency(got.Premium) {
		t.Fatalf("formatted %q does not match premium %v", got.Formatted, got.Premium)
	}
}

func TestPredictAPIDimensionMismatch(t *testing.T) {
	handler := newTestServer(t, Deps{Estimator: mismatchedEstimator{}})

	rr := postJSON(handler, "/api/predict", `{"age":30,"bmi":25.0,"children":0,"sex":"male","smoker":"no","region":"northeast"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestSchemaAPI(t *testing.T) {
	handler := newTestServer(t, Deps{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/schema", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var got schemaResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Dim != 10 || len(got.Coefficients) != 10 {
		t.Fatalf("unexpected schema response: %+v", got)
	}
	if got.Coefficients[9].Label != "BMI * Smoker" {
		t.Fatalf("unexpected last label %q", got.Coefficients[9].Label)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12345.678, "$12,345.68"},
		{-1234, "-$1,234.00"},
		{0, "$0.00"},
		{-0.001, "$0.00"},
		{999.999, "$1,000.00"},
		{1234567.5, "$1,234,567.50"},
		{math.Inf(1), "$+Inf"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.in); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12500, "12.5k"},
		{30000, "30k"},
		{42, "42"},
		{27.35, "27.4"},
	}
	for _, tt := range tests {
		if got := formatCompact(tt.in); got != tt.want {
			t.Errorf("formatCompact(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLiveUpdatesThroughMiddleware(t *testing.T) {
	hub := monitoring.NewHub([]string{"*"}, testLogger())
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(newTestServer(t, Deps{Live: hub}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/ws/dashboard", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := hub.Publish(monitoring.ReportUpdated, nil); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"type":"report_updated"`) {
		t.Fatalf("unexpected message %s", data)
	}
}

func TestLiveUpdatesDisabled(t *testing.T) {
	handler := newTestServer(t, Deps{})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/ws/dashboard", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
