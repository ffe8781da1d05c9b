package http

import (
	"encoding/json"
	"testing"

	"insurequote/report"
)

type chartOptions struct {
	Series []struct {
		Name string            `json:"name"`
		Type string            `json:"type"`
		Data []json.RawMessage `json:"data"`
	} `json:"series"`
	XAxis []struct {
		Type string   `json:"type"`
		Data []string `json:"data"`
	} `json:"xAxis"`
	YAxis []struct {
		Type string   `json:"type"`
		Data []string `json:"data"`
	} `json:"yAxis"`
}

func decodeCharts(t *testing.T, rep *report.Report) map[string]chartOptions {
	t.Helper()
	built, err := newChartBuilder("").build(rep)
	if err != nil {
		t.Fatalf("build charts: %v", err)
	}
	out := make(map[string]chartOptions, len(built))
	for _, c := range built {
		var o chartOptions
		if err := json.Unmarshal([]byte(c.Options), &o); err != nil {
			t.Fatalf("chart %s: invalid options: %v", c.ID, err)
		}
		out[c.ID] = o
	}
	return out
}

func TestBuildChartsSeriesTypes(t *testing.T) {
	got := decodeCharts(t, sampleReport())

	tests := []struct {
		id     string
		typ    string
		series int
	}{
		{"smoker", "boxplot", 1},
		{"region", "bar", 1},
		{"age", "bar", 1},
		{"bmi", "bar", 1},
		{"scatter", "scatter", 2},
		{"importance", "bar", 1},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			o, ok := got[tt.id]
			if !ok {
				t.Fatalf("chart %s missing", tt.id)
			}
			if len(o.Series) != tt.series {
				t.Fatalf("expected %d series, got %d", tt.series, len(o.Series))
			}
			for _, s := range o.Series {
				if s.Type != tt.typ {
					t.Errorf("expected %s series, got %s", tt.typ, s.Type)
				}
			}
		})
	}
}

func TestBuildChartsData(t *testing.T) {
	got := decodeCharts(t, sampleReport())

	box := got["smoker"]
	if len(box.XAxis) == 0 || len(box.XAxis[0].Data) != 2 || box.XAxis[0].Data[0] != "smoker: no (n=2)" {
		t.Fatalf("unexpected box categories: %+v", box.XAxis)
	}
	var first struct {
		Value []float64 `json:"value"`
	}
	if err := json.Unmarshal(box.Series[0].Data[0], &first); err != nil {
		t.Fatalf("box data: %v", err)
	}
	if len(first.Value) != 5 || first.Value[0] != 1725.55 || first.Value[4] != 4449.46 {
		t.Fatalf("unexpected box values: %v", first.Value)
	}

	scatter := got["scatter"]
	if len(scatter.Series[0].Data) != 1 || len(scatter.Series[1].Data) != 2 {
		t.Fatalf("expected 1 smoker and 2 non-smoker points, got %d and %d",
			len(scatter.Series[0].Data), len(scatter.Series[1].Data))
	}

	imp := got["importance"]
	if len(imp.YAxis) == 0 || imp.YAxis[0].Type != "category" {
		t.Fatalf("importance labels should sit on the y axis: %+v", imp.YAxis)
	}
	labels := imp.YAxis[0].Data
	if len(labels) != 3 || labels[0] != "Is Male" || labels[2] != "Smoker" {
		t.Fatalf("expected the largest weight on top, got %v", labels)
	}
}

func TestBuildChartsWithoutImportance(t *testing.T) {
	rep := sampleReport()
	rep.Importance = nil
	got := decodeCharts(t, rep)
	if _, ok := got["importance"]; ok {
		t.Fatal("importance chart should be left out without coefficients")
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 charts, got %d", len(got))
	}
}

func TestChartBuilderAssets(t *testing.T) {
	b := newChartBuilder("https://cdn.example.com/echarts/")
	if got := b.scriptURL(); got != "https://cdn.example.com/echarts/echarts.min.js" {
		t.Fatalf("unexpected script url %q", got)
	}
	if got := b.scriptOrigin(); got != "https://cdn.example.com" {
		t.Fatalf("unexpected script origin %q", got)
	}
	if got := newChartBuilder("").scriptURL(); got != DefaultChartAssetsHost+"echarts.min.js" {
		t.Fatalf("unexpected default script url %q", got)
	}
}
