package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"net/url"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"insurequote/report"
)

// DefaultChartAssetsHost serves echarts.min.js when no mirror is configured.
const DefaultChartAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

const (
	colorSmoker    = "#d62728"
	colorNonSmoker = "#1f77b4"
	colorNegative  = "#d62728"
	colorPositive  = "#2ca02c"
)

type chart struct {
	ID    string
	Title string
	// Options is the marshaled echarts option object, placed in a JSON script
	// block and handed to echarts.init by dashboard.js.
	Options template.JS
}

// chartBuilder turns a report into echarts options. Every chart shares the
// same assets host so the page loads echarts.min.js once.
type chartBuilder struct {
	assetsHost string
}

func newChartBuilder(assetsHost string) chartBuilder {
	if assetsHost == "" {
		assetsHost = DefaultChartAssetsHost
	}
	return chartBuilder{assetsHost: assetsHost}
}

// scriptURL is the echarts bundle the dashboard page includes.
func (b chartBuilder) scriptURL() string {
	bar := charts.NewBar()
	bar.SetGlobalOptions(b.init())
	bar.Validate()
	if assets := bar.GetAssets().JSAssets.Values; len(assets) > 0 {
		return assets[0]
	}
	return b.assetsHost + opts.EchartsJS
}

// scriptOrigin is the CSP source allowed to serve scriptURL.
func (b chartBuilder) scriptOrigin() string {
	u, err := url.Parse(b.assetsHost)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func (b chartBuilder) init() charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{AssetsHost: b.assetsHost})
}

// build lays out every dashboard chart.
func (b chartBuilder) build(rep *report.Report) ([]chart, error) {
	type entry struct {
		id, title string
		cfg       interface {
			Validate()
			JSON() map[string]interface{}
		}
	}
	entries := []entry{
		{"smoker", "Charges: Smokers vs. Non-Smokers", b.smokerBox(rep.SmokerCharges)},
		{"region", "Average Charges by Region", b.regionBar(rep)},
		{"age", "Distribution of Patient Age", b.histogram(rep.AgeHistogram)},
		{"bmi", "Distribution of Patient BMI", b.histogram(rep.BMIHistogram)},
		{"scatter", "Charges vs. BMI (Colored by Smoker)", b.scatter(rep.Scatter)},
	}
	if len(rep.Importance) > 0 {
		entries = append(entries, entry{"importance", "Feature Importance", b.importance(rep.Importance)})
	}

	out := make([]chart, 0, len(entries))
	for _, e := range entries {
		e.cfg.Validate()
		payload, err := json.Marshal(e.cfg.JSON())
		if err != nil {
			return nil, fmt.Errorf("chart %s: %w", e.id, err)
		}
		out = append(out, chart{ID: e.id, Title: e.title, Options: template.JS(payload)})
	}
	return out, nil
}

func (b chartBuilder) smokerBox(groups []report.BoxStats) *charts.BoxPlot {
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		b.init(),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "charges"}),
	)

	labels := make([]string, len(groups))
	data := make([]opts.BoxPlotData, len(groups))
	for i, g := range groups {
		labels[i] = fmt.Sprintf("smoker: %s (n=%d)", g.Group, g.Count)
		data[i] = opts.BoxPlotData{
			Name:  g.Group,
			Value: []float64{round2(g.Min), round2(g.Q1), round2(g.Median), round2(g.Q3), round2(g.Max)},
		}
	}
	box.SetXAxis(labels).AddSeries("charges", data)
	return box
}

func (b chartBuilder) regionBar(rep *report.Report) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		b.init(),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "mean charges"}),
	)

	keys := make([]string, len(rep.RegionCharges))
	data := make([]opts.BarData, len(rep.RegionCharges))
	for i, g := range rep.RegionCharges {
		keys[i] = g.Key
		data[i] = opts.BarData{Name: g.Key, Value: round2(g.Mean)}
	}
	bar.SetXAxis(keys).AddSeries("mean charges", data)
	return bar
}

// histogram draws adjacent bars labeled by each bin's lower edge.
func (b chartBuilder) histogram(h report.Histogram) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		b.init(),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: h.Field}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "count"}),
	)

	labels := make([]string, len(h.Bins))
	data := make([]opts.BarData, len(h.Bins))
	for i, bin := range h.Bins {
		labels[i] = formatCompact(bin.Lower)
		data[i] = opts.BarData{
			Name:  fmt.Sprintf("%s - %s", formatCompact(bin.Lower), formatCompact(bin.Upper)),
			Value: bin.Count,
		}
	}
	bar.SetXAxis(labels).AddSeries(h.Field, data, charts.WithBarChartOpts(opts.BarChart{BarCategoryGap: "0%"}))
	return bar
}

func (b chartBuilder) scatter(points []report.ScatterPoint) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		b.init(),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "bmi", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "charges"}),
	)

	smokers, others := []opts.ScatterData{}, []opts.ScatterData{}
	for _, p := range points {
		d := opts.ScatterData{Value: []float64{p.BMI, round2(p.Charges)}, SymbolSize: 6}
		if p.Smoker == "yes" {
			smokers = append(smokers, d)
		} else {
			others = append(others, d)
		}
	}
	sc.AddSeries("smoker", smokers, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorSmoker})).
		AddSeries("non-smoker", others, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorNonSmoker}))
	return sc
}

// importance draws signed horizontal bars, largest weight on top.
func (b chartBuilder) importance(items []report.Importance) *charts.Bar {
	limit := report.MaxAbsWeight(items)
	if limit == 0 {
		limit = 1
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		b.init(),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "weight", Min: -limit, Max: limit}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category"}),
	)

	// category axes draw their first entry at the bottom
	n := len(items)
	labels := make([]string, n)
	data := make([]opts.BarData, n)
	for i, it := range items {
		color := colorPositive
		if it.Weight < 0 {
			color = colorNegative
		}
		labels[n-1-i] = it.Label
		data[n-1-i] = opts.BarData{
			Name:      it.Label,
			Value:     round2(it.Weight),
			ItemStyle: &opts.ItemStyle{Color: color},
		}
	}
	bar.SetXAxis(labels).AddSeries("weight", data).XYReversal()
	return bar
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
