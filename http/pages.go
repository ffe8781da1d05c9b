package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"insurequote/dataset"
	"insurequote/ml"
)

//go:embed templates static
var assets embed.FS

var pageNames = []string{"index.html", "dashboard.html"}

type pageRenderer struct {
	pages map[string]*template.Template
}

func newPageRenderer() (*pageRenderer, error) {
	funcs := template.FuncMap{
		"currency": FormatCurrency,
		"fixed": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 2, 64)
		},
		"timestamp": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},
	}

	pr := &pageRenderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(assets, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pr.pages[name] = t
	}
	return pr, nil
}

func (pr *pageRenderer) render(w http.ResponseWriter, log *zap.SugaredLogger, name string, data interface{}) {
	pr.renderStatus(w, log, http.StatusOK, name, data)
}

// renderStatus executes into a buffer first so a template error never leaves a
// half-written page behind.
func (pr *pageRenderer) renderStatus(w http.ResponseWriter, log *zap.SugaredLogger, status int, name string, data interface{}) {
	t, ok := pr.pages[name]
	if !ok {
		http.Error(w, "page not found", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Errorw("render page failed", "page", name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	files := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

// formValues echoes what the user typed so a rejected form keeps its input.
type formValues struct {
	Age      string
	BMI      string
	Children string
	Sex      string
	Smoker   string
	Region   string
}

func defaultFormValues() formValues {
	d := ml.DefaultInputRecord()
	return formValues{
		Age:      strconv.Itoa(d.Age),
		BMI:      strconv.FormatFloat(d.BMI, 'f', 1, 64),
		Children: strconv.Itoa(d.Children),
		Sex:      d.Sex.String(),
		Smoker:   d.Smoker.String(),
		Region:   d.Region.String(),
	}
}

func (f formValues) SexOptions() []option {
	return options(f.Sex, ml.SexMale.String(), ml.SexFemale.String())
}

func (f formValues) SmokerOptions() []option {
	return options(f.Smoker, ml.SmokerNo.String(), ml.SmokerYes.String())
}

func (f formValues) RegionOptions() []option {
	regions := ml.Regions()
	values := make([]string, len(regions))
	for i, r := range regions {
		values[i] = r.String()
	}
	return options(f.Region, values...)
}

func options(selected string, values ...string) []option {
	out := make([]option, len(values))
	for i, v := range values {
		out[i] = option{Value: v, Label: strings.ToUpper(v[:1]) + v[1:], Selected: v == selected}
	}
	return out
}

// limits feed the min/max attributes of the form inputs.
type limits struct {
	MinAge, MaxAge           int
	MinBMI, MaxBMI           float64
	MinChildren, MaxChildren int
}

var formLimits = limits{
	MinAge: ml.MinAge, MaxAge: ml.MaxAge,
	MinBMI: ml.MinBMI, MaxBMI: ml.MaxBMI,
	MinChildren: ml.MinChildren, MaxChildren: ml.MaxChildren,
}

type indexPage struct {
	Title    string
	Active   string
	Form     formValues
	Limits   limits
	Result   string
	Negative bool
	Error    string
}

func newIndexPage(form formValues) indexPage {
	return indexPage{Title: "Premium Predictor", Active: "index", Form: form, Limits: formLimits}
}

type dashboardPage struct {
	Title       string
	Active      string
	Notice      string
	Charts      []chart
	ChartScript string
	Rows        []dataset.Row
	RowCount    int
	GeneratedAt time.Time
}

func (h *handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, h.log, "index.html", newIndexPage(defaultFormValues()))
}

func (h *handlers) handleSubmit(w http.ResponseWriter, r *http.Request) {
	form, rec, err := parseForm(r)
	page := newIndexPage(form)
	if err == nil {
		var est ml.Estimate
		if est, err = h.estimate(rec); err == nil {
			page.Result = FormatCurrency(est.Premium)
			page.Negative = est.Premium < 0
			h.pages.render(w, h.log, "index.html", page)
			return
		}
	} else {
		h.countPrediction("invalid")
	}

	status := statusFor(err)
	if status == http.StatusBadRequest {
		page.Error = err.Error()
	} else {
		page.Error = "The premium could not be estimated. Please try again later."
	}
	h.pages.renderStatus(w, h.log, status, "index.html", page)
}

// parseForm reads the six input fields. Missing or malformed numbers are
// reported per field; ranges and categories are checked by the model layer.
func parseForm(r *http.Request) (formValues, ml.InputRecord, error) {
	var rec ml.InputRecord
	if err := r.ParseForm(); err != nil {
		return defaultFormValues(), rec, fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	form := formValues{
		Age:      strings.TrimSpace(r.PostForm.Get("age")),
		BMI:      strings.TrimSpace(r.PostForm.Get("bmi")),
		Children: strings.TrimSpace(r.PostForm.Get("children")),
		Sex:      strings.TrimSpace(r.PostForm.Get("sex")),
		Smoker:   strings.TrimSpace(r.PostForm.Get("smoker")),
		Region:   strings.TrimSpace(r.PostForm.Get("region")),
	}

	var err error
	if rec.Age, err = strconv.Atoi(form.Age); err != nil {
		return form, rec, fmt.Errorf("%w: age must be a whole number", errInvalidInput)
	}
	if rec.BMI, err = strconv.ParseFloat(form.BMI, 64); err != nil {
		return form, rec, fmt.Errorf("%w: bmi must be a number", errInvalidInput)
	}
	if rec.Children, err = strconv.Atoi(form.Children); err != nil {
		return form, rec, fmt.Errorf("%w: children must be a whole number", errInvalidInput)
	}
	if rec.Sex, err = ml.ParseSex(form.Sex); err != nil {
		return form, rec, err
	}
	if rec.Smoker, err = ml.ParseSmoker(form.Smoker); err != nil {
		return form, rec, err
	}
	if rec.Region, err = ml.ParseRegion(form.Region); err != nil {
		return form, rec, err
	}
	return form, rec, nil
}
