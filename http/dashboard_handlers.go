package http

import (
	"net/http"
)

func (h *handlers) handleReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}
	rep, err := h.reports.Current()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *handlers) handleDashboard(w http.ResponseWriter, r *http.Request) {
	page := dashboardPage{Title: "Dashboard", Active: "dashboard"}
	if h.reports == nil {
		page.Notice = "Dataset not found."
	} else if rep, err := h.reports.Current(); err != nil {
		h.log.Debugw("dashboard without report", "error", err)
		page.Notice = "Dataset not found. Place insurance.csv under the configured data path."
	} else if charts, err := h.charts.build(rep); err != nil {
		h.log.Errorw("build charts", "error", err)
		page.Notice = "Charts are unavailable."
	} else {
		page.Charts = charts
		page.ChartScript = h.charts.scriptURL()
		page.Rows = rep.Rows
		page.RowCount = rep.RowCount
		page.GeneratedAt = rep.GeneratedAt
	}
	h.pages.render(w, h.log, "dashboard.html", page)
}

func (h *handlers) handleLive(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		writeError(w, http.StatusServiceUnavailable, "live updates disabled")
		return
	}
	h.live.ServeHTTP(w, r)
}
