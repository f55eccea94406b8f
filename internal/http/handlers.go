package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"findash/internal/charts"
	"findash/internal/core"
	"findash/internal/history"
	"findash/internal/log"
	"findash/internal/summary"
)

// indexData feeds index.html.
type indexData struct {
	Options     []periodOption
	MaxUploadMB int64
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded")
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	data := indexData{MaxUploadMB: max(1, s.maxUpload>>20)}
	for _, o := range periodOptions {
		data.Options = append(data.Options, periodOption{
			Value:    string(o.Value),
			Label:    o.Label,
			Selected: o.Value == core.GranularityOverall,
		})
	}
	html, err := s.render("index.html", data)
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).Failure(r.Context(),
			"Index template execution failed", log.OpRender, err, nil)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	NewHTMXResponse().BodyHTML(html).Write(w)
}

// lookupReport resolves {id}; it writes the 404 itself.
func (s *Server) lookupReport(w http.ResponseWriter, r *http.Request) (*core.Report, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	report, ok := s.reports.Get(id)
	if !ok {
		s.metrics.reportMisses.Add(1)
		s.fail(w, r, http.StatusNotFound, "report not found or expired, please upload the file again", "not_found")
		return nil, false
	}
	s.metrics.reportHits.Add(1)
	return report, true
}

// handleReport re-renders a cached report, regrouping the period breakdown
// when ?period= differs from the cached one.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.lookupReport(w, r)
	if !ok {
		return
	}
	if p := r.URL.Query().Get("period"); p != "" {
		g, err := core.ParseGranularity(p)
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, err.Error(), "bad_request")
			return
		}
		if g != report.Granularity {
			report = summary.Regroup(report, g)
			log.FromContext(r.Context()).WithComponent(log.ComponentSummary).DebugContext(r.Context(),
				"Report regrouped", log.FieldOperation, log.OpRegroup,
				log.FieldReportID, report.ID, log.FieldGranularity, string(g))
		}
	}
	s.respondReport(w, r, report, false)
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	report, ok := s.lookupReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, charts.Build(report))
}

// historyResponse is the JSON shape of GET /history.
type historyResponse struct {
	Enabled bool            `json:"enabled"`
	Entries []history.Entry `json:"entries"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, historyResponse{Entries: []history.Entry{}})
		return
	}
	entries, err := s.history.Recent(r.Context(), parseLimit(r))
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentHistory).Failure(r.Context(),
			"History listing failed", log.OpList, err, nil)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "history unavailable", Kind: "internal_error"})
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Enabled: true, Entries: entries})
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).Round(time.Second).String(),
	})
}

// handleReady checks templates and, when configured, the history store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]any{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.history == nil {
		checks["history"] = "not_configured"
	} else if _, err := s.history.Recent(ctx, 1); err != nil {
		checks["history"] = fmt.Sprintf("failed: %v", err)
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["history"] = "ok"
	}

	checks["report_cache"] = map[string]any{"entries": s.reports.Len(), "status": "ok"}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.GetMetrics().Clients, "status": "ok"}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	tm := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()
	metric := func(name, kind, help string, v any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, v)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", tm.TotalRequests)
	metric("http_client_errors_total", "counter", "Responses with a 4xx status", tm.ClientErrors)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", tm.ServerErrors)
	metric("http_response_time_avg_us", "gauge", "Average response time in microseconds", tm.AverageResponseUs)
	metric("uploads_total", "counter", "Uploads summarized successfully", s.metrics.uploads.Load())
	metric("upload_failures_total", "counter", "Uploads rejected or failed", s.metrics.uploadFailures.Load())
	metric("report_cache_hits_total", "counter", "Report lookups served from cache", s.metrics.reportHits.Load())
	metric("report_cache_misses_total", "counter", "Report lookups for unknown or expired IDs", s.metrics.reportMisses.Load())
	metric("report_cache_entries", "gauge", "Reports currently cached", s.reports.Len())
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", rl.Rejected)
	metric("rate_limit_clients", "gauge", "Clients tracked by the rate limiter", rl.Clients)
	metric("suspicious_requests_total", "counter", "Requests flagged by the detector", s.detector.Suspicious())
	if s.history != nil {
		st := s.history.Stats()
		metric("history_recorded_total", "counter", "Reports recorded in history", st.Recorded)
		metric("history_published_total", "counter", "Report events published", st.Published)
		metric("history_failures_total", "counter", "History record or publish failures", st.Failures)
	}
	metric("uptime_seconds", "gauge", "Seconds since start", int64(time.Since(s.metrics.started).Seconds()))
}
