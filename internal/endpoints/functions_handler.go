package endpoints

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"perftracker/internal/domain"
	"perftracker/internal/util"
)

type RecordsResponse struct {
	Key     string          `json:"key"`
	Count   int             `json:"count"`
	Records []domain.Record `json:"records"`
}

type StatsResponse struct {
	Key     string  `json:"key"`
	Window  string  `json:"window"`
	Unit    string  `json:"unit"`
	Count   int     `json:"count"`
	Cpm     float64 `json:"cpm"`
	AvgTime float64 `json:"avg_time"`
	MinMs   float64 `json:"min_ms"`
	MaxMs   float64 `json:"max_ms"`
	P50Ms   float64 `json:"p50_ms"`
	P95Ms   float64 `json:"p95_ms"`
	P99Ms   float64 `json:"p99_ms"`
}

type Logger interface {
	LogEvent(v ...interface{}) error
}

// Functions serves read-only views of a ledger.
type Functions struct {
	Response APIResponse
	logger   Logger
	ledger   domain.Ledger
}

// Init wires the handler. A nil logger is replaced by an uninitialised
// PerfLogger, which drops every event.
func (f *Functions) Init(ledger domain.Ledger, logger Logger) {
	if logger == nil {
		logger = &util.PerfLogger{}
	}
	f.ledger = ledger
	f.logger = logger
}

// ListHandler answers GET /functions[?window=] with a summary per key.
func (f *Functions) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !f.allowGet(w, r) {
		return
	}

	window, err := parseWindow(r)
	if err != nil {
		f.logger.LogEvent(util.LOG_LEVEL_ERROR, "Invalid window. Err -", err)
		f.Response.WriteErrorResponse(w, err, http.StatusBadRequest)
		return
	}

	summaries := make([]domain.Summary, 0)
	for _, key := range f.ledger.Keys() {
		if sum, ok := f.ledger.Summary(key, window); ok {
			summaries = append(summaries, sum)
		}
	}
	f.Response.WriteResultResponse(w, summaries)
}

// RecordsHandler answers GET /functions/{key}/records.
func (f *Functions) RecordsHandler(w http.ResponseWriter, r *http.Request) {
	if !f.allowGet(w, r) {
		return
	}

	key, err := routeKey(r)
	if err != nil {
		f.logger.LogEvent(util.LOG_LEVEL_ERROR, "While reading key from URL. Err -", err)
		f.Response.WriteErrorResponse(w, err, http.StatusBadRequest)
		return
	}

	records, ok := f.ledger.Get(key)
	if !ok {
		f.logger.LogEvent(util.LOG_LEVEL_WARN, "No records for", key)
		f.Response.WriteErrorResponse(w, ErrFunctionNotTracked, http.StatusNotFound)
		return
	}
	f.Response.WriteResultResponse(w, RecordsResponse{Key: key, Count: len(records), Records: records})
}

// StatsHandler answers GET /functions/{key}/stats[?window=30s][&unit=ms|s].
func (f *Functions) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !f.allowGet(w, r) {
		return
	}

	key, err := routeKey(r)
	if err != nil {
		f.logger.LogEvent(util.LOG_LEVEL_ERROR, "While reading key from URL. Err -", err)
		f.Response.WriteErrorResponse(w, err, http.StatusBadRequest)
		return
	}

	window, err := parseWindow(r)
	if err != nil {
		f.logger.LogEvent(util.LOG_LEVEL_ERROR, "Invalid window. Err -", err)
		f.Response.WriteErrorResponse(w, err, http.StatusBadRequest)
		return
	}

	unit := r.URL.Query().Get("unit")
	if unit == "" {
		unit = "ms"
	}
	if unit != "ms" && unit != "s" {
		f.logger.LogEvent(util.LOG_LEVEL_ERROR, "Invalid unit", unit)
		f.Response.WriteErrorResponse(w, fmt.Errorf("%w: unit must be ms or s", ErrInvalidParameters), http.StatusBadRequest)
		return
	}

	sum, ok := f.ledger.Summary(key, window)
	if !ok {
		f.logger.LogEvent(util.LOG_LEVEL_WARN, "No records for", key)
		f.Response.WriteErrorResponse(w, ErrFunctionNotTracked, http.StatusNotFound)
		return
	}

	avg := sum.AvgMs
	if unit == "s" {
		avg /= 1000
	}

	windowLabel := "all"
	if window > 0 {
		windowLabel = window.String()
	}
	f.Response.WriteResultResponse(w, StatsResponse{
		Key:     key,
		Window:  windowLabel,
		Unit:    unit,
		Count:   sum.Count,
		Cpm:     sum.Cpm,
		AvgTime: avg,
		MinMs:   sum.MinMs,
		MaxMs:   sum.MaxMs,
		P50Ms:   sum.P50Ms,
		P95Ms:   sum.P95Ms,
		P99Ms:   sum.P99Ms,
	})
}

func (f *Functions) allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	f.logger.LogEvent(util.LOG_LEVEL_ERROR, "Method Not Allowed. Only GET requests are supported", http.StatusMethodNotAllowed)
	f.Response.WriteErrorResponse(w, ErrMethodNotAllowed, http.StatusMethodNotAllowed)
	return false
}

// routeKey reads {key}. The router runs with encoded paths so that keys
// containing '/' arrive escaped and are decoded here.
func routeKey(r *http.Request) (string, error) {
	raw := mux.Vars(r)["key"]
	key, err := url.PathUnescape(raw)
	if err != nil || key == "" {
		return "", fmt.Errorf("%w: bad function key %q", ErrInvalidParameters, raw)
	}
	return key, nil
}

// parseWindow reads ?window=. Absent means the whole history.
func parseWindow(r *http.Request) (time.Duration, error) {
	raw := r.URL.Query().Get("window")
	if raw == "" {
		return 0, nil
	}
	window, err := time.ParseDuration(raw)
	if err != nil || window <= 0 {
		return 0, fmt.Errorf("%w: got %q", ErrInvalidWindow, raw)
	}
	return window, nil
}
