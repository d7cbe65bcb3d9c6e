package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"perftracker/internal/domain"
	"perftracker/internal/endpoints"
	"perftracker/internal/tracker"
	"perftracker/internal/util"
)

const RequestIDHeader = "X-Request-ID"

// NewRouter serves the read-only ledger API. When t is non-nil each routed
// request is also timed into t under "http <METHOD> <route template>".
func NewRouter(ledger domain.Ledger, t *tracker.Tracker, logger *util.PerfLogger) *mux.Router {
	r := mux.NewRouter()
	r.UseEncodedPath()

	addRoutes(r, ledger, logger)

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	if t != nil {
		r.Use(timingMiddleware(t))
	}
	return r
}

func addRoutes(r *mux.Router, ledger domain.Ledger, logger *util.PerfLogger) {
	functions := &endpoints.Functions{}
	functions.Init(ledger, logger)

	r.HandleFunc("/functions", functions.ListHandler).Methods(http.MethodGet)
	r.HandleFunc("/functions/{key}/records", functions.RecordsHandler).Methods(http.MethodGet)
	r.HandleFunc("/functions/{key}/stats", functions.StatsHandler).Methods(http.MethodGet)
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Run serves handler on addr until SIGINT/SIGTERM, then shuts down within
// shutdownTimeout.
func Run(addr string, handler http.Handler, shutdownTimeout time.Duration, logger *util.PerfLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, NewServer(addr, handler), shutdownTimeout, logger)
}

func serve(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, logger *util.PerfLogger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.LogEvent(util.LOG_LEVEL_INFO, "Listening on", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", server.Addr, err)
	case <-ctx.Done():
	}

	logger.LogEvent(util.LOG_LEVEL_INFO, "Shutting down server...")
	if err := gracefulShutdown(server, shutdownTimeout); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	logger.LogEvent(util.LOG_LEVEL_INFO, "Server stopped gracefully.")
	return nil
}

func gracefulShutdown(server *http.Server, maximumTime time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), maximumTime)
	defer cancel()

	return server.Shutdown(ctx)
}

// requestIDMiddleware keeps a caller supplied request id or assigns one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger *util.PerfLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.LogEvent(util.LOG_LEVEL_INFO, fmt.Sprintf("Request: %s %s id=%s", r.Method, r.RequestURI, r.Header.Get(RequestIDHeader)))
			next.ServeHTTP(w, r)
		})
	}
}

func timingMiddleware(t *tracker.Tracker) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Track(routeKey(r), func() { next.ServeHTTP(w, r) })
		})
	}
}

func routeKey(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return "http " + r.Method + " " + tpl
		}
	}
	return "http " + r.Method + " " + r.URL.Path
}
