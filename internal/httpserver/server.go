// Package httpserver exposes the webhook over HTTP.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voice-lead-agent/internal/logging"
	"voice-lead-agent/internal/webhook"
)

const (
	CorrelationHeader = "X-Correlation-Id"
	maxBodyBytes      = 1 << 20
)

// Processor is satisfied by *webhook.Processor.
type Processor interface {
	Process(ctx context.Context, body []byte) webhook.Response
}

// NewRouter builds the HTTP surface: POST /webhook, GET /healthz and, when
// gatherer is non-nil, GET /metrics.
func NewRouter(p Processor, logger *slog.Logger, gatherer prometheus.Gatherer) (http.Handler, error) {
	if p == nil {
		return nil, errors.New("httpserver: processor must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(correlation(logger))

	r.Post("/webhook", webhookHandler(p))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r, nil
}

// webhookHandler always answers 200 with a JSON body. The voice platform reads
// end_call to decide whether to hang up, so failures are carried in the body.
func webhookHandler(p Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp webhook.Response
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			logging.FromContext(r.Context(), nil).Error("read webhook body", "err", err)
			resp = webhook.Apology()
		} else {
			resp = p.Process(r.Context(), body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// correlation reuses the caller's X-Correlation-Id or mints one, echoes it on
// the response, and stores a request-scoped logger in the context. It runs
// after middleware.RealIP so remote_addr is the client behind the proxy.
func correlation(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(CorrelationHeader))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(CorrelationHeader, id)

			logger := base.With("correlation_id", id, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			start := time.Now()
			next.ServeHTTP(w, r.WithContext(logging.WithContext(r.Context(), logger)))
			logger.Debug("request done", "method", r.Method, "duration", time.Since(start))
		})
	}
}

// Server wraps http.Server with context-driven shutdown.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer listens on addr once Run is called. A nil logger falls back to
// slog.Default.
func NewServer(addr string, h http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
