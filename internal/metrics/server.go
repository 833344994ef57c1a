package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"mediafetch/pkg/fetcher"
	"mediafetch/pkg/logger"
	"mediafetch/pkg/models"
)

// StatusSource reports on the run in progress. *fetcher.Engine implements it.
type StatusSource interface {
	RunID() string
	State() fetcher.State
	Stats() models.RunStats
}

// Status is the body of GET /status.
type Status struct {
	RunID string          `json:"run_id"`
	State string          `json:"state"`
	Stats models.RunStats `json:"stats"`
}

// NewRouter sets up /metrics, /healthz and /status.
func NewRouter(m *Metrics, status StatusSource, log logger.Logger) *mux.Router {
	log = logger.OrDefault(log)

	r := mux.NewRouter()
	r.Use(requestLog(log))

	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			log.WithError(err).Error("write healthz response")
		}
	}).Methods(http.MethodGet)

	r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		if status == nil {
			http.Error(w, "no run", http.StatusServiceUnavailable)
			return
		}
		body := Status{
			RunID: status.RunID(),
			State: status.State().String(),
			Stats: status.Stats(),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.WithError(err).Error("write status response")
		}
	}).Methods(http.MethodGet)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLog(log logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.LogRequest(log, r.Method, r.URL.Path, rec.status, float64(time.Since(start).Microseconds())/1000)
		})
	}
}

// Server is the optional metrics listener.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	done   chan struct{}
	logger logger.Logger
}

// NewServer creates a server for handler on addr. It does not listen yet.
func NewServer(addr string, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		done:   make(chan struct{}),
		logger: logger.OrDefault(log).WithField("component", "metrics"),
	}
}

// Start binds the address and serves in the background. Bind errors are
// returned directly.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}
	s.ln = ln
	logger.LogComponentStart(s.logger, "metrics", map[string]interface{}{"addr": ln.Addr().String()})

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Metrics server stopped")
		}
	}()
	return nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.srv.Addr
	}
	return s.ln.Addr().String()
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.ln == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	<-s.done
	logger.LogComponentStop(s.logger, "metrics", "shutdown")
	return err
}
