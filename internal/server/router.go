package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/adamehabm/Numerical-Project/internal/config"
	"github.com/adamehabm/Numerical-Project/internal/sse"
)

// Server runs solver jobs in the background and streams their iterations.
type Server struct {
	cfg     config.SolverConfig
	log     *zap.Logger
	runs    *Registry
	hub     *sse.Hub
	metrics *Metrics
	limiter *limiter
	now     func() time.Time
}

// New creates a server from cfg. A nil logger disables logging.
func New(cfg *config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:     cfg.Solver,
		log:     log,
		runs:    NewRegistry(),
		hub:     sse.NewHub(),
		metrics: NewMetrics(),
		now:     time.Now,
	}
	if cfg.RateLimit.Enabled {
		s.limiter = newLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	return s
}

// Routes returns the HTTP handler of the API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/start", s.limit(s.StartRun))
	mux.HandleFunc("/stop", s.StopRun)
	mux.HandleFunc("/stream", s.Stream)
	mux.HandleFunc("/export", s.ExportCSV)
	mux.HandleFunc("/runs", s.GetRun)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

// Runs exposes the run registry.
func (s *Server) Runs() *Registry { return s.runs }
