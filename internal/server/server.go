// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"agri-officer/internal/common/config"
	"agri-officer/internal/common/logger"
	"agri-officer/internal/common/observability"
	"agri-officer/internal/diagnosis"
	"agri-officer/internal/orchestrator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Responder answers a conversation in the requested language.
type Responder interface {
	Respond(ctx context.Context, history []orchestrator.Turn, lang string) (string, error)
}

// Adviser produces a diagnosis advisory for an uploaded image.
type Adviser interface {
	Advise(ctx context.Context, imagePath, lang string) (*diagnosis.Advisory, error)
}

// Server owns the HTTP surface: the chat and diagnose endpoints plus
// health and metrics.
type Server struct {
	config    config.ServerConfig
	responder Responder
	adviser   Adviser
	obs       *observability.Observability
	logger    logger.Logger
}

func New(cfg config.ServerConfig, responder Responder, adviser Adviser, obs *observability.Observability, log logger.Logger) *Server {
	return &Server{
		config:    cfg,
		responder: responder,
		adviser:   adviser,
		obs:       obs,
		logger:    log,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/diagnose", s.handleDiagnose)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", s.metricsHandler())
	return mux
}

// metricsHandler serves the process-wide counters together with the otel
// metrics from this server's observability registry.
func (s *Server) metricsHandler() http.Handler {
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer}
	if g := s.obs.Gatherer(); g != nil {
		gatherers = append(gatherers, g)
	}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

// HTTPServer wraps the handler in a configured http.Server.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.config.Address,
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Millisecond,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}
