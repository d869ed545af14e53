// Package api exposes the synchronous classification endpoint and the
// service monitoring routes.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/astrolab/knwatch/internal/domain/model"
)

// Processor classifies one alert batch into an aligned verdict vector.
type Processor interface {
	Process(ctx context.Context, b *model.Batch) ([]bool, error)
}

// Server wires the HTTP routes for the classification API.
type Server struct {
	classifyHandler *ClassifyHandler
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
}

// NewServer creates an API server over the given processor.
func NewServer(p Processor, stats StatsProvider) *Server {
	return &Server{
		classifyHandler: NewClassifyHandler(p),
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(stats),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/classify", MetricsMiddleware(s.classifyHandler.HandleClassify, "classify"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
}

type classifyResponse struct {
	Verdicts []bool `json:"verdicts"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
