package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes configures the application ServeMux: health check, the WebSocket
// chat endpoint, and Prometheus metrics.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.HandleHealth)
	mux.HandleFunc("/chat", s.HandleChat)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
