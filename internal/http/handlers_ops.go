package http

import (
	"fmt"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// handleReady probes the credential database; the CSV store needs no
// standing connection.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.creds.UserCount(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ready")
}

// handleMetrics exposes process counters in the plain text exposition
// format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	hits, misses := s.records.CacheStats()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "finboard_uptime_seconds %d\n", int64(time.Since(s.metrics.started).Seconds()))
	fmt.Fprintf(w, "finboard_http_requests_total %d\n", s.metrics.requests.Load())
	fmt.Fprintf(w, "finboard_rows_appended_total %d\n", s.metrics.rowsAppended.Load())
	fmt.Fprintf(w, "finboard_imports_total %d\n", s.metrics.imports.Load())
	fmt.Fprintf(w, "finboard_cache_hits_total %d\n", hits)
	fmt.Fprintf(w, "finboard_cache_misses_total %d\n", misses)
	fmt.Fprintf(w, "finboard_active_sessions %d\n", s.sessions.ActiveSessions())
}
