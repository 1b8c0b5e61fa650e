package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// StartMetricsHTTP starts a lightweight HTTP server that exposes /metrics
// in Prometheus text exposition format. It runs in the background and
// shuts down when the server context is cancelled.
func (s *Server) StartMetricsHTTP() {
	addr := s.cfg.MetricsAddr
	if addr == "" {
		return // metrics endpoint disabled
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("metrics HTTP listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics HTTP error", "err", err)
		}
	}()

	go func() {
		<-s.ctx.Done()
		_ = srv.Close()
	}()
}

// handleMetrics writes all metrics in Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m := s.metrics
	uptime := time.Since(m.startTime).Seconds()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	// Write errors to http.ResponseWriter are non-actionable; suppress errcheck.
	write := func(name, help, mtype string, value int64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %d\n", name, value)
	}

	_, _ = fmt.Fprintf(w, "# HELP coordchat_uptime_seconds Server uptime in seconds.\n")
	_, _ = fmt.Fprintf(w, "# TYPE coordchat_uptime_seconds gauge\n")
	_, _ = fmt.Fprintf(w, "coordchat_uptime_seconds %f\n", uptime)

	write("coordchat_connections_active", "Current open connections.", "gauge",
		m.ActiveConnections.Load())
	write("coordchat_connections_total", "Lifetime TCP connections accepted.", "counter",
		m.TotalConnections.Load())
	write("coordchat_disconnects_total", "Total client disconnects.", "counter",
		m.TotalDisconnects.Load())

	write("coordchat_registrations_total", "Successful name registrations.", "counter",
		m.Registrations.Load())
	write("coordchat_registrations_rejected_total", "Handshakes rejected for an empty or duplicate name.", "counter",
		m.RejectedRegistrations.Load())

	write("coordchat_broadcasts_total", "Chat lines fanned out to all sessions.", "counter",
		m.BroadcastsSent.Load())
	write("coordchat_privates_total", "Private messages delivered.", "counter",
		m.PrivatesSent.Load())
	write("coordchat_private_misses_total", "Private messages addressed to unknown recipients.", "counter",
		m.PrivateTargetMisses.Load())

	write("coordchat_detail_requests_total", "/rmd commands received.", "counter",
		m.DetailRequests.Load())
	write("coordchat_detail_approvals_total", "Detail requests fulfilled via ACCEPT.", "counter",
		m.DetailApprovals.Load())
	write("coordchat_detail_denials_total", "Detail requests refused via DENY.", "counter",
		m.DetailDenials.Load())
	write("coordchat_coordinator_changes_total", "Re-elections after a coordinator left.", "counter",
		m.CoordinatorChanges.Load())
}
