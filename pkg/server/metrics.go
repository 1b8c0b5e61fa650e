package server

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics tracks server runtime statistics.
// All counters use atomic operations for lock-free concurrent access.
type Metrics struct {
	startTime time.Time

	// Connection counters
	TotalConnections      atomic.Int64 // lifetime TCP connections accepted
	ActiveConnections     atomic.Int64 // current open connections
	Registrations         atomic.Int64 // successful name registrations
	RejectedRegistrations atomic.Int64 // handshakes rejected (empty/duplicate name)
	TotalDisconnects      atomic.Int64 // total disconnects (clean + unclean)

	// Message counters
	BroadcastsSent      atomic.Int64 // chat lines fanned out to all sessions
	PrivatesSent        atomic.Int64 // private messages delivered
	PrivateTargetMisses atomic.Int64 // private messages to unknown recipients

	// Governance counters
	DetailRequests     atomic.Int64 // /rmd commands received
	DetailApprovals    atomic.Int64 // pending requests fulfilled via ACCEPT
	DetailDenials      atomic.Int64 // pending requests refused via DENY
	CoordinatorChanges atomic.Int64 // re-elections after a coordinator left
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// MetricsSnapshot is a point-in-time view of all metrics as a serializable struct.
type MetricsSnapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	ActiveConnections     int64 `json:"active_connections"`
	TotalConnections      int64 `json:"total_connections"`
	Registrations         int64 `json:"registrations"`
	RejectedRegistrations int64 `json:"rejected_registrations"`
	TotalDisconnects      int64 `json:"total_disconnects"`

	BroadcastsSent      int64 `json:"broadcasts_sent"`
	PrivatesSent        int64 `json:"privates_sent"`
	PrivateTargetMisses int64 `json:"private_target_misses"`

	DetailRequests     int64 `json:"detail_requests"`
	DetailApprovals    int64 `json:"detail_approvals"`
	DetailDenials      int64 `json:"detail_denials"`
	CoordinatorChanges int64 `json:"coordinator_changes"`
}

// Snapshot returns a read-consistent snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	uptime := time.Since(m.startTime)
	return MetricsSnapshot{
		Uptime:                uptime.Truncate(time.Second).String(),
		UptimeSeconds:         int64(uptime.Seconds()),
		ActiveConnections:     m.ActiveConnections.Load(),
		TotalConnections:      m.TotalConnections.Load(),
		Registrations:         m.Registrations.Load(),
		RejectedRegistrations: m.RejectedRegistrations.Load(),
		TotalDisconnects:      m.TotalDisconnects.Load(),
		BroadcastsSent:        m.BroadcastsSent.Load(),
		PrivatesSent:          m.PrivatesSent.Load(),
		PrivateTargetMisses:   m.PrivateTargetMisses.Load(),
		DetailRequests:        m.DetailRequests.Load(),
		DetailApprovals:       m.DetailApprovals.Load(),
		DetailDenials:         m.DetailDenials.Load(),
		CoordinatorChanges:    m.CoordinatorChanges.Load(),
	}
}

// JSON returns the metrics snapshot as a JSON string.
func (m *Metrics) JSON() string {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// LogSummary writes a periodic metrics summary to the logger.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	slog.Info("metrics",
		"uptime", s.Uptime,
		"connections", s.ActiveConnections,
		"total_connections", s.TotalConnections,
		"broadcasts", s.BroadcastsSent,
		"privates", s.PrivatesSent,
		"detail_requests", s.DetailRequests,
		"coordinator_changes", s.CoordinatorChanges,
	)
}

// StartPeriodicLog starts a goroutine that logs metrics every interval.
// It stops when the done channel is closed.
func (m *Metrics) StartPeriodicLog(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.LogSummary()
			}
		}
	}()
}
