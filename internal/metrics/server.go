package metrics

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// StatsFunc supplies the point-in-time broker counts the admin server
// reports on /stats; the engine provides the closure since only it can
// answer these without a lock.
type StatsFunc func() Snapshot

// Snapshot is a point-in-time view of broker state for the admin API.
type Snapshot struct {
	ClientsConnected int       `json:"clients_connected"`
	ClientsLost      int       `json:"clients_lost"`
	TopicsActive     int       `json:"topics_active"`
	Uptime           string    `json:"uptime"`
	StartedAt        time.Time `json:"started_at"`
	CapturedAt       time.Time `json:"captured_at"`
}

// NewAdminServer builds the chi router backing the broker's optional
// admin HTTP surface: Prometheus scrape endpoint, liveness probe, and a
// human-readable stats snapshot. history may be nil, in which case
// /stats/history responds with an empty list.
func NewAdminServer(registry *Registry, stats StatsFunc, history *History) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats())
	})

	r.Get("/stats/history", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		recent := []Snapshot{}
		if history != nil {
			recent = history.Recent(50)
		}
		_ = json.NewEncoder(w).Encode(recent)
	})

	r.Mount("/metrics", registry.Handler())

	return r
}
