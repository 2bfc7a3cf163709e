// Package metrics exposes Prometheus metrics and a health endpoint for the
// trainer gateway.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the trainer.
type Metrics struct {
	ActionsTotal    *prometheus.CounterVec // labels: action
	ActionsAbsorbed *prometheus.CounterVec // labels: action — precondition no-ops
	TradesTotal     prometheus.Counter
	ClosedTrades    prometheus.Counter
	DatasetsLoaded  prometheus.Counter

	SnapshotBuildDur prometheus.Histogram
	BroadcastDrops   prometheus.Counter

	WSClients        prometheus.Gauge
	IntentsThrottled prometheus.Counter

	EntitlementFlips prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trainer_actions_total",
			Help: "Simulation actions dispatched (by action type)",
		}, []string{"action"}),
		ActionsAbsorbed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trainer_actions_absorbed_total",
			Help: "Actions absorbed as no-ops due to failed preconditions",
		}, []string{"action"}),
		TradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainer_trades_total",
			Help: "Lots opened by trade intents",
		}),
		ClosedTrades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainer_closed_trades_total",
			Help: "Closed trades emitted by FIFO position closes",
		}),
		DatasetsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainer_datasets_loaded_total",
			Help: "Candle datasets loaded into the simulation",
		}),
		SnapshotBuildDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trainer_snapshot_build_duration_seconds",
			Help:    "Derived snapshot build latency per action",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		BroadcastDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainer_broadcast_drops_total",
			Help: "Snapshots dropped because a client send buffer was full",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainer_ws_clients",
			Help: "Currently connected WebSocket clients",
		}),
		IntentsThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainer_intents_throttled_total",
			Help: "Client intents rejected by the per-client rate limiter",
		}),
		EntitlementFlips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainer_entitlement_flips_total",
			Help: "Premium flag changes received from the billing sync",
		}),
	}

	prometheus.MustRegister(
		m.ActionsTotal,
		m.ActionsAbsorbed,
		m.TradesTotal,
		m.ClosedTrades,
		m.DatasetsLoaded,
		m.SnapshotBuildDur,
		m.BroadcastDrops,
		m.WSClients,
		m.IntentsThrottled,
		m.EntitlementFlips,
	)
	return m
}

// HealthStatus tracks dependency health for the /healthz endpoint.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected bool `json:"redis_connected"`
	SQLiteOK       bool `json:"sqlite_ok"`

	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status. Dependencies start
// healthy; disabled ones are never probed and stay that way.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt:      time.Now(),
		RedisConnected: true,
		SQLiteOK:       true,
	}
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the dataset store and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. Either dependency
// may be nil when disabled by configuration.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.RedisConnected || !h.SQLiteOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
