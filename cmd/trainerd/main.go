// cmd/trainerd runs the trainer gateway: the replay simulation session, its
// WebSocket/REST surface, the entitlement watcher, the dataset store, and
// the metrics server.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/rising-stones13/chart-trade-trainer/config"
	"github.com/rising-stones13/chart-trade-trainer/internal/entitlement"
	"github.com/rising-stones13/chart-trade-trainer/internal/gateway"
	"github.com/rising-stones13/chart-trade-trainer/internal/logger"
	"github.com/rising-stones13/chart-trade-trainer/internal/metrics"
	"github.com/rising-stones13/chart-trade-trainer/internal/session"
	"github.com/rising-stones13/chart-trade-trainer/internal/sim"
	sqlitestore "github.com/rising-stones13/chart-trade-trainer/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	logger.Init("trainerd", slog.LevelInfo)

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[trainerd] shutdown signal received")
		cancel()
	}()

	m := metrics.NewMetrics()

	sess := session.New(cfg.TradeSize, cfg.PremiumDefault)
	sess.OnAction = func(name string, applied bool) {
		m.ActionsTotal.WithLabelValues(name).Inc()
		if !applied {
			m.ActionsAbsorbed.WithLabelValues(name).Inc()
			return
		}
		switch name {
		case "trade":
			m.TradesTotal.Inc()
		case "close_position":
			m.ClosedTrades.Inc()
		}
	}

	hub := gateway.NewHub(sess, m)

	// Dataset store (optional)
	var store *sqlitestore.Store
	if cfg.SQLitePath != "" {
		var err error
		store, err = sqlitestore.New(sqlitestore.StoreConfig{DBPath: cfg.SQLitePath})
		if err != nil {
			log.Fatalf("[trainerd] sqlite open failed: %v", err)
		}
		defer store.Close()
	}

	// Entitlement sync (optional — without Redis the configured default
	// tier stays in force)
	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Fatalf("[trainerd] redis ping failed: %v", err)
		}
		pingCancel()

		watcher := entitlement.NewWatcher(rdb, cfg.EntitlementKey)
		watcher.OnChange = func(premium bool) {
			m.EntitlementFlips.Inc()
			sess.Dispatch(sim.SetEntitlement{Premium: premium})
		}
		if premium, ok := watcher.Load(ctx); ok {
			sess.Dispatch(sim.SetEntitlement{Premium: premium})
		}
		go watcher.Run(ctx)
	}

	// Metrics + health server
	health := metrics.NewHealthStatus()
	if store != nil {
		health.StartLivenessChecker(ctx, rdb, store.DB(), 15*time.Second)
	} else {
		health.StartLivenessChecker(ctx, rdb, nil, 15*time.Second)
	}
	msrv := metrics.NewServer(cfg.MetricsAddr, health)
	msrv.Start()

	// Gateway server
	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, hub, store)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Printf("[trainerd] gateway listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[trainerd] server error: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	msrv.Stop(shutdownCtx)
	log.Println("[trainerd] stopped")
}
