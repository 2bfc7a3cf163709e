package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rising-stones13/chart-trade-trainer/internal/ingest"
	"github.com/rising-stones13/chart-trade-trainer/internal/logger"
	"github.com/rising-stones13/chart-trade-trainer/internal/sim"
	sqlitestore "github.com/rising-stones13/chart-trade-trainer/internal/store/sqlite"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// RegisterRoutes registers all HTTP routes on the provided mux. store may
// be nil when dataset persistence is disabled.
func RegisterRoutes(mux *http.ServeMux, hub *Hub, store *sqlitestore.Store) {
	// WebSocket endpoint: intents in, snapshots out
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		ctx := logger.WithSessionID(r.Context(), logger.GenerateSessionID(r.RemoteAddr, time.Now()))
		slog.Info("ws session opened", logger.LogWithSession(ctx)...)
		NewClient(hub, conn).Run()
		slog.Info("ws session closed", logger.LogWithSession(ctx)...)
	})

	// REST: current derived state
	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(hub.Session.Snapshot())
	})

	// REST: upload a price payload (CSV or vendor JSON). Query params:
	//   title — display title override (CSV has none of its own)
	//   save  — dataset name to persist the parsed series under
	mux.HandleFunc("/api/load", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, `{"error":"POST only"}`, http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 32<<20))
		if err != nil {
			http.Error(w, `{"error":"read body"}`, http.StatusBadRequest)
			return
		}

		ds, err := parsePayload(r.Header.Get("Content-Type"), body)
		if err != nil {
			log.Printf("[gateway] load rejected: %v", err)
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}
		if t := r.URL.Query().Get("title"); t != "" {
			ds.Title = t
		}

		if name := r.URL.Query().Get("save"); name != "" && store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
			defer cancel()
			if err := store.Save(ctx, name, ds); err != nil {
				log.Printf("[gateway] WARNING: dataset save failed: %v", err)
			}
		}

		hub.Dispatch(sim.LoadData{Candles: ds.Candles, Title: ds.Title})
		if hub.Metrics != nil {
			hub.Metrics.DatasetsLoaded.Inc()
		}
		json.NewEncoder(w).Encode(hub.Session.Snapshot())
	})

	// REST: stored datasets
	mux.HandleFunc("/api/datasets", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		if store == nil {
			json.NewEncoder(w).Encode([]sqlitestore.DatasetInfo{})
			return
		}
		infos, err := store.List(r.Context())
		if err != nil {
			http.Error(w, `{"error":"list datasets"}`, http.StatusInternalServerError)
			return
		}
		if infos == nil {
			infos = []sqlitestore.DatasetInfo{}
		}
		json.NewEncoder(w).Encode(infos)
	})

	// REST: load a stored dataset into the session
	mux.HandleFunc("/api/datasets/load", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodPost {
			http.Error(w, `{"error":"POST only"}`, http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Query().Get("name")
		if name == "" || store == nil {
			http.Error(w, `{"error":"unknown dataset"}`, http.StatusNotFound)
			return
		}
		ds, err := store.Load(r.Context(), name)
		if err != nil {
			http.Error(w, `{"error":"unknown dataset"}`, http.StatusNotFound)
			return
		}
		hub.Dispatch(sim.LoadData{Candles: ds.Candles, Title: ds.Title})
		if hub.Metrics != nil {
			hub.Metrics.DatasetsLoaded.Inc()
		}
		json.NewEncoder(w).Encode(hub.Session.Snapshot())
	})
}

// parsePayload picks the parser from the content type, falling back to
// sniffing: vendor exports are JSON objects, everything else is tried as CSV.
func parsePayload(contentType string, body []byte) (ingest.Dataset, error) {
	switch {
	case strings.Contains(contentType, "json"):
		return ingest.ParseJSON(body)
	case strings.Contains(contentType, "csv"):
		return parseCSVPayload(body)
	}
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return ingest.ParseJSON(body)
	}
	return parseCSVPayload(body)
}

func parseCSVPayload(body []byte) (ingest.Dataset, error) {
	candles, err := ingest.ParseCSV(bytes.NewReader(body))
	if err != nil {
		return ingest.Dataset{}, err
	}
	return ingest.Dataset{Title: sim.DefaultTitle, Candles: candles}, nil
}
