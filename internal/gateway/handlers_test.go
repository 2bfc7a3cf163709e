package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rising-stones13/chart-trade-trainer/internal/session"
	"github.com/rising-stones13/chart-trade-trainer/internal/sim"
)

const uploadCSV = `Date,Open,High,Low,Close,Volume
2024-01-08,100,105,99,104,120000
2024-01-09,104,110,103,108,150000
2024-01-10,108,109,101,102,95000
`

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	sess := session.New(sim.DefaultTradeSize, false)
	hub := NewHub(sess, nil)
	mux := http.NewServeMux()
	RegisterRoutes(mux, hub, nil)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, hub
}

func decodeSnapshot(t *testing.T, resp *http.Response) session.Snapshot {
	t.Helper()
	defer resp.Body.Close()
	var snap session.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func TestAPIState_Idle(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	snap := decodeSnapshot(t, resp)
	if snap.Phase != "idle" {
		t.Errorf("phase=%q, want idle", snap.Phase)
	}
}

func TestAPILoad_CSV(t *testing.T) {
	srv, hub := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/load?title=ACME", "text/csv", strings.NewReader(uploadCSV))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	snap := decodeSnapshot(t, resp)
	if snap.Phase != "loaded" || snap.Title != "ACME" || len(snap.Candles) != 3 {
		t.Errorf("phase=%q title=%q candles=%d", snap.Phase, snap.Title, len(snap.Candles))
	}

	// The session itself now holds the data.
	if got := hub.Session.Snapshot().Title; got != "ACME" {
		t.Errorf("session title=%q", got)
	}
}

func TestAPILoad_JSONSniffedWithoutContentType(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := `{"meta":{"symbol":"ACME"},"candles":[
	  {"time":"2024-01-08","open":100,"high":105,"low":99,"close":104,"volume":10}
	]}`
	resp, err := http.Post(srv.URL+"/api/load", "application/octet-stream", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	snap := decodeSnapshot(t, resp)
	if snap.Phase != "loaded" || snap.Title != "ACME" {
		t.Errorf("phase=%q title=%q", snap.Phase, snap.Title)
	}
}

func TestAPILoad_RejectsGarbage(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/load", "text/csv", strings.NewReader("no header here"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status=%d, want 400", resp.StatusCode)
	}
}

func TestAPILoad_GETNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/load")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status=%d, want 405", resp.StatusCode)
	}
}

func TestAPIDatasets_EmptyWithoutStore(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/datasets")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	var infos []interface{}
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 0 {
		t.Errorf("infos=%v, want empty list", infos)
	}
}

func TestAPIDatasetsLoad_UnknownWithoutStore(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/datasets/load?name=x", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status=%d, want 404", resp.StatusCode)
	}
}
