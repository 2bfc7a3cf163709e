package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rising-stones13/chart-trade-trainer/internal/ingest"
	"github.com/rising-stones13/chart-trade-trainer/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(StoreConfig{DBPath: filepath.Join(t.TempDir(), "datasets.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDataset(title string, bars int) ingest.Dataset {
	ds := ingest.Dataset{Title: title}
	start := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	for i := 0; i < bars; i++ {
		c := 100 + float64(i)
		ds.Candles = append(ds.Candles, model.Candle{
			Time: start.AddDate(0, 0, i),
			Open: c, High: c + 1.5, Low: c - 1.5, Close: c + 0.5,
			Volume: int64(1000 + i),
		})
	}
	return ds
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := testDataset("Acme Corp (ACME)", 5)
	if err := s.Save(ctx, "acme", in); err != nil {
		t.Fatal(err)
	}

	out, err := s.Load(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if out.Title != in.Title {
		t.Errorf("title=%q, want %q", out.Title, in.Title)
	}
	if len(out.Candles) != len(in.Candles) {
		t.Fatalf("candles=%d, want %d", len(out.Candles), len(in.Candles))
	}
	for i := range in.Candles {
		a, b := in.Candles[i], out.Candles[i]
		if !a.Time.Equal(b.Time) || a.Open != b.Open || a.High != b.High ||
			a.Low != b.Low || a.Close != b.Close || a.Volume != b.Volume {
			t.Errorf("candle %d: got %+v, want %+v", i, b, a)
		}
	}
}

func TestStore_SaveReplacesPrevious(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "acme", testDataset("v1", 10)); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, "acme", testDataset("v2", 3)); err != nil {
		t.Fatal(err)
	}

	out, err := s.Load(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if out.Title != "v2" || len(out.Candles) != 3 {
		t.Errorf("title=%q candles=%d, want v2/3", out.Title, len(out.Candles))
	}

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Bars != 3 {
		t.Errorf("infos=%+v, want single entry with 3 bars", infos)
	}
}

func TestStore_List(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "alpha", testDataset("Alpha", 2)); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, "beta", testDataset("Beta", 4)); err != nil {
		t.Fatal(err)
	}

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 {
		t.Fatalf("infos=%d, want 2", len(infos))
	}
	byName := map[string]DatasetInfo{}
	for _, d := range infos {
		byName[d.Name] = d
	}
	if byName["alpha"].Bars != 2 || byName["beta"].Bars != 4 {
		t.Errorf("infos=%+v", infos)
	}
}

func TestStore_LoadUnknown(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Load(context.Background(), "nope"); err == nil {
		t.Error("loading an unknown dataset should fail")
	}
}
