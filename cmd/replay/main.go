// cmd/replay runs a scripted replay against a price file without the
// gateway: load, start at a date, step forward, optionally opening a lot
// every N days and closing everything at the end. Useful for validating a
// dataset and eyeballing P&L behavior from the terminal.
//
// Usage:
//
//	go run ./cmd/replay --file=prices.csv --start=2020-01-02 --days=60 --buy-every=10
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rising-stones13/chart-trade-trainer/internal/ingest"
	"github.com/rising-stones13/chart-trade-trainer/internal/ledger"
	"github.com/rising-stones13/chart-trade-trainer/internal/model"
	"github.com/rising-stones13/chart-trade-trainer/internal/session"
	"github.com/rising-stones13/chart-trade-trainer/internal/sim"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	file := flag.String("file", "", "Price file (CSV or vendor JSON)")
	start := flag.String("start", "", "Replay start date (YYYY-MM-DD, default: first bar)")
	days := flag.Int("days", 30, "Days to step through")
	buyEvery := flag.Int("buy-every", 0, "Open a long lot every N days (0 = never)")
	side := flag.String("side", "long", "Trade side: long or short")
	size := flag.Float64("size", sim.DefaultTradeSize, "Lot size per trade")
	premium := flag.Bool("premium", false, "Run with premium entitlement")
	flag.Parse()

	if *file == "" {
		log.Fatal("[replay] --file is required")
	}

	ds, err := loadFile(*file)
	if err != nil {
		log.Fatalf("[replay] load failed: %v", err)
	}
	log.Printf("[replay] loaded %q: %d bars (%s .. %s)", ds.Title, len(ds.Candles),
		ds.Candles[0].DateKey(), ds.Candles[len(ds.Candles)-1].DateKey())

	startDate := ds.Candles[0].Time
	if *start != "" {
		startDate, err = time.Parse("2006-01-02", *start)
		if err != nil {
			log.Fatalf("[replay] bad --start date: %v", err)
		}
	}

	tradeSide := model.Side(*side)
	if tradeSide != model.SideLong && tradeSide != model.SideShort {
		log.Fatalf("[replay] bad --side %q", *side)
	}

	sess := session.New(*size, *premium)
	sess.Dispatch(sim.LoadData{Candles: ds.Candles, Title: ds.Title})

	snap := sess.Dispatch(sim.StartReplay{Date: startDate})
	if snap.Phase != sim.PhaseReplaying.String() {
		log.Fatalf("[replay] no bar at or after %s", startDate.Format("2006-01-02"))
	}
	log.Printf("[replay] replay starts at %s", snap.ReplayDate)

	for day := 1; day <= *days; day++ {
		snap = sess.Dispatch(sim.AdvanceDay{})
		if snap.Phase != sim.PhaseReplaying.String() {
			log.Printf("[replay] end of data after %d days", day)
			break
		}
		if *buyEvery > 0 && day%(*buyEvery) == 0 {
			snap = sess.Dispatch(sim.Trade{Side: tradeSide})
			bar := snap.Candles[len(snap.Candles)-1]
			log.Printf("[replay] day %3d %s: opened %s %.0f @ %.2f", day, snap.ReplayDate, tradeSide, *size, bar.Close)
		}
	}

	// Close everything still open at the final mark.
	st := sess.State()
	if pos, ok := ledger.Get(st.Positions, tradeSide); ok {
		snap = sess.Dispatch(sim.ClosePosition{Side: tradeSide, Amount: pos.TotalSize})
	}

	printSummary(snap)
}

func loadFile(path string) (ingest.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ingest.Dataset{}, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ingest.ParseJSON(data)
	}
	candles, err := ingest.ParseCSV(strings.NewReader(string(data)))
	if err != nil {
		return ingest.Dataset{}, err
	}
	return ingest.Dataset{Title: filepath.Base(path), Candles: candles}, nil
}

func printSummary(snap session.Snapshot) {
	fmt.Println()
	fmt.Println("closed trades:")
	for _, t := range snap.History {
		fmt.Printf("  %-5s %6.0f  %s %8.2f -> %s %8.2f  profit %10.2f\n",
			t.Side, t.Size,
			t.EntryDate.Format("2006-01-02"), t.EntryPrice,
			t.ExitDate.Format("2006-01-02"), t.ExitPrice,
			t.Profit)
	}
	fmt.Println()
	fmt.Printf("realized P&L:   %12.2f\n", snap.RealizedPL)
	fmt.Printf("unrealized P&L: %12.2f\n", snap.UnrealizedPL)
	fmt.Printf("total P&L:      %12.2f\n", snap.TotalPL)
}
