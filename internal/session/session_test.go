package session

import (
	"testing"
	"time"

	"github.com/rising-stones13/chart-trade-trainer/internal/model"
	"github.com/rising-stones13/chart-trade-trainer/internal/sim"
)

func series(n int) []model.Candle {
	out := make([]model.Candle, n)
	start := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	for i := range out {
		c := 100 + float64(i)
		out[i] = model.Candle{
			Time: start.AddDate(0, 0, i),
			Open: c, High: c + 1, Low: c - 1, Close: c,
			Volume: 500,
		}
	}
	return out
}

func loadedSession(t *testing.T, premium bool, bars int) *Session {
	t.Helper()
	sess := New(sim.DefaultTradeSize, premium)
	snap := sess.Dispatch(sim.LoadData{Candles: series(bars), Title: "TEST"})
	if snap.Phase != "loaded" {
		t.Fatalf("setup: phase=%q", snap.Phase)
	}
	return sess
}

func TestSnapshot_InitialIdle(t *testing.T) {
	sess := New(sim.DefaultTradeSize, false)
	snap := sess.Snapshot()

	if snap.Phase != "idle" {
		t.Errorf("phase=%q, want idle", snap.Phase)
	}
	if snap.Title != sim.DefaultTitle {
		t.Errorf("title=%q", snap.Title)
	}
	if len(snap.MAs) != 5 {
		t.Errorf("mas=%d, want the 5 default overlays", len(snap.MAs))
	}
	if snap.RSI != nil || snap.MACD != nil {
		t.Error("premium panels hidden by default")
	}
	if !snap.ShowVolume || snap.Premium {
		t.Errorf("show_volume=%v premium=%v", snap.ShowVolume, snap.Premium)
	}
}

func TestSnapshot_SeriesFollowVisibleWindow(t *testing.T) {
	sess := loadedSession(t, false, 30)
	snap := sess.Dispatch(sim.StartReplay{Date: time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)})

	// 2024-01-17 is bar index 9, so 10 bars are visible.
	if len(snap.Candles) != 10 {
		t.Fatalf("candles=%d, want 10", len(snap.Candles))
	}
	for _, ma := range snap.MAs {
		if len(ma.Points) != 10 {
			t.Errorf("MA(%d) points=%d, want aligned with 10 visible bars", ma.Period, len(ma.Points))
		}
	}
	if snap.ReplayDate != "2024-01-17" {
		t.Errorf("replay_date=%q", snap.ReplayDate)
	}

	snap = sess.Dispatch(sim.AdvanceDay{})
	if len(snap.Candles) != 11 {
		t.Errorf("candles=%d after advance, want 11", len(snap.Candles))
	}
}

func TestSnapshot_MAsSortedAndFiltered(t *testing.T) {
	sess := loadedSession(t, false, 30)
	snap := sess.Dispatch(sim.ToggleMA{Period: 20})

	if len(snap.MAs) != 4 {
		t.Fatalf("mas=%d, want 4 after hiding one", len(snap.MAs))
	}
	for i := 1; i < len(snap.MAs); i++ {
		if snap.MAs[i].Period < snap.MAs[i-1].Period {
			t.Fatal("MA overlays must be ordered by period")
		}
	}
	for _, ma := range snap.MAs {
		if ma.Period == 20 {
			t.Error("hidden MA(20) leaked into the snapshot")
		}
	}
}

func TestSnapshot_PremiumPanels(t *testing.T) {
	sess := loadedSession(t, true, 60)

	snap := sess.Dispatch(sim.ToggleRSI{})
	if len(snap.RSI) != 60 {
		t.Errorf("rsi=%d points, want aligned with 60 bars", len(snap.RSI))
	}
	snap = sess.Dispatch(sim.ToggleMACD{})
	if len(snap.MACD) != 60 {
		t.Errorf("macd=%d points, want aligned with 60 bars", len(snap.MACD))
	}

	snap = sess.Dispatch(sim.SetEntitlement{Premium: false})
	if snap.RSI != nil || snap.MACD != nil {
		t.Error("entitlement revoke must drop premium panels from the snapshot")
	}
}

func TestSnapshot_WeeklyDerivedFromVisible(t *testing.T) {
	sess := loadedSession(t, false, 30)
	full := sess.Snapshot()

	snap := sess.Dispatch(sim.StartReplay{Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)})
	if len(snap.Weekly) >= len(full.Weekly) {
		t.Errorf("weekly=%d during early replay, want fewer than the full %d", len(snap.Weekly), len(full.Weekly))
	}
}

func TestSnapshot_PnLTotals(t *testing.T) {
	sess := loadedSession(t, false, 10)
	sess.Dispatch(sim.StartReplay{Date: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)})
	sess.Dispatch(sim.Trade{Side: model.SideLong}) // 100 @ 100
	sess.Dispatch(sim.AdvanceDay{})                // mark 101
	snap := sess.Dispatch(sim.ClosePosition{Side: model.SideLong, Amount: 40})

	if snap.RealizedPL != 40 || snap.UnrealizedPL != 60 {
		t.Errorf("realized=%v unrealized=%v, want 40/60", snap.RealizedPL, snap.UnrealizedPL)
	}
	if snap.TotalPL != snap.RealizedPL+snap.UnrealizedPL {
		t.Errorf("total=%v, want realized+unrealized", snap.TotalPL)
	}
	if len(snap.History) != 1 || len(snap.Positions) != 1 {
		t.Errorf("history=%d positions=%d", len(snap.History), len(snap.Positions))
	}
}

func TestDispatch_Hooks(t *testing.T) {
	sess := New(sim.DefaultTradeSize, false)

	var names []string
	var applied []bool
	var snaps int
	sess.OnAction = func(name string, ok bool) {
		names = append(names, name)
		applied = append(applied, ok)
	}
	sess.OnSnapshot = func(Snapshot) { snaps++ }

	sess.Dispatch(sim.LoadData{Candles: series(5), Title: "T"})
	sess.Dispatch(sim.AdvanceDay{}) // absorbed: not replaying

	if len(names) != 2 || names[0] != "load_data" || names[1] != "advance_day" {
		t.Errorf("names=%v", names)
	}
	if !applied[0] || applied[1] {
		t.Errorf("applied=%v, want [true false]", applied)
	}
	if snaps != 2 {
		t.Errorf("snapshots=%d, want one per dispatch", snaps)
	}
}
