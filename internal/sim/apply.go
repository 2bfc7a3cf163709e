package sim

import (
	"fmt"
	"sort"

	"github.com/rising-stones13/chart-trade-trainer/internal/entitlement"
	"github.com/rising-stones13/chart-trade-trainer/internal/ledger"
	"github.com/rising-stones13/chart-trade-trainer/internal/model"
	"github.com/rising-stones13/chart-trade-trainer/internal/weekly"
)

// Apply is the single transition function of the simulation. It consumes a
// state snapshot and an action and returns the next snapshot. The input is
// never mutated, and every precondition failure returns it unchanged.
func Apply(s State, a Action) State {
	switch a := a.(type) {
	case LoadData:
		return applyLoad(s, a)
	case StartReplay:
		return applyStartReplay(s, a)
	case AdvanceDay:
		return applyAdvance(s)
	case Trade:
		return applyTrade(s, a)
	case ClosePosition:
		return applyClose(s, a)
	case ToggleMA:
		return applyToggleMA(s, a)
	case ToggleRSI:
		if !entitlement.Allowed(entitlement.FeatureRSI, s.Premium) {
			return s
		}
		s.RSI.Visible = !s.RSI.Visible
		return s
	case ToggleMACD:
		if !entitlement.Allowed(entitlement.FeatureMACD, s.Premium) {
			return s
		}
		s.MACD.Visible = !s.MACD.Visible
		return s
	case ToggleVolume:
		s.Volume.Visible = !s.Volume.Visible
		return s
	case ToggleWeekly:
		s.ShowWeekly = !s.ShowWeekly
		return s
	case SetCandleColor:
		return applySetColor(s, a)
	case SetEntitlement:
		return applyEntitlement(s, a)
	}
	return s
}

// applyLoad resets everything except the view configuration, which stays
// with the user across file loads.
func applyLoad(s State, a LoadData) State {
	if len(a.Candles) == 0 {
		return s
	}

	next := NewState(s.TradeSize, s.Premium)
	next.MAs = copyMAs(s.MAs)
	next.RSI = s.RSI
	next.MACD = s.MACD
	next.Volume = s.Volume
	next.ShowWeekly = s.ShowWeekly
	next.UpColor = s.UpColor
	next.DownColor = s.DownColor

	next.Candles = a.Candles
	next.Weekly = weekly.ToWeekly(a.Candles)
	next.Title = a.Title
	next.Phase = PhaseLoaded
	return next
}

func applyStartReplay(s State, a StartReplay) State {
	if s.Phase == PhaseIdle || len(s.Candles) == 0 {
		return s
	}

	// First candle at or after the chosen date; sequence is sorted ascending.
	idx := sort.Search(len(s.Candles), func(i int) bool {
		return !s.Candles[i].Time.Before(a.Date)
	})
	if idx == len(s.Candles) {
		return s
	}

	s.Positions = nil
	s.History = nil
	s.RealizedPL = 0
	s.UnrealizedPL = 0
	s.ReplayIndex = idx
	s.Phase = PhaseReplaying
	return s
}

func applyAdvance(s State) State {
	if s.Phase != PhaseReplaying {
		return s
	}
	if s.ReplayIndex >= len(s.Candles)-1 {
		// Last bar already revealed — the replay ends here.
		s.Phase = PhaseLoaded
		return s
	}
	s.ReplayIndex++
	s.UnrealizedPL = ledger.Unrealized(s.Positions, s.Candles[s.ReplayIndex].Close)
	return s
}

func applyTrade(s State, a Trade) State {
	bar, ok := s.CurrentBar()
	if !ok {
		return s
	}
	feature := entitlement.FeatureLong
	if a.Side == model.SideShort {
		feature = entitlement.FeatureShort
	}
	if !entitlement.Allowed(feature, s.Premium) {
		return s
	}

	s.lotSeq++
	lot := model.Lot{
		ID:    fmt.Sprintf("L%d", s.lotSeq),
		Price: bar.Close,
		Size:  s.TradeSize,
		Date:  bar.Time,
	}
	s.Positions = ledger.Open(s.Positions, a.Side, lot)
	s.UnrealizedPL = ledger.Unrealized(s.Positions, bar.Close)
	return s
}

func applyClose(s State, a ClosePosition) State {
	bar, ok := s.CurrentBar()
	if !ok {
		return s
	}

	positions, trades, ok := ledger.ClosePartial(s.Positions, a.Side, a.Amount, bar.Close, bar.Time)
	if !ok {
		return s
	}

	history := make([]model.ClosedTrade, 0, len(s.History)+len(trades))
	history = append(history, s.History...)
	history = append(history, trades...)

	var realized float64
	for _, t := range trades {
		realized += t.Profit
	}

	s.Positions = positions
	s.History = history
	s.RealizedPL += realized
	s.UnrealizedPL = ledger.Unrealized(positions, bar.Close)
	return s
}

func applyToggleMA(s State, a ToggleMA) State {
	cfg, ok := s.MAs[a.Period]
	if !ok {
		return s
	}
	mas := copyMAs(s.MAs)
	cfg.Visible = !cfg.Visible
	mas[a.Period] = cfg
	s.MAs = mas
	return s
}

func applySetColor(s State, a SetCandleColor) State {
	switch a.Target {
	case "up":
		s.UpColor = a.Color
	case "down":
		s.DownColor = a.Color
	}
	return s
}

// applyEntitlement applies a premium flag change. Losing premium revokes
// RSI and MACD visibility immediately; open short positions are left intact
// so the user can still close them.
func applyEntitlement(s State, a SetEntitlement) State {
	s.Premium = a.Premium
	if !a.Premium {
		s.RSI.Visible = false
		s.MACD.Visible = false
	}
	return s
}
