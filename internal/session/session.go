// Package session owns a single simulation's state and serializes all
// intents through it: one action fully resolves into a new snapshot before
// the next is accepted. It also derives the read-only view consumed by the
// gateway and CLI — visible candle window, weekly view, indicator overlays,
// open positions, trade history, and P&L totals — recomputed from scratch on
// every state change.
package session

import (
	"reflect"
	"sync"

	"github.com/rising-stones13/chart-trade-trainer/internal/indicator"
	"github.com/rising-stones13/chart-trade-trainer/internal/model"
	"github.com/rising-stones13/chart-trade-trainer/internal/sim"
	"github.com/rising-stones13/chart-trade-trainer/internal/weekly"
)

// Session serializes actions against one simulation state.
type Session struct {
	mu    sync.RWMutex
	state sim.State

	// OnSnapshot, when set, receives the derived snapshot after every
	// dispatched action (applied or absorbed).
	OnSnapshot func(Snapshot)

	// OnAction, when set, is invoked per dispatch with the action name and
	// whether the transition changed the state (metrics hook).
	OnAction func(name string, applied bool)
}

// New creates a session in the Idle phase.
func New(tradeSize float64, premium bool) *Session {
	return &Session{state: sim.NewState(tradeSize, premium)}
}

// MASeries is one moving-average overlay ready for charting.
type MASeries struct {
	Period int               `json:"period"`
	Color  string            `json:"color"`
	Points []model.LinePoint `json:"points"`
}

// Snapshot is the derived, read-only view of the simulation handed to
// consumers. All series are computed over the visible candle window only,
// so the chart can never show data the replay has not yet revealed.
type Snapshot struct {
	Phase      string            `json:"phase"`
	Title      string            `json:"title"`
	Candles    []model.Candle    `json:"candles"`
	Weekly     []model.Candle    `json:"weekly"`
	ReplayDate string            `json:"replay_date,omitempty"`
	MAs        []MASeries        `json:"mas"`
	RSI        []model.LinePoint `json:"rsi,omitempty"`
	MACD       []model.MacdPoint `json:"macd,omitempty"`

	Positions []model.Position    `json:"positions"`
	History   []model.ClosedTrade `json:"history"`

	RealizedPL   float64 `json:"realized_pl"`
	UnrealizedPL float64 `json:"unrealized_pl"`
	TotalPL      float64 `json:"total_pl"`

	ShowVolume bool   `json:"show_volume"`
	ShowWeekly bool   `json:"show_weekly"`
	UpColor    string `json:"up_color"`
	DownColor  string `json:"down_color"`
	Premium    bool   `json:"premium"`
}

// Dispatch applies an action and returns the resulting snapshot.
func (s *Session) Dispatch(a sim.Action) Snapshot {
	s.mu.Lock()
	prev := s.state
	s.state = sim.Apply(s.state, a)
	applied := !reflect.DeepEqual(prev, s.state)
	snap := buildSnapshot(&s.state)
	s.mu.Unlock()

	if s.OnAction != nil {
		s.OnAction(actionName(a), applied)
	}
	if s.OnSnapshot != nil {
		s.OnSnapshot(snap)
	}
	return snap
}

// Snapshot derives the current view without applying an action.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return buildSnapshot(&s.state)
}

// State returns a copy of the raw simulation state.
func (s *Session) State() sim.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func buildSnapshot(st *sim.State) Snapshot {
	visible := st.Visible()

	snap := Snapshot{
		Phase:        st.Phase.String(),
		Title:        st.Title,
		Candles:      visible,
		Weekly:       weekly.ToWeekly(visible),
		Positions:    st.Positions,
		History:      st.History,
		RealizedPL:   st.RealizedPL,
		UnrealizedPL: st.UnrealizedPL,
		TotalPL:      st.RealizedPL + st.UnrealizedPL,
		ShowVolume:   st.Volume.Visible,
		ShowWeekly:   st.ShowWeekly,
		UpColor:      st.UpColor,
		DownColor:    st.DownColor,
		Premium:      st.Premium,
	}
	if bar, ok := st.CurrentBar(); ok {
		snap.ReplayDate = bar.DateKey()
	}

	for _, cfg := range sortedMAs(st.MAs) {
		if !cfg.Visible {
			continue
		}
		snap.MAs = append(snap.MAs, MASeries{
			Period: cfg.Period,
			Color:  cfg.Color,
			Points: indicator.SMA(visible, cfg.Period),
		})
	}
	if st.RSI.Visible {
		snap.RSI = indicator.RSI(visible, st.RSI.Period)
	}
	if st.MACD.Visible {
		snap.MACD = indicator.MACD(visible, st.MACD.Fast, st.MACD.Slow, st.MACD.Signal)
	}
	return snap
}

func sortedMAs(mas map[int]sim.MAConfig) []sim.MAConfig {
	out := make([]sim.MAConfig, 0, len(mas))
	for _, cfg := range mas {
		out = append(out, cfg)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Period < out[j-1].Period; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func actionName(a sim.Action) string {
	switch a.(type) {
	case sim.LoadData:
		return "load_data"
	case sim.StartReplay:
		return "start_replay"
	case sim.AdvanceDay:
		return "advance_day"
	case sim.Trade:
		return "trade"
	case sim.ClosePosition:
		return "close_position"
	case sim.ToggleMA:
		return "toggle_ma"
	case sim.ToggleRSI:
		return "toggle_rsi"
	case sim.ToggleMACD:
		return "toggle_macd"
	case sim.ToggleVolume:
		return "toggle_volume"
	case sim.ToggleWeekly:
		return "toggle_weekly"
	case sim.SetCandleColor:
		return "set_candle_color"
	case sim.SetEntitlement:
		return "set_entitlement"
	}
	return "unknown"
}
