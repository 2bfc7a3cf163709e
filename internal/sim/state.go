// Package sim implements the replay trading simulation as an explicit state
// machine: a snapshot State, a tagged Action set, and a single pure
// transition function Apply. Every transition is total — invalid
// preconditions (no data loaded, date not found, close amount exceeding the
// position) yield the unchanged state rather than an error, matching the
// "nothing happens" semantics a UI-driven simulator wants.
package sim

import (
	"github.com/rising-stones13/chart-trade-trainer/internal/model"
)

// Phase is the lifecycle stage of the simulation.
type Phase int

const (
	PhaseIdle      Phase = iota // no data loaded
	PhaseLoaded                 // data present, not replaying
	PhaseReplaying              // stepping bar by bar
)

func (p Phase) String() string {
	switch p {
	case PhaseLoaded:
		return "loaded"
	case PhaseReplaying:
		return "replaying"
	default:
		return "idle"
	}
}

// MAConfig is the display configuration for one moving-average period.
type MAConfig struct {
	Period  int    `json:"period"`
	Color   string `json:"color"`
	Visible bool   `json:"visible"`
}

// RSIConfig is the RSI panel configuration.
type RSIConfig struct {
	Visible bool `json:"visible"`
	Period  int  `json:"period"`
}

// MACDConfig is the MACD panel configuration.
type MACDConfig struct {
	Visible bool `json:"visible"`
	Fast    int  `json:"fast"`
	Slow    int  `json:"slow"`
	Signal  int  `json:"signal"`
}

// VolumeConfig is the volume histogram configuration.
type VolumeConfig struct {
	Visible bool `json:"visible"`
}

// State is one immutable snapshot of the simulation. Transitions never
// mutate a State in place; Apply returns a fresh copy with shared immutable
// backing (the candle sequence is read-only once ingested).
type State struct {
	Candles []model.Candle
	Weekly  []model.Candle
	Title   string

	Phase       Phase
	ReplayIndex int // -1 outside replay

	Positions    []model.Position
	History      []model.ClosedTrade
	RealizedPL   float64
	UnrealizedPL float64

	MAs        map[int]MAConfig
	RSI        RSIConfig
	MACD       MACDConfig
	Volume     VolumeConfig
	ShowWeekly bool
	UpColor    string
	DownColor  string

	Premium   bool
	TradeSize float64

	lotSeq int // lot ID counter, survives copies
}

// DefaultTradeSize is the fixed lot size used for every trade intent.
const DefaultTradeSize = 100

// DefaultTitle is shown before any dataset is loaded.
const DefaultTitle = "ChartTrade Trainer"

// NewState returns the initial Idle state with default view configuration.
func NewState(tradeSize float64, premium bool) State {
	if tradeSize <= 0 {
		tradeSize = DefaultTradeSize
	}
	return State{
		Title:       DefaultTitle,
		Phase:       PhaseIdle,
		ReplayIndex: -1,
		MAs: map[int]MAConfig{
			5:   {Period: 5, Color: "#FF5252", Visible: true},
			10:  {Period: 10, Color: "#4CAF50", Visible: true},
			20:  {Period: 20, Color: "#2196F3", Visible: true},
			50:  {Period: 50, Color: "#9C27B0", Visible: true},
			100: {Period: 100, Color: "#FF9800", Visible: true},
		},
		RSI:       RSIConfig{Visible: false, Period: 14},
		MACD:      MACDConfig{Visible: false, Fast: 12, Slow: 26, Signal: 9},
		Volume:    VolumeConfig{Visible: true},
		UpColor:   "#ef5350",
		DownColor: "#26a69a",
		Premium:   premium,
		TradeSize: tradeSize,
	}
}

// Visible returns the candle window the presentation layer may see:
// candles[0..ReplayIndex] during replay (no look-ahead), the full sequence
// otherwise.
func (s *State) Visible() []model.Candle {
	if s.Phase == PhaseReplaying && s.ReplayIndex >= 0 {
		return s.Candles[:s.ReplayIndex+1]
	}
	return s.Candles
}

// CurrentBar returns the bar at the replay cursor. ok is false outside
// replay.
func (s *State) CurrentBar() (model.Candle, bool) {
	if s.Phase != PhaseReplaying || s.ReplayIndex < 0 || s.ReplayIndex >= len(s.Candles) {
		return model.Candle{}, false
	}
	return s.Candles[s.ReplayIndex], true
}

func copyMAs(mas map[int]MAConfig) map[int]MAConfig {
	out := make(map[int]MAConfig, len(mas))
	for k, v := range mas {
		out[k] = v
	}
	return out
}
