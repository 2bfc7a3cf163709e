package sim

import (
	"time"

	"github.com/rising-stones13/chart-trade-trainer/internal/model"
)

// Action is a user or system intent applied to the simulation. Actions are
// tagged variants dispatched by Apply; unknown actions leave the state
// unchanged.
type Action interface {
	isAction()
}

// LoadData replaces the candle sequence, resetting the ledger, trade
// history, and P&L. View configuration (MA/RSI/MACD/volume visibility,
// candle colors, weekly toggle) survives the load.
type LoadData struct {
	Candles []model.Candle
	Title   string
}

// StartReplay begins replay at the first candle whose time is >= Date.
// If no such candle exists the action is absorbed as a no-op.
type StartReplay struct {
	Date time.Time
}

// AdvanceDay reveals the next bar and marks open positions to its close.
// At the last bar it ends the replay instead.
type AdvanceDay struct{}

// Trade opens (or adds to) a fixed-size lot on Side at the current bar's
// close.
type Trade struct {
	Side model.Side
}

// ClosePosition closes Amount from the position on Side at the current
// bar's close, consuming lots FIFO.
type ClosePosition struct {
	Side   model.Side
	Amount float64
}

// ToggleMA flips visibility of the moving average with the given period.
type ToggleMA struct {
	Period int
}

// ToggleRSI flips RSI panel visibility (premium-gated).
type ToggleRSI struct{}

// ToggleMACD flips MACD panel visibility (premium-gated).
type ToggleMACD struct{}

// ToggleVolume flips the volume histogram.
type ToggleVolume struct{}

// ToggleWeekly flips the weekly chart view.
type ToggleWeekly struct{}

// SetCandleColor changes the up or down candle color. Cosmetic only.
type SetCandleColor struct {
	Target string // "up" or "down"
	Color  string
}

// SetEntitlement records a premium flag change from the billing sync.
// Dropping to non-premium force-revokes RSI and MACD visibility.
type SetEntitlement struct {
	Premium bool
}

func (LoadData) isAction()       {}
func (StartReplay) isAction()    {}
func (AdvanceDay) isAction()     {}
func (Trade) isAction()          {}
func (ClosePosition) isAction()  {}
func (ToggleMA) isAction()       {}
func (ToggleRSI) isAction()      {}
func (ToggleMACD) isAction()     {}
func (ToggleVolume) isAction()   {}
func (ToggleWeekly) isAction()   {}
func (SetCandleColor) isAction() {}
func (SetEntitlement) isAction() {}
