package model

import "time"

// Side identifies the direction of a position or trade.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Lot is a single opening trade's price/size/date, tracked individually so
// partial closes can consume the oldest lot first (FIFO).
type Lot struct {
	ID    string    `json:"id"`
	Price float64   `json:"price"`
	Size  float64   `json:"size"` // always > 0; a lot reduced to 0 is removed
	Date  time.Time `json:"date"`
}

// Position is the consolidated position for one side: an ordered set of lots
// plus derived totals. At most one Position exists per side at a time.
// Invariants: TotalSize = Σ lot sizes; AvgPrice = size-weighted mean of lot
// prices; AvgPrice is only ever computed while TotalSize > 0.
type Position struct {
	Side      Side    `json:"side"`
	Lots      []Lot   `json:"lots"`
	TotalSize float64 `json:"total_size"`
	AvgPrice  float64 `json:"avg_price"`
}

// UnrealizedPnL values the position against the given mark price.
func (p *Position) UnrealizedPnL(mark float64) float64 {
	if p.Side == SideLong {
		return (mark - p.AvgPrice) * p.TotalSize
	}
	return (p.AvgPrice - mark) * p.TotalSize
}

// ClosedTrade records one lot (or portion of a lot) being closed. Appended
// to the trade history at close time and never mutated afterwards.
type ClosedTrade struct {
	ID         string    `json:"id"`
	Side       Side      `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Size       float64   `json:"size"`
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	Profit     float64   `json:"profit"`
}
