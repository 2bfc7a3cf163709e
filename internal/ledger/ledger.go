// Package ledger maintains open long/short positions as collections of lots
// and computes realized/unrealized P&L.
//
// Every operation is a pure function: positions go in by value, a fresh
// snapshot comes out, and rejected operations return the input unchanged.
// That keeps the replay state machine's transitions total and side-effect
// free. P&L values are never pre-rounded here; formatting is a presentation
// concern.
package ledger

import (
	"time"

	"github.com/rising-stones13/chart-trade-trainer/internal/model"
)

// Get returns the position on the given side, if one exists.
func Get(positions []model.Position, side model.Side) (model.Position, bool) {
	for _, p := range positions {
		if p.Side == side {
			return p, true
		}
	}
	return model.Position{}, false
}

// Open adds a lot on the given side. If a position already exists on that
// side the lot is appended and the size-weighted average price recomputed;
// otherwise a new single-lot position is created. The lot's size must be
// positive (caller's responsibility).
func Open(positions []model.Position, side model.Side, lot model.Lot) []model.Position {
	out := clone(positions)
	for i := range out {
		if out[i].Side == side {
			out[i].Lots = append(out[i].Lots, lot)
			recompute(&out[i])
			return out
		}
	}
	return append(out, model.Position{
		Side:      side,
		Lots:      []model.Lot{lot},
		TotalSize: lot.Size,
		AvgPrice:  lot.Price,
	})
}

// ClosePartial consumes amount from the position on side, oldest lot first.
// One ClosedTrade is emitted per lot touched, with profit computed against
// the mark price. The position is removed entirely once its last lot closes.
// If no position exists on side, or amount exceeds its total size, or amount
// is not positive, the input is returned unchanged with ok=false.
func ClosePartial(positions []model.Position, side model.Side, amount, mark float64, exitDate time.Time) ([]model.Position, []model.ClosedTrade, bool) {
	idx := -1
	for i, p := range positions {
		if p.Side == side {
			idx = i
			break
		}
	}
	if idx == -1 || amount <= 0 || amount > positions[idx].TotalSize {
		return positions, nil, false
	}

	out := clone(positions)
	pos := &out[idx]

	remaining := amount
	trades := make([]model.ClosedTrade, 0, len(pos.Lots))
	keep := make([]model.Lot, 0, len(pos.Lots))

	for _, lot := range pos.Lots {
		if remaining <= 0 {
			keep = append(keep, lot)
			continue
		}

		closed := lot.Size
		if remaining < closed {
			closed = remaining
		}

		profit := (mark - lot.Price) * closed
		if side == model.SideShort {
			profit = (lot.Price - mark) * closed
		}
		trades = append(trades, model.ClosedTrade{
			ID:         lot.ID,
			Side:       side,
			EntryPrice: lot.Price,
			ExitPrice:  mark,
			Size:       closed,
			EntryDate:  lot.Date,
			ExitDate:   exitDate,
			Profit:     profit,
		})

		if lot.Size > closed {
			lot.Size -= closed
			keep = append(keep, lot)
		}
		remaining -= closed
	}

	if len(keep) == 0 {
		out = append(out[:idx], out[idx+1:]...)
	} else {
		pos.Lots = keep
		recompute(pos)
	}
	return out, trades, true
}

// Unrealized marks all open positions to the given price and returns the
// summed unrealized P&L.
func Unrealized(positions []model.Position, mark float64) float64 {
	var total float64
	for i := range positions {
		total += positions[i].UnrealizedPnL(mark)
	}
	return total
}

func clone(positions []model.Position) []model.Position {
	out := make([]model.Position, len(positions))
	for i, p := range positions {
		out[i] = p
		out[i].Lots = append([]model.Lot(nil), p.Lots...)
	}
	return out
}

// recompute refreshes TotalSize and AvgPrice from the lots.
// Only called while at least one lot remains.
func recompute(p *model.Position) {
	var size, cost float64
	for _, l := range p.Lots {
		size += l.Size
		cost += l.Price * l.Size
	}
	p.TotalSize = size
	if size > 0 {
		p.AvgPrice = cost / size
	}
}
