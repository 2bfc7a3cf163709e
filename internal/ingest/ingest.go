// Package ingest parses vendor price payloads (CSV or JSON) into the
// normalized daily candle sequence the simulation consumes. All validation
// lives here: the core assumes a non-empty, ascending, unique-time sequence
// with finite OHLC values once LoadData fires.
package ingest

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rising-stones13/chart-trade-trainer/internal/model"
)

// ErrNoData is returned when a payload yields no usable candles.
var ErrNoData = errors.New("ingest: no candle data in payload")

// Dataset is a parsed payload: a validated candle sequence plus the display
// title shown in the chart header.
type Dataset struct {
	Title   string         `json:"title"`
	Candles []model.Candle `json:"candles"`
}

const dateLayout = "2006-01-02"

// Normalize sorts candles ascending by time and validates the sequence:
// non-empty, unique times, finite OHLC. Returns a fresh slice; the input is
// not modified.
func Normalize(candles []model.Candle) ([]model.Candle, error) {
	if len(candles) == 0 {
		return nil, ErrNoData
	}

	out := append([]model.Candle(nil), candles...)
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	for i := range out {
		c := &out[i]
		for _, v := range [4]float64{c.Open, c.High, c.Low, c.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("ingest: non-finite price on %s", c.DateKey())
			}
		}
		if i > 0 && !out[i].Time.After(out[i-1].Time) {
			return nil, fmt.Errorf("ingest: duplicate candle time %s", c.DateKey())
		}
	}
	return out, nil
}

// parseDate parses a "YYYY-MM-DD" trading day into UTC midnight.
func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
