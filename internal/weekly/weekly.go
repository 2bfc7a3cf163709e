// Package weekly resamples a daily candle sequence into weekly candles for
// the higher-timeframe chart view. The weekly view is display-only; it never
// feeds back into the simulation.
package weekly

import (
	"time"

	"github.com/rising-stones13/chart-trade-trainer/internal/model"
)

// Start returns the Sunday on or before t, normalized to UTC midnight.
// Normalizing before taking the weekday keeps week boundaries stable
// regardless of the local offset carried by t.
func Start(t time.Time) time.Time {
	t = t.UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// ToWeekly collapses daily candles into one candle per calendar week
// (weeks start Sunday). Per week: open is the first day's open, high/low the
// extremes, close the last day's close, volume the sum. Each weekly candle
// is keyed by the date of its last contributing day, so the weekly series
// stays aligned with the daily chart cursor.
//
// Input must be sorted ascending by time (the ingest contract). Empty input
// yields an empty result.
func ToWeekly(daily []model.Candle) []model.Candle {
	out := make([]model.Candle, 0, len(daily)/5+1)
	var bucket time.Time

	for _, day := range daily {
		ws := Start(day.Time)
		if len(out) == 0 || !ws.Equal(bucket) {
			// New week — seed the weekly candle from its first day.
			bucket = ws
			out = append(out, day)
			continue
		}

		wc := &out[len(out)-1]
		if day.High > wc.High {
			wc.High = day.High
		}
		if day.Low < wc.Low {
			wc.Low = day.Low
		}
		wc.Close = day.Close
		wc.Volume += day.Volume
		wc.Time = day.Time
	}
	return out
}
