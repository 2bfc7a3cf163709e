// Package model defines the core data types shared across the trainer:
// candles, indicator points, lots, positions, and closed trades.
package model

import (
	"time"
)

// Candle represents one daily OHLCV bar of an instrument.
// The candle sequence handed to the core is sorted ascending by Time with
// unique times; the ingest adapter guarantees this before LoadData fires.
type Candle struct {
	Time   time.Time `json:"time"` // trading day (UTC, midnight-aligned)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// DateKey returns the candle's trading day as "YYYY-MM-DD".
func (c *Candle) DateKey() string {
	return c.Time.UTC().Format("2006-01-02")
}

// LinePoint is a single point of an indicator line, aligned 1:1 with the
// candle sequence that produced it. Valid is false during the indicator's
// warm-up span where not enough history exists.
type LinePoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
	Valid bool      `json:"valid"`
}

// MacdPoint is a single point of the MACD series. Each component is nil
// until its own warm-up has elapsed: the macd line from the slow EMA's
// warm-up, the signal line signalPeriod-1 defined macd values later, and
// the histogram wherever both are defined.
type MacdPoint struct {
	Time      time.Time `json:"time"`
	Macd      *float64  `json:"macd,omitempty"`
	Signal    *float64  `json:"signal,omitempty"`
	Histogram *float64  `json:"histogram,omitempty"`
}
