package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/rising-stones13/chart-trade-trainer/internal/model"
)

// jsonPayload mirrors the vendor JSON export: a meta block naming the
// instrument plus a flat candle array with date-keyed bars.
type jsonPayload struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		LongName string `json:"longName"`
	} `json:"meta"`
	Candles []jsonCandle `json:"candles"`
}

type jsonCandle struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// ParseJSON parses a vendor JSON payload into a validated Dataset. Candles
// with unparseable dates are skipped; everything else goes through the same
// normalization as CSV input. The dataset title is "LongName (SYMBOL)" when
// both are present, falling back to whichever exists.
func ParseJSON(data []byte) (Dataset, error) {
	var p jsonPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Dataset{}, fmt.Errorf("ingest: decode json payload: %w", err)
	}

	candles := make([]model.Candle, 0, len(p.Candles))
	for _, jc := range p.Candles {
		ts, err := parseDate(jc.Time)
		if err != nil {
			continue
		}
		candles = append(candles, model.Candle{
			Time:   ts,
			Open:   jc.Open,
			High:   jc.High,
			Low:    jc.Low,
			Close:  jc.Close,
			Volume: jc.Volume,
		})
	}

	normalized, err := Normalize(candles)
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{Title: datasetTitle(p.Meta.LongName, p.Meta.Symbol), Candles: normalized}, nil
}

func datasetTitle(longName, symbol string) string {
	switch {
	case longName != "" && symbol != "":
		return fmt.Sprintf("%s (%s)", longName, symbol)
	case longName != "":
		return longName
	default:
		return symbol
	}
}
