package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rising-stones13/chart-trade-trainer/internal/model"
)

// ParseCSV reads a daily price CSV with a header naming at least
// Date, Open, High, Low, Close, Volume (any order, any case). Rows whose
// date is not YYYY-MM-DD or whose numbers fail to parse are skipped, the way
// vendor exports tend to interleave notes and blank lines with data.
func ParseCSV(r io.Reader) ([]model.Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("ingest: read csv header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.Trim(strings.TrimSpace(h), `"`))] = i
	}
	for _, col := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("ingest: csv header missing %q column", col)
		}
	}

	var candles []model.Candle
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: read csv row: %w", err)
		}

		c, ok := parseRow(rec, idx)
		if !ok {
			continue
		}
		candles = append(candles, c)
	}
	return Normalize(candles)
}

func parseRow(rec []string, idx map[string]int) (model.Candle, bool) {
	field := func(col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	ts, err := parseDate(field("date"))
	if err != nil {
		return model.Candle{}, false
	}

	var c model.Candle
	c.Time = ts
	for col, dst := range map[string]*float64{
		"open": &c.Open, "high": &c.High, "low": &c.Low, "close": &c.Close,
	} {
		v, err := strconv.ParseFloat(field(col), 64)
		if err != nil {
			return model.Candle{}, false
		}
		*dst = v
	}

	vol, err := strconv.ParseInt(field("volume"), 10, 64)
	if err != nil {
		// Some exports write volume as a float; accept and truncate.
		f, ferr := strconv.ParseFloat(field("volume"), 64)
		if ferr != nil {
			return model.Candle{}, false
		}
		vol = int64(f)
	}
	c.Volume = vol
	return c, true
}
