package indicator

import "github.com/rising-stones13/chart-trade-trainer/internal/model"

// Default MACD parameters.
const (
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// MACD computes the MACD line, signal line, and histogram over closes.
// The result is point-aligned with data. The macd line is defined wherever
// both EMAs are defined (from index slow-1 when slow >= fast). The signal
// line is an EMA over the defined suffix of the macd line — its warm-up
// counts from the first defined macd value, so it appears at index
// slow+signal-2. The histogram is defined wherever both are.
// Series shorter than the slow period yield an empty result.
func MACD(data []model.Candle, fast, slow, signal int) []model.MacdPoint {
	if fast <= 0 || slow <= 0 || signal <= 0 || len(data) < slow {
		return []model.MacdPoint{}
	}

	closes := make([]float64, len(data))
	for i := range data {
		closes[i] = data[i].Close
	}

	emaFast := emaSeries(closes, fast)
	emaSlow := emaSeries(closes, slow)

	out := make([]model.MacdPoint, len(data))
	for i := range data {
		out[i].Time = data[i].Time
	}

	start := slow - 1
	if fast > slow {
		start = fast - 1
	}
	macdVals := make([]float64, 0, len(data)-start)
	for i := start; i < len(data); i++ {
		m := emaFast[i] - emaSlow[i]
		out[i].Macd = &m
		macdVals = append(macdVals, m)
	}

	sig := emaSeries(macdVals, signal)
	for j := signal - 1; j < len(sig); j++ {
		i := start + j
		s := sig[j]
		h := *out[i].Macd - s
		out[i].Signal = &s
		out[i].Histogram = &h
	}
	return out
}

// emaSeries computes an exponential moving average over vals. The returned
// slice is aligned with vals; entries before index period-1 are meaningless.
// The seed at period-1 is the simple mean of the first period values, then
// the standard recurrence with multiplier k = 2/(period+1) applies.
func emaSeries(vals []float64, period int) []float64 {
	out := make([]float64, len(vals))
	if len(vals) < period {
		return out
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += vals[i]
	}
	out[period-1] = sum / float64(period)

	k := 2.0 / float64(period+1)
	for i := period; i < len(vals); i++ {
		out[i] = vals[i]*k + out[i-1]*(1-k)
	}
	return out
}
