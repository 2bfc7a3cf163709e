package indicator

import "github.com/rising-stones13/chart-trade-trainer/internal/model"

// DefaultRSIPeriod is the conventional RSI lookback.
const DefaultRSIPeriod = 14

// RSI computes the Relative Strength Index using Wilder's smoothing method.
// The result is point-aligned with data; indices 0..period-1 are the warm-up
// span. The first valid value (at index period) seeds the averages with the
// simple mean of the first period daily changes, after which
// avg = (avg*(period-1) + x) / period. A zero average loss means RS is
// infinite and RSI saturates at 100.
func RSI(data []model.Candle, period int) []model.LinePoint {
	out := make([]model.LinePoint, len(data))
	for i := range data {
		out[i].Time = data[i].Time
	}
	if period <= 0 || len(data) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := data[i].Close - data[i-1].Close
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss += -delta
		}
	}
	p := float64(period)
	avgGain /= p
	avgLoss /= p
	out[period].Value = rsiValue(avgGain, avgLoss)
	out[period].Valid = true

	for i := period + 1; i < len(data); i++ {
		delta := data[i].Close - data[i-1].Close
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i].Value = rsiValue(avgGain, avgLoss)
		out[i].Valid = true
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
