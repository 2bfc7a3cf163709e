package indicator

import "github.com/rising-stones13/chart-trade-trainer/internal/model"

// SMA computes the simple moving average of closes over a rolling window.
// The result has the same length as data; points before index period-1 are
// invalid. Values are rounded to 2 decimal places. A series shorter than the
// period yields an all-invalid result of the same length — never an error.
//
// The rolling sum makes the scan O(n) regardless of period.
func SMA(data []model.Candle, period int) []model.LinePoint {
	out := make([]model.LinePoint, len(data))
	for i := range data {
		out[i].Time = data[i].Time
	}
	if period <= 0 {
		return out
	}

	var sum float64
	for i := range data {
		sum += data[i].Close
		if i >= period {
			sum -= data[i-period].Close
		}
		if i >= period-1 {
			out[i].Value = round2(sum / float64(period))
			out[i].Valid = true
		}
	}
	return out
}
