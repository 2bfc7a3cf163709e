// Package entitlement decides which trainer features the account's tier
// permits and keeps the premium flag in sync with the external billing
// service via Redis.
package entitlement

// Feature identifies a gateable trainer capability.
type Feature string

const (
	FeatureMA     Feature = "ma"
	FeatureVolume Feature = "volume"
	FeatureWeekly Feature = "weekly"
	FeatureRSI    Feature = "rsi"
	FeatureMACD   Feature = "macd"
	FeatureLong   Feature = "trade_long"
	FeatureShort  Feature = "trade_short"
)

// Allowed reports whether the feature is available at the given tier.
// RSI, MACD, and short-selling require premium; moving averages, volume,
// the weekly view, and long trading are always available. The gate holds
// no state of its own.
func Allowed(f Feature, premium bool) bool {
	switch f {
	case FeatureRSI, FeatureMACD, FeatureShort:
		return premium
	default:
		return true
	}
}
