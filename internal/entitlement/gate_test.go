package entitlement

import "testing"

func TestAllowed_FreeTier(t *testing.T) {
	free := []Feature{FeatureMA, FeatureVolume, FeatureWeekly, FeatureLong}
	for _, f := range free {
		if !Allowed(f, false) {
			t.Errorf("%s should be available without premium", f)
		}
	}

	gated := []Feature{FeatureRSI, FeatureMACD, FeatureShort}
	for _, f := range gated {
		if Allowed(f, false) {
			t.Errorf("%s should require premium", f)
		}
	}
}

func TestAllowed_PremiumTier(t *testing.T) {
	all := []Feature{
		FeatureMA, FeatureVolume, FeatureWeekly, FeatureLong,
		FeatureRSI, FeatureMACD, FeatureShort,
	}
	for _, f := range all {
		if !Allowed(f, true) {
			t.Errorf("%s should be available with premium", f)
		}
	}
}

func TestAllowed_UnknownFeatureDefaultsOpen(t *testing.T) {
	if !Allowed(Feature("future_thing"), false) {
		t.Error("unknown features default to available")
	}
}
