package model

import (
	"time"
)

// Intent is the analysis stage's view of what the user wants.
type Intent string

const (
	IntentProductPrice  Intent = "product_price"
	IntentWeather       Intent = "weather"
	IntentParty         Intent = "party"
	IntentInappropriate Intent = "inappropriate"
	IntentGeneral       Intent = "general"
	IntentUnknown       Intent = "unknown"
)

// Analysis is the typed value decoded once from the analysis model's
// header-grammar output. Downstream stages consume this value; raw
// analysis text never crosses the stage boundary.
type Analysis struct {
	Intent   Intent
	Language string
	Items    string
	Pricing  string
	Notes    string

	// Degraded marks the fixed placeholder substituted on provider
	// failure so the response stage always receives some artifact.
	Degraded    bool
	ParseErrors []string
	Timestamp   time.Time
}

// DegradedAnalysis is the fixed placeholder used when the analysis
// provider fails.
func DegradedAnalysis() Analysis {
	return Analysis{
		Intent:    IntentUnknown,
		Language:  "english",
		Notes:     "analysis unavailable; answer conservatively from conversation context only",
		Degraded:  true,
		Timestamp: time.Now().UTC(),
	}
}
