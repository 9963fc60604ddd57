package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"kirana-agent/internal/agent/model"
)

func TestParseAnalysisWellFormed(t *testing.T) {
	content := `INTENT: product_price
LANGUAGE: hinglish
ITEMS: milk 1L, bread
PRICING: milk ₹50-60 on Blinkit
NOTES: user comparing platforms
<|COMPLETE|>`

	a := ParseAnalysis(content)
	require.Equal(t, model.IntentProductPrice, a.Intent)
	require.Equal(t, "hinglish", a.Language)
	require.Equal(t, "milk 1L, bread", a.Items)
	require.Equal(t, "milk ₹50-60 on Blinkit", a.Pricing)
	require.Equal(t, "user comparing platforms", a.Notes)
	require.Empty(t, a.ParseErrors)
	require.False(t, a.Degraded)
}

func TestParseAnalysisContinuationLines(t *testing.T) {
	content := `INTENT: general
NOTES: first part
second part
third part`

	a := ParseAnalysis(content)
	require.Equal(t, "first part second part third part", a.Notes)
}

func TestParseAnalysisUnknownHeaderRecorded(t *testing.T) {
	content := `INTENT: weather
SENTIMENT: positive`

	a := ParseAnalysis(content)
	require.Equal(t, model.IntentWeather, a.Intent)
	require.Len(t, a.ParseErrors, 1)
	require.Contains(t, a.ParseErrors[0], "SENTIMENT")
}

func TestParseAnalysisMissingIntent(t *testing.T) {
	a := ParseAnalysis("NOTES: nothing else here")
	require.Equal(t, model.IntentUnknown, a.Intent)
	require.Contains(t, a.ParseErrors, "missing intent")
}

func TestParseAnalysisUnknownIntent(t *testing.T) {
	a := ParseAnalysis("INTENT: shopping_spree")
	require.Equal(t, model.IntentUnknown, a.Intent)
	require.NotEmpty(t, a.ParseErrors)
}

func TestParseAnalysisIgnoresTextAfterDelimiter(t *testing.T) {
	content := "INTENT: party\n<|COMPLETE|>\nNOTES: should be ignored"

	a := ParseAnalysis(content)
	require.Equal(t, model.IntentParty, a.Intent)
	require.Empty(t, a.Notes)
}

func TestParseAnalysisLanguageNormalization(t *testing.T) {
	require.Equal(t, "hinglish", ParseAnalysis("INTENT: general\nLANGUAGE: Roman Hindi").Language)
	require.Equal(t, "english", ParseAnalysis("INTENT: general\nLANGUAGE: klingon").Language)
	require.Equal(t, "english", ParseAnalysis("INTENT: general").Language)
}

func TestParseAnalysisOversizedContent(t *testing.T) {
	content := "INTENT: general\nNOTES: " + strings.Repeat("x", 70*1024)

	a := ParseAnalysis(content)
	require.Equal(t, model.IntentGeneral, a.Intent)
	require.Contains(t, a.ParseErrors, "truncated")
}
