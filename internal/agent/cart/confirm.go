// Package cart decides when a turn authorizes a cart mutation and parses
// mutation commands out of generated reply text. CART_ADD is the only
// deterministic contract between generation and extraction; everything
// else in a reply is opaque free text.
package cart

import (
	"strings"
)

// Explicit confirmation phrasing in English and Roman Hindi. A substring
// hit on any of these is sufficient on its own.
var confirmationPhrases = []string{
	"add to cart",
	"add it",
	"add them",
	"add these",
	"add karo",
	"add kar do",
	"cart me daal",
	"cart mein daal",
	"cart me add",
	"confirm order",
	"place order",
	"order kar",
	"buy it",
	"le lo",
	"le leta hoon",
	"haan add",
	"yes add",
}

// Bare affirmatives only count when the immediately preceding assistant
// turn was clearly offering a priced cart action.
var bareAffirmatives = map[string]struct{}{
	"yes": {}, "yeah": {}, "yep": {}, "yup": {}, "ok": {}, "okay": {},
	"sure": {}, "done": {}, "haan": {}, "han": {}, "ha": {}, "ji": {},
	"ji haan": {}, "theek hai": {}, "thik hai": {}, "chalega": {},
}

var currencyMarkers = []string{"₹", "rs.", "rs ", "inr", "$"}

var cartIntentMarkers = []string{"cart", "add", "order", "total", "buy"}

// DetectConfirmation reports whether the utterance authorizes committing
// a cart mutation this turn. Two independent paths:
//
//  1. the utterance contains an explicit confirmation phrase, or
//  2. the utterance is a bare affirmative AND the immediately preceding
//     assistant turn carried both a currency marker and a cart-intent
//     marker.
func DetectConfirmation(utterance, prevAssistant string, hasPrevAssistant bool) bool {
	u := strings.ToLower(strings.TrimSpace(utterance))
	if u == "" {
		return false
	}

	for _, p := range confirmationPhrases {
		if strings.Contains(u, p) {
			return true
		}
	}

	if !hasPrevAssistant {
		return false
	}
	bare := strings.Trim(u, "!. ")
	if _, ok := bareAffirmatives[bare]; !ok {
		return false
	}
	prev := strings.ToLower(prevAssistant)
	return containsAny(prev, currencyMarkers) && containsAny(prev, cartIntentMarkers)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
