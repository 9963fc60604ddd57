// Package classify categorizes utterances and derives search queries.
// Classification is deliberately single-label: categories are checked in
// a fixed priority order and the first match wins.
package classify

import (
	"strings"
)

// Category of an utterance, mutually exclusive by priority.
type Category string

const (
	CategoryParty         Category = "party"
	CategoryProductPrice  Category = "product_price"
	CategoryWeather       Category = "weather"
	CategoryInappropriate Category = "inappropriate"
	CategoryDefault       Category = "default"
)

// Language style detected in the utterance.
type Language string

const (
	LanguageHinglish Language = "hinglish"
	LanguageEnglish  Language = "english"
)

// Result of classifying one utterance.
type Result struct {
	Category Category
	Language Language
}

// Hinglish function words in Roman script. Any hit marks the utterance as
// romanized Hindi so the response can mirror the user's register.
var hinglishWords = []string{
	"hai", "kya", "nahi", "nahin", "chahiye", "kitna", "kitne", "mujhe",
	"karo", "bhai", "acha", "accha", "theek", "thik", "hoga", "mera",
	"meri", "wala", "wali", "sasta", "mehenga", "paisa", "rupaye",
	"kharido", "le lo", "dena", "batao", "dikhao",
}

var partyWords = []string{
	"party", "birthday", "celebration", "function", "shaadi", "wedding",
	"guests", "mehmaan", "get together", "anniversary", "picnic",
}

// Product/price keywords: measurement units, transaction verbs and named
// commodities, in both English and Roman Hindi.
var productWords = []string{
	// units
	"kg", "gram", "litre", "liter", "ml", "dozen", "packet", "pack",
	// transaction verbs / price talk
	"buy", "order", "purchase", "price", "cost", "rate", "kitna", "sasta",
	"cheap", "discount", "offer", "cart", "kharid",
	// commodities
	"milk", "doodh", "bread", "egg", "anda", "rice", "chawal", "atta",
	"dal", "sugar", "cheeni", "oil", "tel", "vegetable", "sabzi", "fruit",
	"paneer", "butter", "ghee", "maggi", "biscuit", "chai", "tea",
	"coffee", "onion", "pyaz", "tomato", "tamatar", "potato", "aloo",
	"grocery", "snacks",
}

var weatherWords = []string{
	"weather", "rain", "baarish", "mausam", "temperature", "garmi",
	"sardi", "thand", "humidity", "forecast", "monsoon",
}

var inappropriateWords = []string{
	"porn", "nude", "sex", "gambling", "betting", "drugs", "weapon",
	"hack", "kill",
}

// Classify categorizes an utterance. First match in the fixed priority
// order wins: party > product/price > weather > inappropriate > default.
func Classify(utterance string) Result {
	u := strings.ToLower(utterance)

	r := Result{Category: CategoryDefault, Language: LanguageEnglish}
	if containsAnyWord(u, hinglishWords) {
		r.Language = LanguageHinglish
	}

	switch {
	case containsAnyWord(u, partyWords):
		r.Category = CategoryParty
	case containsAnyWord(u, productWords):
		r.Category = CategoryProductPrice
	case containsAnyWord(u, weatherWords):
		r.Category = CategoryWeather
	case containsAnyWord(u, inappropriateWords):
		r.Category = CategoryInappropriate
	}
	return r
}

// containsAnyWord matches keywords on token boundaries so short units
// like "kg" or "ml" do not fire inside unrelated words.
func containsAnyWord(u string, words []string) bool {
	tokens := tokenize(u)
	for _, w := range words {
		if strings.ContainsRune(w, ' ') {
			if strings.Contains(u, w) {
				return true
			}
			continue
		}
		if _, ok := tokens[w]; ok {
			return true
		}
	}
	return false
}

func tokenize(u string) map[string]struct{} {
	fields := strings.FieldsFunc(u, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '.', '?', '!', ';', ':', '(', ')':
			return true
		}
		return false
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// BuildSearchQuery derives at most one search query for the turn. The
// inappropriate category never produces a query.
func BuildSearchQuery(utterance, location string, category Category) (string, bool) {
	utterance = strings.TrimSpace(utterance)
	switch category {
	case CategoryInappropriate:
		return "", false
	case CategoryProductPrice:
		return joined(utterance, "price cost on Blinkit Zepto Swiggy Instamart BigBasket", location), true
	case CategoryParty:
		return joined(utterance, "party snacks grocery items price list", location), true
	case CategoryWeather:
		return joined("current weather today", location, utterance), true
	default:
		return joined(utterance, location), true
	}
}

func joined(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
