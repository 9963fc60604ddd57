// Package parsers decodes the analysis model's output into a typed value
// exactly once; no downstream stage re-scans raw analysis text.
package parsers

import (
	"strings"
	"time"

	"kirana-agent/internal/agent/model"
	logx "kirana-agent/pkg/logger"
)

// The analysis package header grammar. One "KEY: value" header per line;
// continuation lines attach to the preceding header.
const (
	keyIntent   = "INTENT"
	keyLanguage = "LANGUAGE"
	keyItems    = "ITEMS"
	keyPricing  = "PRICING"
	keyNotes    = "NOTES"

	endDelim = "<|COMPLETE|>"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxLines      = 400
	maxErrSnippet = 120
)

// ParseAnalysis decodes analysis text into a typed model.Analysis. It is
// tolerant by construction: unknown headers and malformed lines are
// recorded in ParseErrors and skipped, never fatal to the turn.
func ParseAnalysis(content string) (a model.Analysis) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "analysis_parser").Msgf("panic recovered: %v", r)
			a = model.DegradedAnalysis()
		}
	}()

	a = model.Analysis{
		Intent:    model.IntentUnknown,
		Language:  "english",
		Timestamp: time.Now().UTC(),
	}

	addErr := func(msg string) {
		a.ParseErrors = append(a.ParseErrors, msg)
	}

	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "analysis_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
		addErr("truncated")
	}
	// honor completion delimiter if present
	if idx := strings.Index(content, endDelim); idx >= 0 {
		content = content[:idx]
	}

	values := map[string]string{}
	lastKey := ""
	lines := strings.Split(content, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		addErr("lines capped")
	}

	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "**"))
		if line == "" {
			continue
		}
		key, val, ok := splitHeader(line)
		if !ok {
			// continuation of the previous header, or free text noise
			if lastKey != "" {
				values[lastKey] = strings.TrimSpace(values[lastKey] + " " + line)
			}
			continue
		}
		switch key {
		case keyIntent, keyLanguage, keyItems, keyPricing, keyNotes:
			if _, dup := values[key]; dup {
				addErr("duplicate header: " + key)
			}
			values[key] = val
			lastKey = key
		default:
			addErr("unknown header: " + safeSnippet(key))
			lastKey = ""
		}
	}

	a.Intent = normalizeIntent(values[keyIntent], addErr)
	a.Language = normalizeLanguage(values[keyLanguage])
	a.Items = values[keyItems]
	a.Pricing = values[keyPricing]
	a.Notes = values[keyNotes]
	return a
}

// splitHeader recognizes "KEY: value" with an upper-case key.
func splitHeader(line string) (key, val string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	if key == "" || key != strings.ToUpper(key) {
		return "", "", false
	}
	for _, r := range key {
		if (r < 'A' || r > 'Z') && r != '_' {
			return "", "", false
		}
	}
	return key, strings.TrimSpace(line[idx+1:]), true
}

func normalizeIntent(v string, addErr func(string)) model.Intent {
	switch model.Intent(strings.ToLower(strings.TrimSpace(v))) {
	case model.IntentProductPrice:
		return model.IntentProductPrice
	case model.IntentWeather:
		return model.IntentWeather
	case model.IntentParty:
		return model.IntentParty
	case model.IntentInappropriate:
		return model.IntentInappropriate
	case model.IntentGeneral:
		return model.IntentGeneral
	case "":
		addErr("missing intent")
		return model.IntentUnknown
	default:
		addErr("unknown intent: " + safeSnippet(v))
		return model.IntentUnknown
	}
}

func normalizeLanguage(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "hinglish", "roman hindi", "hindi":
		return "hinglish"
	case "", "english", "eng", "en":
		return "english"
	default:
		return "english"
	}
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
