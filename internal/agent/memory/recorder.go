// Package memory appends transactional and preference notes to the
// session. Both channels are unconditional appends: no merging, no
// dedup, no expiry.
package memory

import (
	"fmt"
	"strings"
	"time"

	"kirana-agent/internal/session"
)

// Transactional keywords: measurement units plus purchase verbs.
var transactionalWords = []string{
	"kg", "gram", "litre", "liter", "ml", "dozen", "packet",
	"buy", "order", "purchase", "add cart", "add to cart", "kharid",
}

// Preference-statement phrasing worth remembering across turns.
var preferencePhrases = []string{
	"i like",
	"i love",
	"i prefer",
	"my name",
	"i am",
	"i'm",
	"mujhe pasand",
	"mera naam",
	"main hoon",
}

// Record inspects the turn and appends an order-history record and/or a
// user-memory entry. Keys for user memory come from the session's
// incrementing counter.
func Record(s *session.State, utterance, reply string, now time.Time) {
	u := strings.ToLower(utterance)

	if matchesTransaction(u) {
		s.OrderHistory = append(s.OrderHistory, session.OrderRecord{
			Query:     utterance,
			Response:  reply,
			Timestamp: now,
			Location:  s.Location,
		})
	}

	if matchesPreference(u) {
		s.MemorySeq++
		key := fmt.Sprintf("note-%d", s.MemorySeq)
		s.UserMemory[key] = session.MemoryEntry{Info: utterance, Timestamp: now}
	}
}

func matchesTransaction(u string) bool {
	tokens := tokenSet(u)
	for _, w := range transactionalWords {
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

func matchesPreference(u string) bool {
	for _, p := range preferencePhrases {
		if strings.Contains(u, p) {
			return true
		}
	}
	return false
}

func tokenSet(u string) map[string]struct{} {
	fields := strings.FieldsFunc(u, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '.', '?', '!', ';', ':':
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
