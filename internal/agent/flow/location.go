// Package flow implements the location-elicitation protocol that gates
// the turn pipeline until a session has greeted the user and captured a
// shopping location.
package flow

import (
	"strings"

	"kirana-agent/internal/session"
	logx "kirana-agent/pkg/logger"
)

// Phase is the session's position in the location-elicitation protocol,
// derived from state fields rather than stored separately.
type Phase int

const (
	PhaseUnasked Phase = iota
	PhaseAskedAwaiting
	PhaseLocationSetUnwelcomed
	PhaseNormal
)

func (p Phase) String() string {
	switch p {
	case PhaseUnasked:
		return "unasked"
	case PhaseAskedAwaiting:
		return "asked_awaiting"
	case PhaseLocationSetUnwelcomed:
		return "location_set_unwelcomed"
	default:
		return "normal"
	}
}

// PhaseOf derives the protocol phase from session state.
func PhaseOf(s *session.State) Phase {
	switch {
	case !s.LocationAsked:
		return PhaseUnasked
	case s.Welcomed:
		return PhaseNormal
	case s.Location != "":
		return PhaseLocationSetUnwelcomed
	default:
		return PhaseAskedAwaiting
	}
}

// DecisionKind tags the gate outcome for a turn. Downstream stages switch
// on the tag instead of re-scanning text for markers.
type DecisionKind int

const (
	// DecideAskLocation short-circuits the turn with a location request.
	DecideAskLocation DecisionKind = iota
	// DecideLocationCaptured short-circuits after storing the location.
	DecideLocationCaptured
	// DecideWelcome short-circuits with the one-time welcome.
	DecideWelcome
	// DecideProceed hands the turn to the full pipeline.
	DecideProceed
)

// Decision is the tagged gate outcome for one turn.
type Decision struct {
	Kind     DecisionKind
	Location string
}

// Decide runs one step of the protocol, applying its state transitions to
// the working session copy. Location is stored at most once here and is
// never overwritten.
func Decide(s *session.State, utterance string) Decision {
	switch PhaseOf(s) {
	case PhaseUnasked:
		// Utterance content is ignored on the very first turn.
		s.LocationAsked = true
		return Decision{Kind: DecideAskLocation}

	case PhaseAskedAwaiting:
		if MatchesLocation(utterance) {
			loc := strings.TrimSpace(utterance)
			s.Location = loc
			return Decision{Kind: DecideLocationCaptured, Location: loc}
		}
		// No re-prompt: the turn proceeds without a location. Logged so
		// the degraded state is visible.
		logx.Warn().Str("sessionID", s.ID).Msg("awaited location did not match; proceeding without one")
		return Decision{Kind: DecideProceed}

	case PhaseLocationSetUnwelcomed:
		s.Welcomed = true
		return Decision{Kind: DecideWelcome, Location: s.Location}

	default:
		return Decision{Kind: DecideProceed}
	}
}

// Reply returns the fixed short-circuit reply for non-Proceed decisions.
func (d Decision) Reply() string {
	switch d.Kind {
	case DecideAskLocation:
		return "Namaste! 🙏 Before we start shopping, could you tell me your city or area? Prices and delivery depend on where you are. 📍"
	case DecideLocationCaptured:
		return "Got it! 👍 I'll use that location for prices and availability. What would you like to buy today?"
	case DecideWelcome:
		return "Welcome! 🛒 I'm your grocery assistant. Ask me for prices, compare platforms, plan a party, or just tell me what to add to your cart."
	default:
		return ""
	}
}

var locationPhrases = []string{
	"i live in",
	"i am in",
	"i'm in",
	"i am from",
	"i'm from",
	"i stay in",
	"my location",
	"my city",
	"main rehta",
	"main rahta",
	"main rehti",
	"se hoon",
	"se hu",
}

var addressKeywords = []string{
	"street",
	"road",
	"nagar",
	"colony",
	"sector",
	"society",
	"apartment",
	"pincode",
	"pin code",
}

var placeNames = []string{
	"mumbai", "delhi", "bangalore", "bengaluru", "hyderabad", "chennai",
	"kolkata", "pune", "ahmedabad", "jaipur", "lucknow", "surat", "kanpur",
	"nagpur", "indore", "bhopal", "patna", "noida", "gurgaon", "gurugram",
	"chandigarh", "kochi", "goa",
}

// MatchesLocation reports whether the utterance plausibly answers the
// location question: a known place name, an address-style keyword, or an
// "I live in / I am from" phrase.
func MatchesLocation(utterance string) bool {
	u := strings.ToLower(strings.TrimSpace(utterance))
	if u == "" {
		return false
	}
	for _, p := range locationPhrases {
		if strings.Contains(u, p) {
			return true
		}
	}
	for _, k := range addressKeywords {
		if strings.Contains(u, k) {
			return true
		}
	}
	for _, city := range placeNames {
		if strings.Contains(u, city) {
			return true
		}
	}
	return false
}

var greetingWords = map[string]struct{}{
	"hi": {}, "hii": {}, "hiii": {}, "hello": {}, "hey": {}, "yo": {},
	"namaste": {}, "namaskar": {}, "hola": {}, "good morning": {},
	"good afternoon": {}, "good evening": {}, "hello ji": {}, "hi there": {},
}

// IsGreetingOnly reports whether the utterance is nothing but a greeting.
func IsGreetingOnly(utterance string) bool {
	u := strings.ToLower(strings.TrimSpace(utterance))
	u = strings.Trim(u, "!.?")
	_, ok := greetingWords[u]
	return ok
}

// TrackGreeting maintains the running greeting counter: incremented on
// greeting-only utterances, reset on anything else.
func TrackGreeting(s *session.State, utterance string) {
	if IsGreetingOnly(utterance) {
		s.GreetingCount++
		return
	}
	s.GreetingCount = 0
}
