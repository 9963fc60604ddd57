package flow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kirana-agent/internal/session"
)

func TestFirstTurnAlwaysAsksLocation(t *testing.T) {
	for _, utterance := range []string{"hi", "2kg aloo kitne ka?", "I live in Mumbai"} {
		s := session.New("s1")
		d := Decide(s, utterance)

		require.Equal(t, DecideAskLocation, d.Kind, "utterance %q", utterance)
		require.True(t, s.LocationAsked)
		require.Empty(t, s.Location, "first turn must not capture a location")
		require.NotEmpty(t, d.Reply())
	}
}

func TestAwaitedLocationCaptured(t *testing.T) {
	s := session.New("s1")
	s.LocationAsked = true

	d := Decide(s, "  I live in Mumbai ")
	require.Equal(t, DecideLocationCaptured, d.Kind)
	require.Equal(t, "I live in Mumbai", s.Location)
	require.False(t, s.Welcomed)
}

func TestAwaitedLocationNonMatchFallsThrough(t *testing.T) {
	s := session.New("s1")
	s.LocationAsked = true

	d := Decide(s, "what is the price of milk?")
	require.Equal(t, DecideProceed, d.Kind)
	require.Empty(t, s.Location)
	// Still awaiting: a later matching answer is captured.
	require.Equal(t, PhaseAskedAwaiting, PhaseOf(s))
}

func TestWelcomeIssuedOnceAfterLocation(t *testing.T) {
	s := session.New("s1")
	s.LocationAsked = true
	s.Location = "Mumbai"

	d := Decide(s, "doodh ka price batao")
	require.Equal(t, DecideWelcome, d.Kind)
	require.True(t, s.Welcomed)

	// The utterance that triggered the welcome was consumed, not answered.
	d = Decide(s, "doodh ka price batao")
	require.Equal(t, DecideProceed, d.Kind)
}

func TestLocationNeverOverwritten(t *testing.T) {
	s := session.New("s1")
	s.LocationAsked = true
	s.Location = "Mumbai"
	s.Welcomed = true

	d := Decide(s, "I live in Pune now")
	require.Equal(t, DecideProceed, d.Kind)
	require.Equal(t, "Mumbai", s.Location)
}

func TestMatchesLocation(t *testing.T) {
	matching := []string{
		"I live in Mumbai",
		"main rehta hoon jaipur me",
		"Sector 21 Noida",
		"pincode 400001",
		"bangalore",
	}
	for _, u := range matching {
		require.True(t, MatchesLocation(u), "expected match for %q", u)
	}

	nonMatching := []string{"", "what is the price of milk?", "hello"}
	for _, u := range nonMatching {
		require.False(t, MatchesLocation(u), "expected no match for %q", u)
	}
}

func TestTrackGreeting(t *testing.T) {
	s := session.New("s1")

	TrackGreeting(s, "hi")
	TrackGreeting(s, "Namaste!")
	require.Equal(t, 2, s.GreetingCount)

	TrackGreeting(s, "2kg rice please")
	require.Equal(t, 0, s.GreetingCount)
}
