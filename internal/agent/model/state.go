package model

import (
	"kirana-agent/internal/agent/classify"
	"kirana-agent/internal/agent/flow"
	"kirana-agent/internal/session"
)

// TurnState stores per-turn state for the Eino graph.
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers
//     (WithStatePreHandler, WithStatePostHandler, compose.ProcessState),
//     which Eino serializes, so no extra locking is needed.
//   - Session is a working copy; it is persisted only by the commit
//     nodes, so a cancelled turn leaves stored state untouched.
type TurnState struct {
	SessionID string
	Utterance string

	Session        *session.State
	Decision       *flow.Decision
	Classification classify.Result
	SearchQuery    string
	SearchContext  string
	Analysis       *Analysis

	// Accumulated LLM cost (USD) across model invocations for this turn.
	TotalCostUSD float64
}

// TurnInput is the public input for processing one user turn.
type TurnInput struct {
	SessionID string `json:"session_id"`
	Utterance string `json:"utterance"`
}
