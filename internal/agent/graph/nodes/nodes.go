package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"kirana-agent/internal/agent/cart"
	"kirana-agent/internal/agent/classify"
	"kirana-agent/internal/agent/flow"
	"kirana-agent/internal/agent/graph/conversations"
	"kirana-agent/internal/agent/graph/parsers"
	"kirana-agent/internal/agent/graph/prompts"
	"kirana-agent/internal/agent/memory"
	"kirana-agent/internal/agent/model"
	"kirana-agent/internal/search"
	"kirana-agent/internal/session"
	logx "kirana-agent/pkg/logger"
)

// Graph node names.
const (
	NodeSessionGate   = "SessionGate"
	NodeShortCircuit  = "ShortCircuit"
	NodeClassifier    = "Classifier"
	NodeSearch        = "Search"
	NodeAnalysisAgent = "AnalysisAgent"
	NodeResponseAgent = "ResponseAgent"
	NodeCartCommit    = "CartCommit"
)

// NewSessionGatePreHandler creates the pre-handler for the SessionGate node
func NewSessionGatePreHandler() func(context.Context, model.TurnInput, *model.TurnState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.TurnState) (model.TurnInput, error) {
		s.SessionID = in.SessionID
		s.Utterance = in.Utterance
		// Reset per-turn fields for each new turn
		s.Session = nil
		s.Decision = nil
		s.Classification = classify.Result{}
		s.SearchQuery = ""
		s.SearchContext = ""
		s.Analysis = nil
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewSessionGateNode loads the session working copy, records the user turn
// and runs the location-elicitation step. All mutations land on the working
// copy; nothing is persisted until a commit node saves it.
func NewSessionGateNode(repo session.Repository) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (flow.Decision, error) {
		st, err := repo.Load(ctx, in.SessionID)
		if err != nil {
			return flow.Decision{}, fmt.Errorf("load session %s: %w", in.SessionID, err)
		}

		st.AppendTurn(session.RoleUser, in.Utterance)
		flow.TrackGreeting(st, in.Utterance)
		decision := flow.Decide(st, in.Utterance)

		logx.Debug().
			Str("sessionID", in.SessionID).
			Str("phase", flow.PhaseOf(st).String()).
			Int("historyLen", len(st.History)).
			Msg("session gate decided")

		err = compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			s.Session = st
			s.Decision = &decision
			return nil
		})
		if err != nil {
			return flow.Decision{}, fmt.Errorf("failed to access state: %w", err)
		}

		return decision, nil
	})
}

// NewGateCondition routes short-circuit decisions away from the pipeline.
func NewGateCondition() func(context.Context, flow.Decision) (string, error) {
	return func(ctx context.Context, d flow.Decision) (string, error) {
		if d.Kind == flow.DecideProceed {
			return NodeClassifier, nil
		}
		return NodeShortCircuit, nil
	}
}

// NewShortCircuitNode answers location-protocol turns with their fixed reply
// and commits the session. Persistence failures are logged but do not
// withhold the reply from the user.
func NewShortCircuitNode(repo session.Repository) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, d flow.Decision) (*schema.Message, error) {
		reply := d.Reply()

		var st *session.State
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			st = s.Session
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		if st == nil {
			return nil, fmt.Errorf("missing session in state")
		}

		st.AppendTurn(session.RoleAssistant, reply)
		if err := repo.Save(ctx, st); err != nil {
			logx.Error().Str("sessionID", st.ID).Err(err).Msg("Error saving session in short-circuit")
		}

		return schema.AssistantMessage(reply, nil), nil
	})
}

// NewClassifierNode classifies the current utterance.
func NewClassifierNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, d flow.Decision) (classify.Result, error) {
		var utterance string
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			utterance = s.Utterance
			return nil
		})
		if err != nil {
			return classify.Result{}, fmt.Errorf("failed to access state: %w", err)
		}
		return classify.Classify(utterance), nil
	})
}

// NewClassifierPostHandler stores the classification and derives the search
// query from it. Inappropriate turns yield no query, which downstream reads
// as "skip search".
func NewClassifierPostHandler() func(context.Context, classify.Result, *model.TurnState) (classify.Result, error) {
	return func(ctx context.Context, out classify.Result, state *model.TurnState) (classify.Result, error) {
		state.Classification = out

		location := ""
		if state.Session != nil {
			location = state.Session.Location
		}
		if q, ok := classify.BuildSearchQuery(state.Utterance, location, out.Category); ok {
			state.SearchQuery = q
		}

		logx.Debug().
			Str("sessionID", state.SessionID).
			Str("category", string(out.Category)).
			Str("language", string(out.Language)).
			Str("searchQuery", state.SearchQuery).
			Msg("utterance classified")

		return out, nil
	}
}

// NewSearchNode runs the web search for the derived query. Search failures
// degrade to an empty context rather than aborting the turn.
func NewSearchNode(client search.Client, maxResults int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, c classify.Result) (string, error) {
		var query, sessionID string
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			query = s.SearchQuery
			sessionID = s.SessionID
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}

		if query == "" || client == nil {
			return "", nil
		}

		res, err := client.Search(ctx, search.Request{
			Query:      query,
			Depth:      search.DepthBasic,
			MaxResults: maxResults,
		})
		if err != nil {
			logx.Warn().Str("sessionID", sessionID).Err(err).Msg("search failed; continuing without results")
			return "", nil
		}

		return search.FormatContext(res), nil
	})
}

// NewSearchPostHandler stores the rendered search context.
func NewSearchPostHandler() func(context.Context, string, *model.TurnState) (string, error) {
	return func(ctx context.Context, out string, state *model.TurnState) (string, error) {
		state.SearchContext = out
		return out, nil
	}
}

// NewAnalysisAgentNode runs the analysis model over the windowed context.
// Provider failures and timeouts degrade to a placeholder analysis so the
// response stage still runs; caller cancellation still aborts the turn.
func NewAnalysisAgentNode(
	cm *ChatModels,
	cb *conversations.ContextBuilder,
	promptCfg model.PromptConfig,
	genTimeout time.Duration,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, searchCtx string) (model.Analysis, error) {
		var st *session.State
		var utterance string
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			st = s.Session
			utterance = s.Utterance
			return nil
		})
		if err != nil {
			return model.Analysis{}, fmt.Errorf("failed to access state: %w", err)
		}
		if st == nil {
			return model.Analysis{}, fmt.Errorf("missing session in state")
		}

		systemPrompt, err := prompts.RenderAnalysisSystem(ctx, promptCfg)
		if err != nil {
			return model.Analysis{}, fmt.Errorf("render analysis system prompt: %w", err)
		}

		messages := []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(cb.BuildAnalysisContext(st, utterance, searchCtx)),
		}

		genCtx, cancel := context.WithTimeout(ctx, genTimeout)
		defer cancel()

		out, err := cm.Analysis.Generate(genCtx, messages)
		if err != nil {
			if ctx.Err() != nil {
				return model.Analysis{}, ctx.Err()
			}
			logx.Warn().Str("sessionID", st.ID).Err(err).Msg("analysis model failed; using degraded analysis")
			return model.DegradedAnalysis(), nil
		}

		recordCost(ctx, NodeAnalysisAgent, cm.AnalysisModelName, out)

		return parsers.ParseAnalysis(out.Content), nil
	})
}

// NewAnalysisPostHandler stores the analysis on the turn state.
func NewAnalysisPostHandler() func(context.Context, model.Analysis, *model.TurnState) (model.Analysis, error) {
	return func(ctx context.Context, out model.Analysis, state *model.TurnState) (model.Analysis, error) {
		state.Analysis = &out

		evt := logx.Debug().
			Str("sessionID", state.SessionID).
			Str("intent", string(out.Intent)).
			Str("language", out.Language).
			Bool("degraded", out.Degraded)
		if len(out.ParseErrors) > 0 {
			evt = evt.Int("parseErrors", len(out.ParseErrors))
		}
		evt.Msg("analysis ready")

		return out, nil
	}
}

// NewResponseAgentNode runs the response model over the full history behind
// the analysis-derived system prompt. Provider failures degrade to a fixed
// apology in the analyzed language.
func NewResponseAgentNode(
	cm *ChatModels,
	cb *conversations.ContextBuilder,
	promptCfg model.PromptConfig,
	genTimeout time.Duration,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, a model.Analysis) (*schema.Message, error) {
		var st *session.State
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			st = s.Session
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		if st == nil {
			return nil, fmt.Errorf("missing session in state")
		}

		systemPrompt, err := prompts.RenderResponseSystem(ctx, promptCfg, a)
		if err != nil {
			return nil, fmt.Errorf("render response system prompt: %w", err)
		}

		messages := cb.BuildResponseMessages(st, systemPrompt)

		genCtx, cancel := context.WithTimeout(ctx, genTimeout)
		defer cancel()

		out, err := cm.Response.Generate(genCtx, messages)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logx.Warn().Str("sessionID", st.ID).Err(err).Msg("response model failed; using apology reply")
			return schema.AssistantMessage(apologyFor(a.Language), nil), nil
		}

		recordCost(ctx, NodeResponseAgent, cm.ResponseModelName, out)

		return out, nil
	})
}

// NewCartCommitNode applies confirmed cart mutations from the reply, records
// memory, appends the assistant turn and persists the session. This is the
// single commit point for pipeline turns.
func NewCartCommitNode(repo session.Repository) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, reply *schema.Message) (*schema.Message, error) {
		var st *session.State
		var utterance string
		var costUSD float64
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			st = s.Session
			utterance = s.Utterance
			costUSD = s.TotalCostUSD
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		if st == nil {
			return nil, fmt.Errorf("missing session in state")
		}

		prev, hasPrev := st.PrecedingAssistantTurn()
		confirmed := cart.DetectConfirmation(utterance, prev.Content, hasPrev)

		replyText := ""
		if reply != nil {
			replyText = reply.Content
		}
		extraction := cart.Extract(replyText, confirmed, prev.Content)

		now := time.Now().UTC()
		for _, it := range extraction.Items {
			st.AddItem(it.Name, it.Price, now)
		}

		visible := extraction.Visible
		if extraction.UsedFallback {
			summary := cart.FallbackSummary(extraction.Items, st.CartTotal)
			if visible != "" {
				visible = visible + "\n" + summary
			} else {
				visible = summary
			}
		}

		if len(extraction.Items) > 0 {
			logx.Info().
				Str("sessionID", st.ID).
				Int("itemsAdded", len(extraction.Items)).
				Int("cartTotal", st.CartTotal).
				Bool("fallback", extraction.UsedFallback).
				Msg("cart updated")
		}

		memory.Record(st, utterance, visible, now)
		st.AppendTurn(session.RoleAssistant, visible)

		if err := repo.Save(ctx, st); err != nil {
			logx.Error().Str("sessionID", st.ID).Err(err).Msg("Error saving session after commit")
		}

		if model.CostEnabled() && costUSD > 0 {
			logx.Debug().Str("sessionID", st.ID).Float64("total_cost_usd", costUSD).Msg("turn cost")
		}

		return schema.AssistantMessage(visible, nil), nil
	})
}

// recordCost accumulates USD usage cost for one model call into turn state.
func recordCost(ctx context.Context, node, modelName string, out *schema.Message) {
	if !model.CostEnabled() || out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	pricing := model.ResolvePricing(modelName)
	inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)

	var sessionID string
	_ = compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
		s.TotalCostUSD += totalC
		sessionID = s.SessionID
		return nil
	})

	logx.Debug().
		Str("sessionID", sessionID).
		Str("node", node).
		Str("model", modelName).
		Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
		Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

func apologyFor(language string) string {
	if language == "hinglish" {
		return "Maaf kijiye! 🙏 Abhi thoda issue aa raha hai, please thodi der baad try karein."
	}
	return "Sorry! 🙏 I'm having a little trouble right now. Please try again in a moment."
}
