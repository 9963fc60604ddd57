package graph

import (
	"context"
	"fmt"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"kirana-agent/internal/agent/graph/conversations"
	"kirana-agent/internal/agent/graph/nodes"
	"kirana-agent/internal/agent/model"
	"kirana-agent/internal/search"
	"kirana-agent/internal/session"
)

// fakeChatModel returns scripted replies in order; once the script runs
// out, it keeps returning the last entry. An entry of "" yields an error.
type fakeChatModel struct {
	replies []string
	calls   int
}

func (f *fakeChatModel) Generate(ctx context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	if idx < 0 || f.replies[idx] == "" {
		return nil, fmt.Errorf("provider unavailable")
	}
	return schema.AssistantMessage(f.replies[idx], nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

type fakeSearchClient struct {
	lastQuery string
	fail      bool
}

func (f *fakeSearchClient) Search(_ context.Context, req search.Request) (*search.Result, error) {
	f.lastQuery = req.Query
	if f.fail {
		return nil, fmt.Errorf("search down")
	}
	return &search.Result{
		Answer: "Milk is around ₹55",
		Items:  []search.Item{{Title: "Blinkit", Content: "Amul Taaza 1L ₹54"}},
	}, nil
}

const analysisScript = "INTENT: product_price\nLANGUAGE: english\nITEMS: milk\nPRICING: ₹50-60\nNOTES: price check\n<|COMPLETE|>"

func newTestRunner(t *testing.T, repo session.Repository, sc search.Client, analysisReplies, responseReplies []string) Runner {
	t.Helper()

	cfg := model.ConversationConfig{TTL: "30m"}
	cfg.Analysis.MaxTurns = 6

	runnable, err := BuildGraph(context.Background(), &GraphConfig{
		ChatModels: &nodes.ChatModels{
			Analysis:          &fakeChatModel{replies: analysisReplies},
			Response:          &fakeChatModel{replies: responseReplies},
			AnalysisModelName: "fake-analysis",
			ResponseModelName: "fake-response",
		},
		ContextBuilder:    conversations.NewContextBuilder(cfg),
		SessionRepo:       repo,
		SearchClient:      sc,
		SearchMaxResults:  3,
		Prompt:            model.PromptConfig{StoreName: "KiranaKart", Platforms: "Blinkit, Zepto"},
		GenerationTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	return NewRunner(runnable)
}

// advancePastOnboarding runs the three location-protocol turns.
func advancePastOnboarding(t *testing.T, r Runner, sessionID string) {
	t.Helper()
	ctx := context.Background()

	_, err := r.ProcessTurn(ctx, model.TurnInput{SessionID: sessionID, Utterance: "hi"})
	require.NoError(t, err)
	_, err = r.ProcessTurn(ctx, model.TurnInput{SessionID: sessionID, Utterance: "I live in Mumbai"})
	require.NoError(t, err)
	_, err = r.ProcessTurn(ctx, model.TurnInput{SessionID: sessionID, Utterance: "hello again"})
	require.NoError(t, err)
}

func TestOnboardingShortCircuits(t *testing.T) {
	ctx := context.Background()
	repo := session.NewInMemoryRepository()
	r := newTestRunner(t, repo, &fakeSearchClient{}, []string{analysisScript}, []string{"should not be called"})

	reply, err := r.ProcessTurn(ctx, model.TurnInput{SessionID: "s1", Utterance: "hi"})
	require.NoError(t, err)
	require.Contains(t, reply, "city or area")

	reply, err = r.ProcessTurn(ctx, model.TurnInput{SessionID: "s1", Utterance: "I live in Mumbai"})
	require.NoError(t, err)
	require.Contains(t, reply, "location")

	reply, err = r.ProcessTurn(ctx, model.TurnInput{SessionID: "s1", Utterance: "milk price?"})
	require.NoError(t, err)
	require.Contains(t, reply, "Welcome")

	st, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "I live in Mumbai", st.Location)
	require.True(t, st.Welcomed)
	require.Len(t, st.History, 6)
}

func TestPipelineTurnRunsSearchAndModels(t *testing.T) {
	ctx := context.Background()
	repo := session.NewInMemoryRepository()
	sc := &fakeSearchClient{}
	r := newTestRunner(t, repo, sc,
		[]string{analysisScript},
		[]string{"Milk is ₹54 on Blinkit. Should I add it to your cart?"},
	)
	advancePastOnboarding(t, r, "s1")

	reply, err := r.ProcessTurn(ctx, model.TurnInput{SessionID: "s1", Utterance: "1 litre milk price?"})
	require.NoError(t, err)
	require.Equal(t, "Milk is ₹54 on Blinkit. Should I add it to your cart?", reply)

	require.Contains(t, sc.lastQuery, "1 litre milk price?")
	require.Contains(t, sc.lastQuery, "Blinkit")
	require.Contains(t, sc.lastQuery, "I live in Mumbai")

	// No confirmation: the cart is untouched.
	st, _ := repo.Load(ctx, "s1")
	require.Empty(t, st.Cart)
	require.Zero(t, st.CartTotal)
}

func TestConfirmationCommitsCart(t *testing.T) {
	ctx := context.Background()
	repo := session.NewInMemoryRepository()
	r := newTestRunner(t, repo, &fakeSearchClient{},
		[]string{analysisScript},
		[]string{
			"Milk is ₹54 on Blinkit. Should I add it to your cart?",
			"CART_ADD: Milk ₹54 Added! Milk ₹54 is in your cart now.",
		},
	)
	advancePastOnboarding(t, r, "s1")

	_, err := r.ProcessTurn(ctx, model.TurnInput{SessionID: "s1", Utterance: "milk price batao"})
	require.NoError(t, err)

	reply, err := r.ProcessTurn(ctx, model.TurnInput{SessionID: "s1", Utterance: "yes"})
	require.NoError(t, err)
	require.NotContains(t, reply, "CART_ADD")
	require.Contains(t, reply, "Added!")

	st, _ := repo.Load(ctx, "s1")
	require.Len(t, st.Cart, 1)
	require.Equal(t, "Milk", st.Cart[0].Name)
	require.Equal(t, 54, st.CartTotal)
}

func TestReconfirmationDuplicatesItems(t *testing.T) {
	ctx := context.Background()
	repo := session.NewInMemoryRepository()
	r := newTestRunner(t, repo, &fakeSearchClient{},
		[]string{analysisScript},
		[]string{
			"Milk is ₹54 on Blinkit. Should I add it to your cart?",
			"CART_ADD: Milk ₹54 Added! Milk ₹54 is in your cart now.",
			"CART_ADD: Milk ₹54 Added again! Milk ₹54 is in your cart now.",
		},
	)
	advancePastOnboarding(t, r, "s1")

	_, err := r.ProcessTurn(ctx, model.TurnInput{SessionID: "s1", Utterance: "milk price batao"})
	require.NoError(t, err)
	_, err = r.ProcessTurn(ctx, model.TurnInput{SessionID: "s1", Utterance: "yes"})
	require.NoError(t, err)
	_, err = r.ProcessTurn(ctx, model.TurnInput{SessionID: "s1", Utterance: "yes"})
	require.NoError(t, err)

	// Nothing deduplicates across turns: two commits, two line items.
	st, _ := repo.Load(ctx, "s1")
	require.Len(t, st.Cart, 2)
	require.Equal(t, 108, st.CartTotal)
	require.Equal(t, st.SumCart(), st.CartTotal)
}

func TestSearchFailureDegradesToEmptyContext(t *testing.T) {
	ctx := context.Background()
	repo := session.NewInMemoryRepository()
	r := newTestRunner(t, repo, &fakeSearchClient{fail: true},
		[]string{analysisScript},
		[]string{"Milk is usually around ₹50-60."},
	)
	advancePastOnboarding(t, r, "s1")

	reply, err := r.ProcessTurn(ctx, model.TurnInput{SessionID: "s1", Utterance: "milk price?"})
	require.NoError(t, err)
	require.Equal(t, "Milk is usually around ₹50-60.", reply)
}

func TestResponseModelFailureYieldsApology(t *testing.T) {
	ctx := context.Background()
	repo := session.NewInMemoryRepository()
	r := newTestRunner(t, repo, &fakeSearchClient{},
		[]string{analysisScript},
		[]string{""}, // provider error
	)
	advancePastOnboarding(t, r, "s1")

	reply, err := r.ProcessTurn(ctx, model.TurnInput{SessionID: "s1", Utterance: "milk price?"})
	require.NoError(t, err)
	require.Contains(t, reply, "try again")

	// The apology still lands in history via the commit node.
	st, _ := repo.Load(ctx, "s1")
	require.Equal(t, session.RoleAssistant, st.History[len(st.History)-1].Role)
	require.Contains(t, st.History[len(st.History)-1].Content, "try again")
}

func TestAnalysisFailureStillAnswers(t *testing.T) {
	ctx := context.Background()
	repo := session.NewInMemoryRepository()
	r := newTestRunner(t, repo, &fakeSearchClient{},
		[]string{""}, // analysis provider error
		[]string{"Here is what I know from our chat."},
	)
	advancePastOnboarding(t, r, "s1")

	reply, err := r.ProcessTurn(ctx, model.TurnInput{SessionID: "s1", Utterance: "milk price?"})
	require.NoError(t, err)
	require.Equal(t, "Here is what I know from our chat.", reply)
}

func TestEmptySessionIDRejected(t *testing.T) {
	repo := session.NewInMemoryRepository()
	r := newTestRunner(t, repo, &fakeSearchClient{}, []string{analysisScript}, []string{"ok"})

	_, err := r.ProcessTurn(context.Background(), model.TurnInput{Utterance: "hi"})
	require.Error(t, err)
}
