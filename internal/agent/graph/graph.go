package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"kirana-agent/internal/agent/graph/conversations"
	"kirana-agent/internal/agent/graph/nodes"
	"kirana-agent/internal/agent/graph/observers"
	"kirana-agent/internal/agent/model"
	"kirana-agent/internal/search"
	"kirana-agent/internal/session"
	logx "kirana-agent/pkg/logger"
)

// Runner is a thin wrapper to execute the compiled graph with the public TurnInput.
type Runner interface {
	ProcessTurn(ctx context.Context, in model.TurnInput) (string, error)
}

// Config holds everything needed to compose the full turn graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs ChatModels
// and the ContextBuilder.
type Config struct {
	APIKey        string
	BaseURL       string
	AnalysisModel model.AnalysisModelConfig
	ResponseModel model.ResponseModelConfig
	Prompt        model.PromptConfig
	Conversation  model.ConversationConfig

	SessionRepo      session.Repository
	SearchClient     search.Client
	SearchMaxResults int
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels        *nodes.ChatModels
	ContextBuilder    *conversations.ContextBuilder
	SessionRepo       session.Repository
	SearchClient      search.Client
	SearchMaxResults  int
	Prompt            model.PromptConfig
	GenerationTimeout time.Duration
}

// GraphBuilder handles the construction of the turn pipeline graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.TurnInput, *schema.Message]
}

type graphRunner struct {
	runnable compose.Runnable[model.TurnInput, *schema.Message]
	locks    *session.Registry
}

// ProcessTurn runs one turn through the graph. Turns for the same session
// are serialized behind a per-session lock; different sessions run
// concurrently.
func (r *graphRunner) ProcessTurn(ctx context.Context, in model.TurnInput) (string, error) {
	if in.SessionID == "" {
		return "", fmt.Errorf("session id is empty")
	}

	unlock := r.locks.Lock(in.SessionID)
	defer unlock()

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", nil
	}
	return out.Content, nil
}

// BuildTurnGraph composes ChatModels and the ContextBuilder, builds the
// graph, and returns a Runner.
func BuildTurnGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.SessionRepo == nil {
		return nil, fmt.Errorf("session repo is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		AnalysisConfig: &cfg.AnalysisModel,
		RespConfig:     &cfg.ResponseModel,
	})
	if err != nil {
		return nil, err
	}

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:        cms,
		ContextBuilder:    conversations.NewContextBuilder(cfg.Conversation),
		SessionRepo:       cfg.SessionRepo,
		SearchClient:      cfg.SearchClient,
		SearchMaxResults:  cfg.SearchMaxResults,
		Prompt:            cfg.Prompt,
		GenerationTimeout: generationTimeout(cfg.Conversation),
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Turn graph built successfully")
	return NewRunner(runnable), nil
}

// NewRunner wraps a compiled graph with the per-session lock registry.
func NewRunner(runnable compose.Runnable[model.TurnInput, *schema.Message]) Runner {
	return &graphRunner{
		runnable: runnable,
		locks:    session.NewRegistry(),
	}
}

// BuildGraph constructs and returns the compiled turn graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TurnInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Analysis == nil || config.ChatModels.Response == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.ContextBuilder == nil {
		return nil, fmt.Errorf("context builder is nil")
	}
	if config.SessionRepo == nil {
		return nil, fmt.Errorf("session repo is nil")
	}
	if config.GenerationTimeout <= 0 {
		config.GenerationTimeout = 60 * time.Second
	}
	if config.SearchMaxResults <= 0 {
		config.SearchMaxResults = 5
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeSessionGate,
		nodes.NewSessionGateNode(b.config.SessionRepo),
		compose.WithStatePreHandler(nodes.NewSessionGatePreHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeShortCircuit,
		nodes.NewShortCircuitNode(b.config.SessionRepo),
	)

	b.graph.AddLambdaNode(nodes.NodeClassifier,
		nodes.NewClassifierNode(),
		compose.WithStatePostHandler(nodes.NewClassifierPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeSearch,
		nodes.NewSearchNode(b.config.SearchClient, b.config.SearchMaxResults),
		compose.WithStatePostHandler(nodes.NewSearchPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeAnalysisAgent,
		nodes.NewAnalysisAgentNode(b.config.ChatModels, b.config.ContextBuilder, b.config.Prompt, b.config.GenerationTimeout),
		compose.WithStatePostHandler(nodes.NewAnalysisPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeResponseAgent,
		nodes.NewResponseAgentNode(b.config.ChatModels, b.config.ContextBuilder, b.config.Prompt, b.config.GenerationTimeout),
	)

	b.graph.AddLambdaNode(nodes.NodeCartCommit,
		nodes.NewCartCommitNode(b.config.SessionRepo),
	)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeSessionGate},
		{nodes.NodeShortCircuit, compose.END},
		{nodes.NodeClassifier, nodes.NodeSearch},
		{nodes.NodeSearch, nodes.NodeAnalysisAgent},
		{nodes.NodeAnalysisAgent, nodes.NodeResponseAgent},
		{nodes.NodeResponseAgent, nodes.NodeCartCommit},
		{nodes.NodeCartCommit, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	gateBranch := compose.NewGraphBranch(
		nodes.NewGateCondition(),
		map[string]bool{
			nodes.NodeShortCircuit: true,
			nodes.NodeClassifier:   true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeSessionGate, gateBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding gate branch")
		return fmt.Errorf("error adding gate branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *schema.Message], error) {
	// The pipeline is acyclic; the step limit only guards against wiring
	// mistakes.
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(20))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	return runnable, nil
}

func generationTimeout(cfg model.ConversationConfig) time.Duration {
	if cfg.GenerationTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(cfg.GenerationTimeoutSeconds) * time.Second
}
