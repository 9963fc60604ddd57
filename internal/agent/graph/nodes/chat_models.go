package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"kirana-agent/internal/agent/model"
	logx "kirana-agent/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey         string
	BaseURL        string
	AnalysisConfig *model.AnalysisModelConfig
	RespConfig     *model.ResponseModelConfig
}

// ChatModels holds the analysis and response chat models. They are kept
// behind the Eino BaseChatModel interface so tests can substitute fakes.
type ChatModels struct {
	Analysis          einomodel.BaseChatModel
	Response          einomodel.BaseChatModel
	AnalysisModelName string
	ResponseModelName string
}

// NewChatModels creates both analysis and response chat models with the given configuration
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModelAnalysis, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.AnalysisConfig.Model,
		Temperature: &config.AnalysisConfig.Temperature,
		MaxTokens:   &config.AnalysisConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating analysis model")
		return nil, fmt.Errorf("error creating analysis model: %w", err)
	}

	chatModelResponse, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.RespConfig.Model,
		Temperature: &config.RespConfig.Temperature,
		MaxTokens:   &config.RespConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating response model")
		return nil, fmt.Errorf("error creating response model: %w", err)
	}

	return &ChatModels{
		Analysis:          chatModelAnalysis,
		Response:          chatModelResponse,
		AnalysisModelName: config.AnalysisConfig.Model,
		ResponseModelName: config.RespConfig.Model,
	}, nil
}
