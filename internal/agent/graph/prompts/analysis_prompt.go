package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"kirana-agent/internal/agent/model"
)

//go:embed template/analysis_prompt.txt
var analysisSystemPrompt string

const intentList = "product_price | weather | party | inappropriate | general"

// RenderAnalysisSystem renders the analysis (Supervisor) system prompt via
// the Eino prompt component. This triggers prompt callbacks and returns
// the final system prompt string.
func RenderAnalysisSystem(ctx context.Context, cfg model.PromptConfig) (string, error) {
	// Safely render known tokens only so header-grammar braces in the
	// template are left alone.
	content := strings.NewReplacer(
		"{CD}", "<|COMPLETE|>",
		"{store_name}", cfg.StoreName,
		"{platforms}", cfg.Platforms,
		"{intent_list}", intentList,
	).Replace(analysisSystemPrompt)

	// Wrap via Eino prompt component using a messages placeholder to emit callbacks
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("analysis prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("analysis prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}
