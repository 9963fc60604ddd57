package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"kirana-agent/internal/agent/model"
)

//go:embed template/response_prompt.txt
var responseSystemPrompt string

// RenderResponseSystem renders the dynamic response (Boss) system prompt,
// embedding the typed analysis, and triggers prompt callbacks.
func RenderResponseSystem(ctx context.Context, cfg model.PromptConfig, a model.Analysis) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(responseSystemPrompt),
	)
	vars := map[string]any{
		"StoreName": cfg.StoreName,
		"Intent":    string(a.Intent),
		"Language":  a.Language,
		"Items":     a.Items,
		"Pricing":   a.Pricing,
		"Notes":     a.Notes,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("response prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("response prompt render: empty result")
	}
	return msgs[0].Content, nil
}
