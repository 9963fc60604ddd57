package conversations

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"

	"kirana-agent/internal/agent/model"
	"kirana-agent/internal/session"
)

// ContextBuilder assembles model inputs from session state: a windowed
// conversation context for the analysis stage and full role-mapped
// history for the response stage.
type ContextBuilder struct {
	analysisMaxTurns int
}

func NewContextBuilder(cfg model.ConversationConfig) *ContextBuilder {
	return &ContextBuilder{analysisMaxTurns: cfg.Analysis.MaxTurns}
}

// BuildAnalysisContext renders the analysis stage's user message: a
// recent-turns window, the current message, the search results and the
// remembered user notes. The current utterance is already the last
// history entry and is excluded from the window block.
func (b *ContextBuilder) BuildAnalysisContext(s *session.State, utterance, searchContext string) string {
	var full strings.Builder

	window := s.History
	if len(window) > 0 {
		window = window[:len(window)-1]
	}
	window = trimTail(window, b.analysisMaxTurns)

	full.WriteString("<conversation_context>\n")
	for _, t := range window {
		if t.Content == "" {
			continue
		}
		switch t.Role {
		case session.RoleUser:
			full.WriteString("UserMessage(" + t.Content + ")\n")
		case session.RoleAssistant:
			full.WriteString("AssistantMessage(" + t.Content + ")\n")
		}
	}
	full.WriteString("</conversation_context>\n")

	full.WriteString("<current_message_to_analyze>\n")
	full.WriteString("UserMessage(" + utterance + ")\n")
	full.WriteString("</current_message_to_analyze>\n")

	if s.Location != "" {
		full.WriteString("<user_location>" + s.Location + "</user_location>\n")
	}

	if searchContext != "" {
		full.WriteString("<search_results>\n")
		full.WriteString(searchContext)
		full.WriteString("\n</search_results>\n")
	}

	if notes := memoryLines(s); notes != "" {
		full.WriteString("<user_memory>\n")
		full.WriteString(notes)
		full.WriteString("\n</user_memory>\n")
	}

	return strings.TrimRight(full.String(), "\n")
}

// BuildResponseMessages maps the full session history behind the system
// prompt for the response stage.
func (b *ContextBuilder) BuildResponseMessages(s *session.State, systemPrompt string) []*schema.Message {
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
	}
	for _, t := range s.History {
		if t.Content == "" {
			continue
		}
		switch t.Role {
		case session.RoleUser:
			messages = append(messages, schema.UserMessage(t.Content))
		case session.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(t.Content, nil))
		}
	}
	return messages
}

// memoryLines renders user memory entries in key order.
func memoryLines(s *session.State) string {
	if len(s.UserMemory) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s.UserMemory))
	for k := range s.UserMemory {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return noteSeq(keys[i]) < noteSeq(keys[j]) })

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+s.UserMemory[k].Info)
	}
	return strings.Join(lines, "\n")
}

func noteSeq(key string) int {
	idx := strings.LastIndex(key, "-")
	if idx < 0 {
		return 0
	}
	n, _ := strconv.Atoi(key[idx+1:])
	return n
}

// trimTail keeps at most maxTurns trailing turns.
func trimTail(turns []session.Turn, maxTurns int) []session.Turn {
	if maxTurns <= 0 || len(turns) <= maxTurns {
		return turns
	}
	return turns[len(turns)-maxTurns:]
}
