package chat

import (
	"github.com/TuanStark/english-learning-ai-assistant/pkg/llm"
)

// SanitizeHistory removes assistant tool-call turns whose tool responses
// never made it into the stored history. The chat completions API rejects
// a conversation where an assistant message advertises tool calls that
// have no matching tool messages, so a half-persisted exchange has to be
// dropped wholesale rather than repaired.
//
// Two passes: the first indexes which tool call ids actually have a tool
// response, the second rebuilds the history keeping only complete
// exchanges. A dangling assistant turn also drops the tool messages that
// followed it.
func SanitizeHistory(history []llm.Message) []llm.Message {
	if len(history) == 0 {
		return history
	}

	answered := make(map[string]bool)
	for _, msg := range history {
		if msg.Role == "assistant" {
			for _, tc := range msg.ToolCalls {
				if _, ok := answered[tc.ID]; !ok {
					answered[tc.ID] = false
				}
			}
		}
		if msg.Role == "tool" && msg.ToolCallID != "" {
			// Only ids an assistant actually emitted count as answered;
			// an orphan tool message must not vouch for itself.
			if _, ok := answered[msg.ToolCallID]; ok {
				answered[msg.ToolCallID] = true
			}
		}
	}

	cleaned := make([]llm.Message, 0, len(history))
	skipping := false
	for _, msg := range history {
		switch {
		case msg.Role == "user":
			skipping = false
			cleaned = append(cleaned, msg)
		case skipping:
			// Inside a broken exchange, drop everything until the next
			// user turn.
		case msg.Role == "assistant" && len(msg.ToolCalls) > 0:
			complete := true
			for _, tc := range msg.ToolCalls {
				if !answered[tc.ID] {
					complete = false
					break
				}
			}
			if complete {
				cleaned = append(cleaned, msg)
			} else {
				skipping = true
			}
		case msg.Role == "tool":
			if msg.ToolCallID != "" && answered[msg.ToolCallID] {
				cleaned = append(cleaned, msg)
			}
		case msg.Role == "assistant":
			skipping = false
			cleaned = append(cleaned, msg)
		}
	}
	return cleaned
}
