package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider is a chat-completion backend. Implementations must not
// stream; the orchestration layer needs the whole assistant turn,
// including any tool calls, before it can act.
type Provider interface {
	ChatCompletion(ctx context.Context, req Request) (*Response, error)
}

// Message is one conversation turn in provider wire format. Role is one
// of system, user, assistant or tool. ToolCalls is set on assistant
// turns that request tool execution; ToolCallID links a tool turn back
// to the call it answers.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Tool describes a callable function advertised to the model.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ToolCall is a model-requested function invocation. Arguments is the
// raw JSON string as produced by the model, possibly malformed.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Request is a single completion request.
type Request struct {
	Messages    []Message
	Tools       []Tool
	ToolChoice  string
	Temperature float64
	MaxTokens   int
}

// Response is the completed assistant turn plus usage accounting.
type Response struct {
	Message Message
	Model   string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIError is a non-2xx provider reply that survived the retry policy.
type APIError struct {
	StatusCode int
	RetryAfter time.Duration
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm: provider returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the failure class is transient: rate limits
// and server-side errors. Anything else is a terminal request error.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
