package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/TuanStark/english-learning-ai-assistant/pkg/clients"
)

// OpenAIProvider speaks the OpenAI chat-completions API, which also
// covers compatible gateways (OpenRouter, Groq, vLLM).
type OpenAIProvider struct {
	client *http.Client
	apiKey string
	apiURL string
	model  string
	retry  clients.RetryConfig
}

func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = clients.DefaultRetryConfig()
	}
	return &OpenAIProvider{
		client: &http.Client{Timeout: timeout},
		apiKey: cfg.APIKey,
		apiURL: apiURL,
		model:  cfg.Model,
		retry:  retry,
	}
}

func (p *OpenAIProvider) ChatCompletion(ctx context.Context, in Request) (*Response, error) {
	if p.model == "" {
		return nil, errors.New("openai model is required")
	}
	reqBody := openAIRequest{
		Model:       p.model,
		Messages:    toOpenAIMessages(in.Messages),
		Temperature: in.Temperature,
		MaxTokens:   in.MaxTokens,
	}
	if len(in.Tools) > 0 {
		reqBody.Tools = make([]openAITool, 0, len(in.Tools))
		for _, tool := range in.Tools {
			reqBody.Tools = append(reqBody.Tools, openAITool{
				Type: "function",
				Function: openAIFunction{
					Name:        tool.Name,
					Description: tool.Description,
					Parameters:  tool.Parameters,
				},
			})
		}
		choice := in.ToolChoice
		if choice == "" {
			choice = "auto"
		}
		reqBody.ToolChoice = choice
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := clients.DoWithRetry(ctx, p.client, req, p.retry)
	if err != nil {
		return nil, fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			RetryAfter: clients.RetryAfterDelay(resp),
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var decoded openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, errors.New("openai: response contained no choices")
	}

	msg := decoded.Choices[0].Message
	out := &Response{
		Message: Message{
			Role:    msg.Role,
			Content: msg.Content,
		},
		Model: decoded.Model,
		Usage: decoded.Usage,
	}
	for _, call := range msg.ToolCalls {
		out.Message.ToolCalls = append(out.Message.ToolCalls, ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return out, nil
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Tools       []openAITool    `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

func toOpenAIMessages(messages []Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, m := range messages {
		wire := openAIMessage{
			Role:       m.Role,
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, call := range m.ToolCalls {
			wire.ToolCalls = append(wire.ToolCalls, openAIToolCall{
				ID:   call.ID,
				Type: "function",
				Function: openAIFunctionCall{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			})
		}
		out = append(out, wire)
	}
	return out
}
