package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/TuanStark/english-learning-ai-assistant/internal/mcp"
	"github.com/TuanStark/english-learning-ai-assistant/internal/session"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/llm"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/logging"
)

// ToolGateway is the slice of the MCP client the agent needs.
type ToolGateway interface {
	Tools() []llm.Tool
	CallTool(ctx context.Context, name string, args map[string]interface{}) mcp.CallResult
	IsConnected() bool
	Status() mcp.Status
}

// Config carries the tunables for one agent instance.
type Config struct {
	Model                string
	Temperature          float64
	MaxTokens            int
	MaxQueriesPerSession int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Model:                "gpt-4o-mini",
		Temperature:          0.7,
		MaxTokens:            1500,
		MaxQueriesPerSession: 30,
	}
}

// Agent turns a natural language query into tool calls and a synthesized
// advisory reply. One instance serves all sessions; per session ordering
// is enforced through the session store's locks.
type Agent struct {
	cfg       Config
	provider  llm.Provider
	tools     ToolGateway
	sessions  *session.Store
	composer  *PromptComposer
	validator Validator
	logger    logging.Logger
}

// NewAgent wires an agent. provider may be nil when no LLM is configured;
// ProcessQuery then degrades to a static unavailable reply.
func NewAgent(cfg Config, provider llm.Provider, tools ToolGateway, sessions *session.Store, composer *PromptComposer, logger logging.Logger) *Agent {
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultConfig().Temperature
	}
	if cfg.MaxQueriesPerSession == 0 {
		cfg.MaxQueriesPerSession = DefaultConfig().MaxQueriesPerSession
	}
	return &Agent{
		cfg:      cfg,
		provider: provider,
		tools:    tools,
		sessions: sessions,
		composer: composer,
		logger:   logger,
	}
}

// QueryResult is the full outcome of one processed query.
type QueryResult struct {
	Success   bool                     `json:"success"`
	Response  string                   `json:"response"`
	SessionID string                   `json:"sessionId"`
	Results   []map[string]interface{} `json:"results"`
	Metadata  Metadata                 `json:"metadata"`
}

// Metadata describes how a reply was produced.
type Metadata struct {
	DurationMS         int64              `json:"duration"`
	AIService          string             `json:"aiService"`
	Model              string             `json:"model"`
	ToolsUsed          []string           `json:"toolsUsed"`
	ToolCount          int                `json:"toolCount"`
	DataSource         string             `json:"dataSource"`
	AgentCapability    string             `json:"agentCapability"`
	ResponseValidation *ValidationSummary `json:"responseValidation,omitempty"`
}

// ValidationSummary is the validator verdict carried in reply metadata.
type ValidationSummary struct {
	IsValid      bool `json:"isValid"`
	WarningCount int  `json:"warningCount"`
	ErrorCount   int  `json:"errorCount"`
}

const (
	msgSessionLimit = "Bạn đã hết lượt hỏi với chatbot rồi, xin hãy để lần sau"
	msgUnavailable  = "Dịch vụ AI tạm thời không khả dụng. Vui lòng thử lại sau."
	msgOverloaded   = "Xin lỗi, hệ thống đang quá tải. Vui lòng thử lại sau ít phút. Nếu bạn cần hỗ trợ gấp, vui lòng liên hệ trực tiếp với chúng tôi."
	msgFinalFailed  = "Xin lỗi, tôi không thể xử lý yêu cầu của bạn lúc này do hệ thống quá tải. Vui lòng thử lại sau."
)

// ProcessQuery runs the full pipeline for one user query. It never returns
// an error and never panics; every failure mode maps to a user facing
// reply.
func (a *Agent) ProcessQuery(ctx context.Context, query, sessionID string) (result QueryResult) {
	start := time.Now()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	unlock := a.sessions.Lock(sessionID)
	defer unlock()

	log := a.logger.WithFields(logging.Fields{"session_id": sessionID})

	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logging.Fields{"panic": r}).Error("Query processing panicked")
			observeQuery("panic", start)
			result = QueryResult{
				Success:   false,
				Response:  msgFinalFailed,
				SessionID: sessionID,
				Results:   []map[string]interface{}{},
				Metadata: Metadata{
					DurationMS:      time.Since(start).Milliseconds(),
					ToolsUsed:       []string{},
					AgentCapability: "error-handling",
				},
			}
		}
	}()

	if a.sessions.QueryCount(sessionID) >= a.cfg.MaxQueriesPerSession {
		log.WithFields(logging.Fields{"limit": a.cfg.MaxQueriesPerSession}).Warn("Session query limit reached")
		observeQuery("quota_exceeded", start)
		return QueryResult{
			Success:   false,
			Response:  msgSessionLimit,
			SessionID: sessionID,
			Results:   []map[string]interface{}{},
			Metadata: Metadata{
				DurationMS:      time.Since(start).Milliseconds(),
				Model:           "session-limit",
				ToolsUsed:       []string{},
				AgentCapability: "session-management",
			},
		}
	}

	if a.provider == nil {
		observeQuery("unavailable", start)
		return a.unavailableResult(sessionID, start)
	}

	raw := a.sessions.History(sessionID)
	history := SanitizeHistory(raw)
	if len(raw) > 0 && len(history) == 0 {
		log.WithFields(logging.Fields{"raw_len": len(raw)}).Warn("Stored history corrupted, clearing session history")
		a.sessions.ClearHistory(sessionID)
	}
	history = append(history, llm.Message{Role: "user", Content: query})

	tools := a.tools.Tools()
	systemPrompt := a.composer.Compose(query, tools)

	first, err := a.provider.ChatCompletion(ctx, llm.Request{
		Messages:    prepend(systemPrompt, history),
		Tools:       tools,
		ToolChoice:  "auto",
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	})
	observeLLMCall("initial", err)
	if err != nil {
		log.WithFields(logging.Fields{"error": err.Error()}).Error("Chat completion failed after retries")
		observeQuery("llm_error", start)
		return QueryResult{
			Success:   false,
			Response:  msgOverloaded,
			SessionID: sessionID,
			Results:   []map[string]interface{}{},
			Metadata: Metadata{
				DurationMS:      time.Since(start).Milliseconds(),
				AIService:       "OpenAI",
				Model:           "rate-limit-fallback",
				ToolsUsed:       []string{},
				DataSource:      "fallback",
				AgentCapability: "error-handling",
			},
		}
	}
	observeTokens(first.Usage.PromptTokens, first.Usage.CompletionTokens)

	assistant := first.Message
	var finalResponse string
	var results []map[string]interface{}
	var toolsUsed []string

	if len(assistant.ToolCalls) > 0 {
		history = append(history, assistant)
		history, results, toolsUsed = a.runToolCalls(ctx, log, assistant.ToolCalls, history)

		second, err := a.provider.ChatCompletion(ctx, llm.Request{
			Messages:    prepend(systemPrompt, history),
			Temperature: a.cfg.Temperature,
			MaxTokens:   a.cfg.MaxTokens,
		})
		observeLLMCall("final", err)
		if err != nil {
			log.WithFields(logging.Fields{"error": err.Error()}).Error("Final completion failed after retries")
			finalResponse = msgFinalFailed
			history = append(history, llm.Message{Role: "assistant", Content: finalResponse})
		} else {
			observeTokens(second.Usage.PromptTokens, second.Usage.CompletionTokens)
			finalResponse = second.Message.Content
			history = append(history, second.Message)
		}
	} else {
		finalResponse = assistant.Content
		history = append(history, assistant)
	}

	a.sessions.SaveHistory(sessionID, history)
	a.sessions.IncrementQueryCount(sessionID)

	validation := a.validator.Validate(finalResponse, results)
	if !validation.IsValid {
		validationFailures.Inc()
		log.WithFields(logging.Fields{
			"errors":   validation.Errors,
			"warnings": len(validation.Warnings),
		}).Warn("Reply failed validation, regenerating clean response")
		finalResponse = a.validator.GenerateCleanResponse(query, results)
	}

	if results == nil {
		results = []map[string]interface{}{}
	}
	if toolsUsed == nil {
		toolsUsed = []string{}
	}

	observeQuery("success", start)
	return QueryResult{
		Success:   true,
		Response:  finalResponse,
		SessionID: sessionID,
		Results:   results,
		Metadata: Metadata{
			DurationMS:      time.Since(start).Milliseconds(),
			AIService:       "OpenAI",
			Model:           a.cfg.Model,
			ToolsUsed:       toolsUsed,
			ToolCount:       len(toolsUsed),
			DataSource:      "REAL_DATABASE_VIA_MCP",
			AgentCapability: "INTELLIGENT_MULTI_TOOL_EXECUTION",
			ResponseValidation: &ValidationSummary{
				IsValid:      validation.IsValid,
				WarningCount: len(validation.Warnings),
				ErrorCount:   len(validation.Errors),
			},
		},
	}
}

// runToolCalls executes the tool calls from an assistant turn, appends one
// tool message per call and accumulates the extracted display rows.
func (a *Agent) runToolCalls(ctx context.Context, log *logrus.Entry, calls []llm.ToolCall, history []llm.Message) ([]llm.Message, []map[string]interface{}, []string) {
	var results []map[string]interface{}
	var toolsUsed []string

	for _, call := range calls {
		args := map[string]interface{}{}
		if call.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
				log.WithFields(logging.Fields{"tool": call.Name, "error": err.Error()}).Warn("Tool arguments are not valid JSON")
				args = map[string]interface{}{}
			}
		}

		outcome := a.tools.CallTool(ctx, call.Name, args)
		toolsUsed = append(toolsUsed, call.Name)

		var payload interface{}
		if outcome.Success {
			payload = outcome.Data
			results = append(results, ExtractResults(call.Name, outcome.Data)...)
		} else {
			log.WithFields(logging.Fields{"tool": call.Name, "error": outcome.Err}).Warn("Tool call failed")
			payload = map[string]interface{}{"error": outcome.Err, "toolName": call.Name}
		}

		content, err := json.Marshal(payload)
		if err != nil {
			content = []byte(`{"error":"unserializable tool result"}`)
		}
		history = append(history, llm.Message{
			Role:       "tool",
			ToolCallID: call.ID,
			Content:    string(content),
		})
	}
	return history, results, toolsUsed
}

// ClearSession drops the stored history and query counter for a session.
func (a *Agent) ClearSession(sessionID string) {
	a.sessions.Clear(sessionID)
	a.logger.WithFields(logging.Fields{"session_id": sessionID}).Info("Session cleared")
}

// SessionQueryCount reports how many queries a session has spent.
func (a *Agent) SessionQueryCount(sessionID string) int {
	return a.sessions.QueryCount(sessionID)
}

// MaxQueriesPerSession exposes the configured quota.
func (a *Agent) MaxQueriesPerSession() int {
	return a.cfg.MaxQueriesPerSession
}

// ToolStatus reports the gateway connection state for the status endpoint.
func (a *Agent) ToolStatus() mcp.Status {
	return a.tools.Status()
}

func (a *Agent) unavailableResult(sessionID string, start time.Time) QueryResult {
	return QueryResult{
		Success:   false,
		Response:  msgUnavailable,
		SessionID: sessionID,
		Results:   []map[string]interface{}{},
		Metadata: Metadata{
			DurationMS:      time.Since(start).Milliseconds(),
			ToolsUsed:       []string{},
			AgentCapability: "UNAVAILABLE",
		},
	}
}

func prepend(systemPrompt string, history []llm.Message) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+1)
	msgs = append(msgs, llm.Message{Role: "system", Content: systemPrompt})
	return append(msgs, history...)
}
