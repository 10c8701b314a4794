package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/TuanStark/english-learning-ai-assistant/internal/mcp"
	"github.com/TuanStark/english-learning-ai-assistant/internal/session"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/cache"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/llm"
)

type fakeProvider struct {
	responses []*llm.Response
	errs      []error
	requests  []llm.Request
}

func (f *fakeProvider) ChatCompletion(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	idx := len(f.requests) - 1
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return &llm.Response{Message: llm.Message{Role: "assistant", Content: "ok"}}, nil
}

type fakeGateway struct {
	tools   []llm.Tool
	calls   []string
	results map[string]mcp.CallResult
}

func (f *fakeGateway) Tools() []llm.Tool { return f.tools }

func (f *fakeGateway) CallTool(ctx context.Context, name string, args map[string]interface{}) mcp.CallResult {
	f.calls = append(f.calls, name)
	if res, ok := f.results[name]; ok {
		return res
	}
	return mcp.CallResult{Success: true, Data: map[string]interface{}{}}
}

func (f *fakeGateway) IsConnected() bool { return true }

func (f *fakeGateway) Status() mcp.Status {
	return mcp.Status{Connected: true, ToolCount: len(f.tools)}
}

func newTestAgent(t *testing.T, provider llm.Provider, gateway ToolGateway, cfg Config) (*Agent, *session.Store) {
	t.Helper()
	store := session.NewStore(
		cache.New(cache.Options{TTL: time.Hour}, cache.MetricsHooks{}),
		session.DefaultConfig(),
		testLogger(),
	)
	composer := NewPromptComposer(nil, testLogger())
	return NewAgent(cfg, provider, gateway, store, composer, testLogger()), store
}

func TestProcessQueryPlainReply(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.Response{
		{Message: llm.Message{Role: "assistant", Content: "Chào bạn, tôi có thể giúp gì?"}},
	}}
	agent, store := newTestAgent(t, provider, &fakeGateway{}, Config{})

	res := agent.ProcessQuery(context.Background(), "xin chào", "s1")
	if !res.Success {
		t.Fatalf("success = false: %s", res.Response)
	}
	if res.Response != "Chào bạn, tôi có thể giúp gì?" {
		t.Fatalf("response = %q", res.Response)
	}
	if res.SessionID != "s1" {
		t.Fatalf("sessionID = %q", res.SessionID)
	}
	if res.Metadata.AgentCapability != "INTELLIGENT_MULTI_TOOL_EXECUTION" {
		t.Fatalf("agentCapability = %q", res.Metadata.AgentCapability)
	}
	if store.QueryCount("s1") != 1 {
		t.Fatalf("query count = %d, want 1", store.QueryCount("s1"))
	}

	history := store.History("s1")
	if len(history) != 2 || history[0].Role != "user" || history[1].Role != "assistant" {
		t.Fatalf("persisted history roles wrong: %+v", history)
	}
}

func TestProcessQueryGeneratesSessionID(t *testing.T) {
	provider := &fakeProvider{}
	agent, _ := newTestAgent(t, provider, &fakeGateway{}, Config{})
	res := agent.ProcessQuery(context.Background(), "hello", "")
	if res.SessionID == "" {
		t.Fatalf("expected generated session id")
	}
}

func TestProcessQueryToolCallFlow(t *testing.T) {
	tools := []llm.Tool{{Name: "search_properties", Description: "Search listings"}}
	gateway := &fakeGateway{
		tools: tools,
		results: map[string]mcp.CallResult{
			"search_properties": {
				Success: true,
				Data: map[string]interface{}{
					"properties": []interface{}{
						map[string]interface{}{"id": "p1", "title": "Căn hộ Hải Châu", "address": "Hải Châu"},
					},
				},
			},
		},
	}
	provider := &fakeProvider{responses: []*llm.Response{
		{Message: llm.Message{
			Role: "assistant",
			ToolCalls: []llm.ToolCall{{
				ID:        "call_1",
				Name:      "search_properties",
				Arguments: `{"district":"Hải Châu","propertyType":"apartment"}`,
			}},
		}},
		{Message: llm.Message{Role: "assistant", Content: "Tôi đã tìm được một lựa chọn phù hợp cho bạn."}},
	}}
	agent, store := newTestAgent(t, provider, gateway, Config{})

	res := agent.ProcessQuery(context.Background(), "tìm căn hộ Hải Châu", "s2")
	if !res.Success {
		t.Fatalf("success = false: %s", res.Response)
	}
	if len(gateway.calls) != 1 || gateway.calls[0] != "search_properties" {
		t.Fatalf("gateway calls = %v", gateway.calls)
	}
	if len(res.Results) != 1 || res.Results[0]["slug"] != "property-p1" {
		t.Fatalf("results = %+v", res.Results)
	}
	if len(res.Metadata.ToolsUsed) != 1 || res.Metadata.ToolsUsed[0] != "search_properties" {
		t.Fatalf("toolsUsed = %v", res.Metadata.ToolsUsed)
	}
	if res.Metadata.DataSource != "REAL_DATABASE_VIA_MCP" {
		t.Fatalf("dataSource = %q", res.Metadata.DataSource)
	}

	// First call carries the tool catalog, the second must not.
	if len(provider.requests) != 2 {
		t.Fatalf("provider calls = %d, want 2", len(provider.requests))
	}
	if len(provider.requests[0].Tools) != 1 {
		t.Fatalf("first request missing tools")
	}
	if len(provider.requests[1].Tools) != 0 {
		t.Fatalf("second request should not carry tools")
	}

	history := store.History("s2")
	roles := []string{"user", "assistant", "tool", "assistant"}
	if len(history) != len(roles) {
		t.Fatalf("persisted %d messages, want %d", len(history), len(roles))
	}
	for i, role := range roles {
		if history[i].Role != role {
			t.Fatalf("history[%d].Role = %q, want %q", i, history[i].Role, role)
		}
	}
	if history[2].ToolCallID != "call_1" {
		t.Fatalf("tool message id = %q", history[2].ToolCallID)
	}
}

func TestProcessQueryQuotaExhausted(t *testing.T) {
	provider := &fakeProvider{}
	agent, store := newTestAgent(t, provider, &fakeGateway{}, Config{MaxQueriesPerSession: 2})

	store.IncrementQueryCount("s3")
	store.IncrementQueryCount("s3")

	res := agent.ProcessQuery(context.Background(), "còn nữa không", "s3")
	if res.Success {
		t.Fatalf("expected quota rejection")
	}
	if res.Response != msgSessionLimit {
		t.Fatalf("response = %q", res.Response)
	}
	if res.Metadata.Model != "session-limit" || res.Metadata.AgentCapability != "session-management" {
		t.Fatalf("metadata = %+v", res.Metadata)
	}
	if len(provider.requests) != 0 {
		t.Fatalf("provider should not be called")
	}
	if store.QueryCount("s3") != 2 {
		t.Fatalf("rejected query must not consume quota, count = %d", store.QueryCount("s3"))
	}
}

func TestProcessQueryBelowQuotaStillServed(t *testing.T) {
	provider := &fakeProvider{}
	agent, store := newTestAgent(t, provider, &fakeGateway{}, Config{MaxQueriesPerSession: 2})

	store.IncrementQueryCount("s4")
	res := agent.ProcessQuery(context.Background(), "hello", "s4")
	if !res.Success {
		t.Fatalf("query under quota rejected: %s", res.Response)
	}
	if store.QueryCount("s4") != 2 {
		t.Fatalf("count = %d, want 2", store.QueryCount("s4"))
	}
}

func TestProcessQueryNoProvider(t *testing.T) {
	agent, _ := newTestAgent(t, nil, &fakeGateway{}, Config{})
	res := agent.ProcessQuery(context.Background(), "hello", "s5")
	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.Response != msgUnavailable {
		t.Fatalf("response = %q", res.Response)
	}
	if res.Metadata.AgentCapability != "UNAVAILABLE" {
		t.Fatalf("agentCapability = %q", res.Metadata.AgentCapability)
	}
}

func TestProcessQueryInitialCompletionFails(t *testing.T) {
	provider := &fakeProvider{errs: []error{&llm.APIError{StatusCode: 429}}}
	agent, store := newTestAgent(t, provider, &fakeGateway{}, Config{})

	res := agent.ProcessQuery(context.Background(), "hello", "s6")
	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.Response != msgOverloaded {
		t.Fatalf("response = %q", res.Response)
	}
	if res.Metadata.Model != "rate-limit-fallback" || res.Metadata.DataSource != "fallback" {
		t.Fatalf("metadata = %+v", res.Metadata)
	}
	if store.QueryCount("s6") != 0 {
		t.Fatalf("failed query must not consume quota")
	}
	if len(store.History("s6")) != 0 {
		t.Fatalf("failed query must not persist history")
	}
}

func TestProcessQueryFinalCompletionFails(t *testing.T) {
	gateway := &fakeGateway{tools: []llm.Tool{{Name: "search_properties"}}}
	provider := &fakeProvider{
		responses: []*llm.Response{
			{Message: llm.Message{
				Role:      "assistant",
				ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "search_properties", Arguments: "{}"}},
			}},
			nil,
		},
		errs: []error{nil, &llm.APIError{StatusCode: 500}},
	}
	agent, store := newTestAgent(t, provider, gateway, Config{})

	res := agent.ProcessQuery(context.Background(), "tìm nhà", "s7")
	if !res.Success {
		t.Fatalf("partial failure should still succeed: %s", res.Response)
	}
	if res.Response != msgFinalFailed {
		t.Fatalf("response = %q", res.Response)
	}
	if store.QueryCount("s7") != 1 {
		t.Fatalf("count = %d, want 1", store.QueryCount("s7"))
	}
	history := store.History("s7")
	if len(history) == 0 || history[len(history)-1].Content != msgFinalFailed {
		t.Fatalf("fallback reply not persisted: %+v", history)
	}
}

func TestProcessQueryRegeneratesLeakyReply(t *testing.T) {
	gateway := &fakeGateway{
		tools: []llm.Tool{{Name: "search_properties"}},
		results: map[string]mcp.CallResult{
			"search_properties": {
				Success: true,
				Data: map[string]interface{}{
					"properties": []interface{}{
						map[string]interface{}{"id": "p1", "title": "Nhà phố trung tâm", "address": "45 Thái Phiên"},
					},
				},
			},
		},
	}
	leaky := "Tôi gợi ý Nhà phố trung tâm tại 45 Thái Phiên giá 20 triệu."
	provider := &fakeProvider{responses: []*llm.Response{
		{Message: llm.Message{
			Role:      "assistant",
			ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "search_properties", Arguments: "{}"}},
		}},
		{Message: llm.Message{Role: "assistant", Content: leaky}},
	}}
	agent, _ := newTestAgent(t, provider, gateway, Config{})

	res := agent.ProcessQuery(context.Background(), "tìm nhà trung tâm", "s8")
	if !res.Success {
		t.Fatalf("success = false: %s", res.Response)
	}
	if res.Response == leaky {
		t.Fatalf("leaky reply passed through")
	}
	if strings.Contains(res.Response, "Thái Phiên") {
		t.Fatalf("street leaked into regenerated reply: %q", res.Response)
	}
	if res.Metadata.ResponseValidation == nil || res.Metadata.ResponseValidation.IsValid {
		t.Fatalf("validation metadata should record the failure")
	}
	if res.Metadata.ResponseValidation.ErrorCount == 0 {
		t.Fatalf("expected validation errors")
	}
}

func TestProcessQuerySanitizesCorruptedHistory(t *testing.T) {
	provider := &fakeProvider{}
	agent, store := newTestAgent(t, provider, &fakeGateway{}, Config{})

	// A lone dangling tool exchange sanitizes to nothing.
	store.SaveHistory("s9", []llm.Message{
		{Role: "assistant", ToolCalls: []llm.ToolCall{{ID: "ghost"}}},
	})

	res := agent.ProcessQuery(context.Background(), "hello", "s9")
	if !res.Success {
		t.Fatalf("success = false: %s", res.Response)
	}
	history := store.History("s9")
	for _, msg := range history {
		if msg.Role == "assistant" && len(msg.ToolCalls) > 0 {
			t.Fatalf("dangling tool call survived: %+v", history)
		}
	}
}

func TestClearSession(t *testing.T) {
	provider := &fakeProvider{}
	agent, store := newTestAgent(t, provider, &fakeGateway{}, Config{})

	agent.ProcessQuery(context.Background(), "hello", "s10")
	if store.QueryCount("s10") != 1 {
		t.Fatalf("count = %d", store.QueryCount("s10"))
	}

	agent.ClearSession("s10")
	if store.QueryCount("s10") != 0 || len(store.History("s10")) != 0 {
		t.Fatalf("session not cleared")
	}
}

type panickingProvider struct{}

func (panickingProvider) ChatCompletion(ctx context.Context, req llm.Request) (*llm.Response, error) {
	panic("provider exploded")
}

func TestProcessQueryRecoversFromPanic(t *testing.T) {
	agent, store := newTestAgent(t, panickingProvider{}, &fakeGateway{}, Config{})

	res := agent.ProcessQuery(context.Background(), "hello", "s11")
	if res.Success {
		t.Fatalf("expected failure result after panic")
	}
	if res.Response == "" {
		t.Fatalf("expected a user facing fallback message")
	}
	if res.Metadata.AgentCapability != "error-handling" {
		t.Fatalf("agentCapability = %q", res.Metadata.AgentCapability)
	}
	if store.QueryCount("s11") != 0 {
		t.Fatalf("panicked query must not consume quota, count = %d", store.QueryCount("s11"))
	}
}
