package chat

import (
	"testing"

	"github.com/TuanStark/english-learning-ai-assistant/pkg/llm"
)

func rolesOf(history []llm.Message) []string {
	roles := make([]string, len(history))
	for i, m := range history {
		roles[i] = m.Role
	}
	return roles
}

func TestSanitizeHistoryKeepsCompleteExchange(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "tìm căn hộ"},
		{Role: "assistant", ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "search_properties"}}},
		{Role: "tool", ToolCallID: "call_1", Content: `{"properties":[]}`},
		{Role: "assistant", Content: "Đây là kết quả."},
	}
	got := SanitizeHistory(history)
	if len(got) != 4 {
		t.Fatalf("kept %v, want all 4", rolesOf(got))
	}
}

func TestSanitizeHistoryDropsDanglingToolCalls(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "tìm nhà"},
		{Role: "assistant", ToolCalls: []llm.ToolCall{{ID: "call_1"}, {ID: "call_2"}}},
		{Role: "tool", ToolCallID: "call_1", Content: "{}"},
		{Role: "user", Content: "còn gì nữa không"},
		{Role: "assistant", Content: "ok"},
	}
	got := SanitizeHistory(history)
	want := []string{"user", "user", "assistant"}
	if len(got) != len(want) {
		t.Fatalf("kept %v, want %v", rolesOf(got), want)
	}
	for i, role := range want {
		if got[i].Role != role {
			t.Fatalf("kept %v, want %v", rolesOf(got), want)
		}
	}
}

func TestSanitizeHistoryDropsOrphanedToolMessage(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "hello"},
		{Role: "tool", ToolCallID: "call_unknown", Content: "{}"},
		{Role: "assistant", Content: "hi"},
	}
	got := SanitizeHistory(history)
	if len(got) != 2 || got[0].Role != "user" || got[1].Role != "assistant" {
		t.Fatalf("kept %v, want [user assistant]", rolesOf(got))
	}
}

func TestSanitizeHistoryUserResetsSkipMode(t *testing.T) {
	history := []llm.Message{
		{Role: "assistant", ToolCalls: []llm.ToolCall{{ID: "call_1"}}},
		{Role: "tool", ToolCallID: "call_2", Content: "{}"},
		{Role: "user", Content: "still here"},
	}
	got := SanitizeHistory(history)
	if len(got) != 1 || got[0].Role != "user" {
		t.Fatalf("kept %v, want [user]", rolesOf(got))
	}
}

func TestSanitizeHistoryIdempotent(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "q"},
		{Role: "assistant", ToolCalls: []llm.ToolCall{{ID: "a"}}},
		{Role: "tool", ToolCallID: "a", Content: "{}"},
		{Role: "assistant", Content: "done"},
		{Role: "assistant", ToolCalls: []llm.ToolCall{{ID: "b"}}},
	}
	once := SanitizeHistory(history)
	twice := SanitizeHistory(once)
	if len(once) != len(twice) {
		t.Fatalf("not idempotent: %v then %v", rolesOf(once), rolesOf(twice))
	}
	for i := range once {
		if once[i].Role != twice[i].Role {
			t.Fatalf("not idempotent: %v then %v", rolesOf(once), rolesOf(twice))
		}
	}
}

func TestSanitizeHistoryEmpty(t *testing.T) {
	if got := SanitizeHistory(nil); len(got) != 0 {
		t.Fatalf("got %d messages from nil history", len(got))
	}
}
