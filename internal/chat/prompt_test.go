package chat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TuanStark/english-learning-ai-assistant/pkg/llm"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/logging"
)

func testLogger() logging.Logger {
	logger := logging.NewLogger()
	logger.SetOutput(os.Stderr)
	return logger
}

func TestComposeSubstitutesToolCatalog(t *testing.T) {
	composer := NewPromptComposer(nil, testLogger())
	tools := []llm.Tool{
		{Name: "search_properties", Description: "Search listings"},
		{Name: "get_vocabulary", Description: ""},
	}
	got := composer.Compose("xin chào", tools)

	if strings.Contains(got, "{{toolCount}}") || strings.Contains(got, "{{toolsList}}") {
		t.Fatalf("placeholders left in prompt")
	}
	if !strings.Contains(got, "2 TOOLS") {
		t.Fatalf("tool count missing from prompt")
	}
	if !strings.Contains(got, "1. search_properties - Search listings") {
		t.Fatalf("tool list entry missing from prompt")
	}
	if !strings.Contains(got, "2. get_vocabulary - No description") {
		t.Fatalf("missing description placeholder not applied")
	}
	if !strings.Contains(got, "BDSNhaPho") {
		t.Fatalf("platform appendix missing")
	}
	if !strings.Contains(got, "agent_leads") {
		t.Fatalf("lead capture appendix missing")
	}
}

func TestComposeWithoutToolsUsesPlaceholder(t *testing.T) {
	composer := NewPromptComposer(nil, testLogger())
	got := composer.Compose("", nil)
	if !strings.Contains(got, toolsLoadingPlaceholder) {
		t.Fatalf("loading placeholder missing")
	}
	if !strings.Contains(got, "0 TOOLS") {
		t.Fatalf("zero tool count missing")
	}
}

func TestComposeAppendsKnowledgeForComplexQuery(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "documents")
	if err := os.MkdirAll(docs, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	marker := "KIẾN THỨC THỊ TRƯỜNG ĐÀ NẴNG"
	if err := os.WriteFile(filepath.Join(docs, "domain_knowledge.md"), []byte(marker), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader := NewKnowledgeLoader(dir, testLogger())
	composer := NewPromptComposer(loader, testLogger())

	simple := composer.Compose("xin chào", nil)
	if strings.Contains(simple, marker) {
		t.Fatalf("simple query should not carry knowledge")
	}

	complexQuery := "so sánh xu hướng thị trường, nên đầu tư khu vực nào"
	enhanced := composer.Compose(complexQuery, nil)
	if !strings.Contains(enhanced, marker) {
		t.Fatalf("complex query missing knowledge section")
	}
	if len(enhanced) <= len(simple) {
		t.Fatalf("enhanced prompt not longer than base")
	}
}

func TestComposeDeduplicatesSectionsAndAddsHeaders(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "documents")
	if err := os.MkdirAll(docs, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	marker := "PHÂN TÍCH THỊ TRƯỜNG CHUNG"
	if err := os.WriteFile(filepath.Join(docs, "domain_knowledge.md"), []byte(marker), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader := NewKnowledgeLoader(dir, testLogger())
	composer := NewPromptComposer(loader, testLogger())

	// Matches market, investment and location sections, which all resolve
	// to the same domain file.
	query := "so sánh xu hướng thị trường, nên đầu tư khu vực nào"
	sections := RelevantSections(query, AnalyzeComplexity(query))
	if len(sections) < 2 {
		t.Fatalf("query matched %d sections, want at least 2", len(sections))
	}

	got := composer.Compose(query, nil)
	if n := strings.Count(got, marker); n != 1 {
		t.Fatalf("knowledge text appears %d times, want 1", n)
	}
	if !strings.Contains(got, "=== "+sections[0]+" ===") {
		t.Fatalf("missing header for section %s", sections[0])
	}
}

func TestComposeMissingKnowledgeDegradesToBase(t *testing.T) {
	loader := NewKnowledgeLoader(t.TempDir(), testLogger())
	composer := NewPromptComposer(loader, testLogger())
	got := composer.Compose("so sánh xu hướng thị trường giúp tôi", nil)
	if !strings.Contains(got, "0 TOOLS") {
		t.Fatalf("base prompt missing")
	}
}

func TestKnowledgeLoaderStats(t *testing.T) {
	dir := t.TempDir()
	ctxDir := filepath.Join(dir, "context")
	if err := os.MkdirAll(ctxDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(ctxDir, "website_context.md"), []byte("ngữ cảnh"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader := NewKnowledgeLoader(dir, testLogger())
	stats := loader.Stats()
	if stats["website"] == 0 {
		t.Fatalf("website stat = 0, want content length")
	}
	if stats["domain"] != 0 {
		t.Fatalf("domain stat = %d, want 0 for missing file", stats["domain"])
	}
	if loader.Loaded() {
		t.Fatalf("Loaded() = true without domain file")
	}
}
