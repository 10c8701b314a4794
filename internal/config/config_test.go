package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.MCPTimeout != 30*time.Second {
		t.Fatalf("MCPTimeout = %v", cfg.MCPTimeout)
	}
	if cfg.HistoryTTL != time.Hour || cfg.CounterTTL != 24*time.Hour {
		t.Fatalf("TTLs = %v, %v", cfg.HistoryTTL, cfg.CounterTTL)
	}
	if cfg.MaxQueriesPerSession != 30 {
		t.Fatalf("MaxQueriesPerSession = %d", cfg.MaxQueriesPerSession)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("MCP_SERVER_URL", "http://mcp.local:3000/")
	t.Setenv("MCP_TIMEOUT", "10s")
	t.Setenv("SESSION_HISTORY_TTL", "30m")
	t.Setenv("MAX_QUERIES_PER_SESSION", "5")

	cfg := LoadConfig()
	if cfg.Port != "9999" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.MCPTimeout != 10*time.Second {
		t.Fatalf("MCPTimeout = %v", cfg.MCPTimeout)
	}
	if cfg.HistoryTTL != 30*time.Minute {
		t.Fatalf("HistoryTTL = %v", cfg.HistoryTTL)
	}
	if cfg.MaxQueriesPerSession != 5 {
		t.Fatalf("MaxQueriesPerSession = %d", cfg.MaxQueriesPerSession)
	}
	if got := cfg.MCPEndpoint(); got != "http://mcp.local:3000/mcp" {
		t.Fatalf("MCPEndpoint = %q", got)
	}
}

func TestMCPEndpointEmpty(t *testing.T) {
	var cfg Config
	if got := cfg.MCPEndpoint(); got != "" {
		t.Fatalf("MCPEndpoint = %q, want empty", got)
	}
}
