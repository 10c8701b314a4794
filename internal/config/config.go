package config

import (
	"strings"
	"time"

	"github.com/TuanStark/english-learning-ai-assistant/pkg/config"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/llm"
)

// Config stores environment configuration for the agent service.
type Config struct {
	Port                 string
	MCPServerURL         string
	MCPTimeout           time.Duration
	MCPReconnectInterval time.Duration
	HistoryTTL           time.Duration
	CounterTTL           time.Duration
	MaxQueriesPerSession int
	KnowledgeDir         string
	LLM                  llm.Config
}

// MCPEndpoint returns the JSON-RPC endpoint derived from the server base
// URL. Empty when no server is configured.
func (c Config) MCPEndpoint() string {
	if c.MCPServerURL == "" {
		return ""
	}
	return strings.TrimRight(c.MCPServerURL, "/") + "/mcp"
}

// LoadConfig loads the service configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Port:                 config.GetEnv("PORT", "8080"),
		MCPServerURL:         config.GetEnv("MCP_SERVER_URL", ""),
		MCPTimeout:           config.GetEnvDuration("MCP_TIMEOUT", 30*time.Second),
		MCPReconnectInterval: config.GetEnvDuration("MCP_RECONNECT_INTERVAL", 5*time.Minute),
		HistoryTTL:           config.GetEnvDuration("SESSION_HISTORY_TTL", time.Hour),
		CounterTTL:           config.GetEnvDuration("SESSION_COUNTER_TTL", 24*time.Hour),
		MaxQueriesPerSession: config.GetEnvInt("MAX_QUERIES_PER_SESSION", 30),
		KnowledgeDir:         config.GetEnv("KNOWLEDGE_DIR", "knowledge"),
		LLM:                  llm.LoadConfig(),
	}
}
