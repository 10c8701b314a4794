package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/TuanStark/english-learning-ai-assistant/pkg/clients"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/config"
)

type Config struct {
	Provider    string
	Model       string
	APIKey      string
	APIURL      string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Retry       clients.RetryConfig
}

func LoadConfig() Config {
	return Config{
		Provider:    config.GetEnv("LLM_PROVIDER", "openai"),
		Model:       config.GetEnv("LLM_MODEL", "gpt-4o-mini"),
		APIKey:      config.GetEnv("LLM_API_KEY", ""),
		APIURL:      config.GetEnv("LLM_API_URL", ""),
		MaxTokens:   config.GetEnvInt("LLM_MAX_TOKENS", 1500),
		Temperature: config.GetEnvFloat("LLM_TEMPERATURE", 0.7),
		Timeout:     config.GetEnvDuration("LLM_TIMEOUT", 60*time.Second),
		Retry:       clients.DefaultRetryConfig(),
	}
}

func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "ollama":
		return NewOllamaProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
