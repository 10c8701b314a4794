package main

import (
	"context"
	"time"

	"github.com/TuanStark/english-learning-ai-assistant/internal/chat"
	agentconfig "github.com/TuanStark/english-learning-ai-assistant/internal/config"
	"github.com/TuanStark/english-learning-ai-assistant/internal/httpapi"
	"github.com/TuanStark/english-learning-ai-assistant/internal/mcp"
	"github.com/TuanStark/english-learning-ai-assistant/internal/search"
	"github.com/TuanStark/english-learning-ai-assistant/internal/session"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/cache"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/config"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/llm"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/logging"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/monitoring"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/server"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("superagent")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting SuperAgent (AI English Learning Assistant API)")

	cfg := agentconfig.LoadConfig()

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("superagent", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("superagent", version.Version, version.GitCommit)

	// Connect to the MCP tool server
	var toolClient *mcp.Client
	if cfg.MCPServerURL != "" {
		client, err := mcp.New(mcp.Config{
			ServerURL: cfg.MCPServerURL,
			Timeout:   cfg.MCPTimeout,
			Logger:    logger,
		})
		if err != nil {
			logger.WithError(err).Warn("Failed to create MCP client - tool calls disabled")
		} else {
			toolClient = client

			ctx, cancel := context.WithTimeout(context.Background(), cfg.MCPTimeout)
			if err := toolClient.Connect(ctx); err != nil {
				logger.WithError(err).Warn("Initial MCP connection failed - will keep retrying in background")
			}
			cancel()
			toolClient.StartReconnectLoop(context.Background(), cfg.MCPReconnectInterval)
		}
	} else {
		logger.Warn("MCP_SERVER_URL not set - tool calls disabled")
	}

	// Create LLM provider
	var provider llm.Provider
	if cfg.LLM.APIKey != "" {
		p, err := llm.NewProvider(cfg.LLM)
		if err != nil {
			logger.WithError(err).Warn("Failed to create LLM provider - agent replies disabled")
		} else {
			provider = p
			logger.WithFields(logging.Fields{
				"provider": cfg.LLM.Provider,
				"model":    cfg.LLM.Model,
			}).Info("LLM provider ready")
		}
	} else {
		logger.Warn("LLM_API_KEY not set - agent replies disabled")
	}

	// Session store
	sessionCache := cache.New(cache.Options{TTL: cfg.CounterTTL, MaxEntries: 100000}, cache.MetricsHooks{})
	sessions := session.NewStore(sessionCache, session.Config{
		HistoryTTL: cfg.HistoryTTL,
		CounterTTL: cfg.CounterTTL,
	}, logger)

	// Knowledge base and prompt composer
	knowledge := chat.NewKnowledgeLoader(cfg.KnowledgeDir, logger)
	if knowledge.Loaded() {
		logger.WithFields(logging.Fields{"dir": cfg.KnowledgeDir}).Info("Knowledge base loaded")
	} else {
		logger.WithFields(logging.Fields{"dir": cfg.KnowledgeDir}).Warn("Knowledge base not found - complex queries use the base prompt")
	}
	composer := chat.NewPromptComposer(knowledge, logger)

	gateway := toolGateway(toolClient)
	agent := chat.NewAgent(chat.Config{
		Model:                cfg.LLM.Model,
		Temperature:          cfg.LLM.Temperature,
		MaxTokens:            cfg.LLM.MaxTokens,
		MaxQueriesPerSession: cfg.MaxQueriesPerSession,
	}, provider, gateway, sessions, composer, logger)

	var searcher httpapi.SmartSearcher
	if toolClient != nil {
		searcher = search.NewSearcher(toolClient, logger)
	}

	// Health checks
	healthChecker.AddCheck("mcp", monitoring.ToolServerHealthCheck(gateway))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"MCP_SERVER_URL": cfg.MCPServerURL,
		"LLM_API_KEY":    cfg.LLM.APIKey,
	}))

	// HTTP server
	router := server.SetupServiceRouter(logger, "superagent", healthChecker, metricsCollector)
	handler := httpapi.NewHandler(agent, searcher, knowledge, cfg.LLM.Model, logger)
	handler.RegisterRoutes(router)

	srvConfig := server.Config{
		Port:         cfg.Port,
		ServiceName:  "superagent",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	var hooks []func()
	if toolClient != nil {
		hooks = append(hooks, toolClient.Close)
	}
	if err := server.Start(srvConfig, router, logger, hooks...); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}

// toolGateway keeps the agent's gateway nil-safe when no MCP server is
// configured.
func toolGateway(client *mcp.Client) chat.ToolGateway {
	if client == nil {
		return disconnectedGateway{}
	}
	return client
}

type disconnectedGateway struct{}

func (disconnectedGateway) Tools() []llm.Tool { return nil }

func (disconnectedGateway) CallTool(ctx context.Context, name string, args map[string]interface{}) mcp.CallResult {
	return mcp.CallResult{Success: false, Err: "MCP server is not connected"}
}

func (disconnectedGateway) IsConnected() bool { return false }

func (disconnectedGateway) Status() mcp.Status { return mcp.Status{} }
