package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/TuanStark/english-learning-ai-assistant/internal/chat"
	"github.com/TuanStark/english-learning-ai-assistant/internal/mcp"
	"github.com/TuanStark/english-learning-ai-assistant/internal/search"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/logging"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/middleware"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/version"
)

// QueryProcessor is the slice of the agent the handler needs.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, query, sessionID string) chat.QueryResult
	ClearSession(sessionID string)
	SessionQueryCount(sessionID string) int
	MaxQueriesPerSession() int
	ToolStatus() mcp.Status
}

// SmartSearcher runs the escalating property search.
type SmartSearcher interface {
	Search(ctx context.Context, query string) search.Result
}

// KnowledgeStatus reports knowledge base availability.
type KnowledgeStatus interface {
	Loaded() bool
	Stats() map[string]int
}

// Handler exposes the agent over HTTP.
type Handler struct {
	agent     QueryProcessor
	searcher  SmartSearcher
	knowledge KnowledgeStatus
	model     string
	logger    logging.Logger
	startedAt time.Time
}

// NewHandler wires the HTTP handler. searcher and knowledge may be nil;
// the corresponding endpoints then report unavailability.
func NewHandler(agent QueryProcessor, searcher SmartSearcher, knowledge KnowledgeStatus, model string, logger logging.Logger) *Handler {
	return &Handler{
		agent:     agent,
		searcher:  searcher,
		knowledge: knowledge,
		model:     model,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// RegisterRoutes mounts the agent API under /api/v1/agent.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	agent := router.Group("/api/v1/agent")
	{
		agent.POST("/query", h.handleQuery)
		agent.POST("/smart-search", h.handleSmartSearch)
		agent.GET("/status", h.handleStatus)
		agent.GET("/mcp/tools", h.handleMCPTools)
		agent.DELETE("/sessions/:id", h.handleClearSession)
	}
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId"`
}

func (h *Handler) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if msg := validateQuery(req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
		return
	}

	middleware.GetContextLogger(c, h.logger).WithFields(logging.Fields{
		"query":      truncate(req.Query, 50),
		"session_id": req.SessionID,
	}).Info("Agent query received")

	result := h.agent.ProcessQuery(c.Request.Context(), req.Query, req.SessionID)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) handleSmartSearch(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if msg := validateQuery(req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
		return
	}
	if h.searcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "smart search is not available"})
		return
	}

	result := h.searcher.Search(c.Request.Context(), req.Query)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) handleStatus(c *gin.Context) {
	toolStatus := h.agent.ToolStatus()

	knowledge := gin.H{"isLoaded": false}
	if h.knowledge != nil {
		knowledge = gin.H{
			"isLoaded": h.knowledge.Loaded(),
			"stats":    h.knowledge.Stats(),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"agent": gin.H{
			"name":    "Super Intelligent English Learning Agent",
			"version": version.Version,
			"status":  "online",
		},
		"services": gin.H{
			"openai": gin.H{
				"available": true,
				"model":     h.model,
			},
			"mcp":           toolStatus,
			"knowledgeBase": knowledge,
		},
		"system": gin.H{
			"uptimeSeconds": int(time.Since(h.startedAt).Seconds()),
		},
	})
}

func (h *Handler) handleMCPTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.agent.ToolStatus(),
	})
}

func (h *Handler) handleClearSession(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "session id must be a UUID"})
		return
	}
	h.agent.ClearSession(id)
	c.JSON(http.StatusOK, gin.H{"success": true, "sessionId": id})
}

func validateQuery(req queryRequest) string {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return "query is required"
	}
	if len([]rune(req.Query)) > 1000 {
		return "query must be at most 1000 characters"
	}
	if req.SessionID != "" {
		if _, err := uuid.Parse(req.SessionID); err != nil {
			return "sessionId must be a UUID"
		}
	}
	return ""
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
