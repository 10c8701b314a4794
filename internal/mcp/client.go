package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TuanStark/english-learning-ai-assistant/pkg/llm"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/logging"
)

// Client talks to the property MCP server over JSON-RPC 2.0 on a single
// HTTP endpoint. It caches the discovered tool list and tracks
// connectivity so the orchestrator can degrade gracefully when the tool
// server is down.
type Client struct {
	httpClient *http.Client
	serverURL  string
	endpoint   string
	logger     logging.Logger

	mu        sync.RWMutex
	tools     []llm.Tool
	connected bool

	nextID atomic.Int64
}

// Config configures the MCP client.
type Config struct {
	// ServerURL is the base URL of the MCP server. JSON-RPC requests go
	// to ServerURL + "/mcp".
	ServerURL string
	// Timeout bounds each JSON-RPC round trip.
	Timeout time.Duration
	Logger  logging.Logger
}

// CallResult is the soft-fail envelope for tool invocations. A tool
// failure is data for the model, never an error that aborts the query.
type CallResult struct {
	Success  bool
	Data     interface{}
	Err      string
	Duration time.Duration
}

// ToolInfo is a name/description pair for status reporting.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Status is a point-in-time connection snapshot.
type Status struct {
	Connected bool       `json:"connected"`
	ServerURL string     `json:"serverUrl"`
	ToolCount int        `json:"toolCount"`
	Tools     []ToolInfo `json:"tools"`
}

func New(cfg Config) (*Client, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("mcp: ServerURL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimRight(cfg.ServerURL, "/")
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		serverURL:  base,
		endpoint:   base + "/mcp",
		logger:     cfg.Logger,
	}, nil
}

// Connect probes the server and loads the tool list. Failure leaves the
// client in the disconnected state; the reconnect loop tries again later.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.ping(ctx); err != nil {
		c.setConnected(false)
		return fmt.Errorf("mcp: connectivity test: %w", err)
	}

	tools, err := c.listTools(ctx)
	if err != nil {
		c.setConnected(false)
		return fmt.Errorf("mcp: list tools: %w", err)
	}

	c.mu.Lock()
	c.tools = tools
	c.connected = true
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.WithField("count", len(tools)).Info("Connected to MCP server")
	}
	return nil
}

// StartReconnectLoop re-runs Connect on a fixed interval until ctx is
// cancelled. Mirrors the five-minute connection refresh of the tool
// server deployment.
func (c *Client) StartReconnectLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Connect(ctx); err != nil && c.logger != nil {
					c.logger.WithError(err).Warn("MCP reconnect attempt failed")
				}
			}
		}
	}()
}

// IsConnected reports whether the last connection attempt succeeded.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Tools returns the cached tool descriptors with their schemas repaired
// for function calling. Callers get a copy.
func (c *Client) Tools() []llm.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]llm.Tool, len(c.tools))
	copy(out, c.tools)
	return out
}

// RefreshTools re-fetches the tool list. When disconnected it returns
// the empty list rather than an error so callers always have something
// to hand the model.
func (c *Client) RefreshTools(ctx context.Context) []llm.Tool {
	if !c.IsConnected() {
		if c.logger != nil {
			c.logger.Warn("MCP server not connected, returning empty tools list")
		}
		return nil
	}
	tools, err := c.listTools(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).Error("Failed to refresh MCP tools")
		}
		return nil
	}
	c.mu.Lock()
	c.tools = tools
	c.mu.Unlock()
	return c.Tools()
}

// CallTool invokes a tool and wraps the outcome in a CallResult. It
// never returns a Go error: transport failures, server-side errors and
// disconnection all produce Success=false with a message.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) CallResult {
	start := time.Now()

	if !c.IsConnected() {
		return CallResult{
			Success:  false,
			Err:      "MCP server is not connected",
			Duration: time.Since(start),
		}
	}

	result, rpcErr, err := c.rpc(ctx, "tools/call", map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	duration := time.Since(start)
	observeToolCall(name, rpcErr == nil && err == nil, duration)

	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).WithField("tool", name).Error("MCP tool call failed")
		}
		return CallResult{Success: false, Err: err.Error(), Duration: duration}
	}
	if rpcErr != nil {
		if c.logger != nil {
			c.logger.WithField("tool", name).Errorf("MCP tool call failed: %s", rpcErr.Message)
		}
		return CallResult{Success: false, Err: rpcErr.Message, Duration: duration}
	}

	data := decodeToolPayload(result)
	if c.logger != nil {
		c.logger.WithFields(logging.Fields{
			"tool":        name,
			"duration_ms": duration.Milliseconds(),
		}).Debug("MCP tool call successful")
	}
	return CallResult{Success: true, Data: data, Duration: duration}
}

// Status returns a snapshot for the status endpoint.
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	infos := make([]ToolInfo, 0, len(c.tools))
	for _, t := range c.tools {
		infos = append(infos, ToolInfo{Name: t.Name, Description: t.Description})
	}
	return Status{
		Connected: c.connected,
		ServerURL: c.serverURL,
		ToolCount: len(c.tools),
		Tools:     infos,
	}
}

// Close drops the connection state and tool cache.
func (c *Client) Close() {
	c.mu.Lock()
	c.connected = false
	c.tools = nil
	c.mu.Unlock()
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *Client) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) listTools(ctx context.Context) ([]llm.Tool, error) {
	result, rpcErr, err := c.rpc(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	if rpcErr != nil {
		return nil, fmt.Errorf("server error: %s", rpcErr.Message)
	}

	var decoded struct {
		Tools []wireTool `json:"tools"`
	}
	if err := json.Unmarshal(result, &decoded); err != nil {
		return nil, fmt.Errorf("decode tool list: %w", err)
	}

	tools := make([]llm.Tool, 0, len(decoded.Tools))
	for _, t := range decoded.Tools {
		if t.Name == "" {
			if c.logger != nil {
				c.logger.Warn("Skipping tool descriptor without a name")
			}
			continue
		}
		schema := t.InputSchema
		if schema == nil {
			schema = t.Parameters
		}
		tools = append(tools, llm.Tool{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  repairSchema(t.Name, t.Description, schema),
		})
	}
	return tools, nil
}

// rpc posts one JSON-RPC 2.0 request. The three return values separate
// transport failures (err) from server-reported errors (rpcErr).
func (c *Client) rpc(ctx context.Context, method string, params interface{}) (json.RawMessage, *rpcError, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, decoded.Error, nil
	}
	return decoded.Result, nil, nil
}

// decodeToolPayload unwraps result.content[0].text. The text is
// JSON-encoded by convention; unparseable text is passed through raw.
func decodeToolPayload(result json.RawMessage) interface{} {
	if len(result) == 0 {
		return nil
	}
	var envelope struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(result, &envelope); err != nil || len(envelope.Content) == 0 {
		return nil
	}
	text := envelope.Content[0].Text
	var data interface{}
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return text
	}
	return data
}

// repairSchema replaces a missing or empty input schema with a
// permissive object schema so function calling still works. The
// description steers the model toward sensible arguments.
func repairSchema(name, description string, schema map[string]interface{}) map[string]interface{} {
	if len(schema) > 0 {
		return schema
	}
	if description == "" {
		description = "No description available"
	}
	return map[string]interface{}{
		"type":                 "object",
		"properties":           map[string]interface{}{},
		"required":             []string{},
		"additionalProperties": true,
		"description":          fmt.Sprintf("Dynamic parameters for %s. Pass any relevant parameters based on the tool description: %s", name, description),
	}
}

type wireTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}
