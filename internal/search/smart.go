package search

import (
	"context"
	"fmt"

	"github.com/TuanStark/english-learning-ai-assistant/internal/chat"
	"github.com/TuanStark/english-learning-ai-assistant/internal/mcp"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/logging"
)

// ToolCaller is the slice of the MCP client the searcher needs.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]interface{}) mcp.CallResult
}

const searchToolName = "search_properties"

// Searcher runs escalating search passes against the property search tool
// until one of them yields results.
type Searcher struct {
	tools  ToolCaller
	logger logging.Logger
}

// NewSearcher wires a smart searcher.
func NewSearcher(tools ToolCaller, logger logging.Logger) *Searcher {
	return &Searcher{tools: tools, logger: logger}
}

// SuggestionSet is the refinement guidance attached to a search outcome.
type SuggestionSet struct {
	Message      string                   `json:"message"`
	Alternatives []map[string]interface{} `json:"alternatives"`
	Related      []map[string]interface{} `json:"related"`
	Tips         []string                 `json:"tips"`
}

// Metadata describes how a search outcome was reached.
type Metadata struct {
	OriginalQuery  string   `json:"originalQuery"`
	SearchAttempts int      `json:"searchAttempts"`
	TotalResults   int      `json:"totalResults"`
	SearchPath     []string `json:"searchPath"`
	KnowledgeUsed  []string `json:"knowledgeUsed,omitempty"`
}

// Result is the outcome of one smart search.
type Result struct {
	Success     bool                     `json:"success"`
	Results     []map[string]interface{} `json:"results"`
	Strategy    string                   `json:"searchStrategy"`
	Suggestions *SuggestionSet           `json:"suggestions,omitempty"`
	Metadata    Metadata                 `json:"metadata"`
}

var strategyMessages = map[string]string{
	"exact":    "Tìm thấy kết quả chính xác theo yêu cầu của bạn.",
	"flexible": "Tìm thấy kết quả với tiêu chí linh hoạt hơn.",
	"fallback": "Tìm thấy các bất động sản trong khu vực bạn quan tâm.",
	"related":  "Tìm thấy các bất động sản liên quan đến yêu cầu của bạn.",
}

// Search runs the strategy ladder for one query: exact parameters first,
// then a widened window, then extracted alternatives, then location only,
// then related areas and property types, and as a last resort the
// geography tables.
func (s *Searcher) Search(ctx context.Context, query string) Result {
	analysis := Analyze(query)
	attempts := 0
	var path []string

	run := func(step string, params Params) []map[string]interface{} {
		attempts++
		path = append(path, step)
		return s.execute(ctx, params)
	}

	if rows := run("exact_search", analysis.Strategy.Exact); len(rows) > 0 {
		return s.success(query, rows, "exact", analysis, attempts, path)
	}

	if rows := run("flexible_search", analysis.Strategy.Flexible); len(rows) > 0 {
		return s.success(query, rows, "flexible", analysis, attempts, path)
	}

	for _, alt := range analysis.Alternatives {
		step := fmt.Sprintf("alternative_search_%d", attempts+1)
		if rows := run(step, alt); len(rows) > 0 {
			return s.success(query, rows, "flexible", analysis, attempts, path)
		}
	}

	if rows := run("fallback_search", analysis.Strategy.Fallback); len(rows) > 0 {
		return s.success(query, rows, "fallback", analysis, attempts, path)
	}

	var related []map[string]interface{}
	for _, params := range analysis.Related {
		step := fmt.Sprintf("related_search_%d", attempts+1)
		rows := run(step, params)
		if len(rows) > 3 {
			rows = rows[:3]
		}
		related = append(related, rows...)
		if len(related) >= 5 {
			break
		}
	}
	if len(related) > 0 {
		return s.success(query, related, "related", analysis, attempts, path)
	}

	if geo := relevantGeoKnowledge(query); !geo.empty() {
		params := geo.enhance(analysis.Primary)
		if rows := run("knowledge_enhanced_search", params); len(rows) > 0 {
			res := s.success(query, rows, "flexible", analysis, attempts, path)
			res.Suggestions.Message = "Tìm thấy kết quả dựa trên thông tin địa lý và kiến thức bổ sung."
			res.Suggestions.Tips = []string{
				"Kết quả được tìm thấy nhờ thông tin địa lý chi tiết",
				"Thử mở rộng khu vực tìm kiếm để có thêm lựa chọn",
			}
			res.Metadata.KnowledgeUsed = geo.kinds()
			return res
		}
	}

	s.logger.WithFields(logging.Fields{
		"query":    truncate(query, 100),
		"attempts": attempts,
	}).Info("Smart search exhausted all strategies")

	return Result{
		Success:  false,
		Results:  []map[string]interface{}{},
		Strategy: "fallback",
		Suggestions: &SuggestionSet{
			Message:      "Không tìm thấy bất động sản phù hợp với yêu cầu của bạn. Dưới đây là một số gợi ý:",
			Alternatives: alternativeSuggestions(analysis),
			Related:      relatedSuggestions(analysis),
			Tips:         searchTips(analysis),
		},
		Metadata: Metadata{
			OriginalQuery:  query,
			SearchAttempts: attempts,
			TotalResults:   0,
			SearchPath:     path,
		},
	}
}

func (s *Searcher) execute(ctx context.Context, params Params) []map[string]interface{} {
	outcome := s.tools.CallTool(ctx, searchToolName, params)
	if !outcome.Success {
		s.logger.WithFields(logging.Fields{"error": outcome.Err}).Warn("Search tool call failed")
		return nil
	}
	return chat.ExtractResults(searchToolName, outcome.Data)
}

func (s *Searcher) success(query string, rows []map[string]interface{}, strategy string, analysis Analysis, attempts int, path []string) Result {
	suggestions := &SuggestionSet{
		Message: strategyMessages[strategy],
		Related: relatedSuggestions(analysis),
	}
	if strategy != "exact" {
		suggestions.Alternatives = alternativeSuggestions(analysis)
	} else {
		suggestions.Alternatives = []map[string]interface{}{}
	}
	if len(rows) < 5 {
		suggestions.Tips = searchTips(analysis)
	} else {
		suggestions.Tips = []string{}
	}

	return Result{
		Success:     true,
		Results:     rows,
		Strategy:    strategy,
		Suggestions: suggestions,
		Metadata: Metadata{
			OriginalQuery:  query,
			SearchAttempts: attempts,
			TotalResults:   len(rows),
			SearchPath:     path,
		},
	}
}

func alternativeSuggestions(analysis Analysis) []map[string]interface{} {
	var alternatives []map[string]interface{}

	for _, band := range analysis.Suggestions.PriceRanges {
		params := cloneParams(analysis.Primary)
		if band.Min > 0 {
			params["minPrice"] = band.Min
		}
		if band.Max > 0 {
			params["maxPrice"] = band.Max
		}
		alternatives = append(alternatives, map[string]interface{}{
			"type":   "price_range",
			"label":  band.Label,
			"params": params,
		})
	}

	for _, location := range head(analysis.Suggestions.LocationVariants, 3) {
		params := cloneParams(analysis.Primary)
		params["location"] = location
		alternatives = append(alternatives, map[string]interface{}{
			"type":   "location",
			"label":  fmt.Sprintf("Tìm kiếm tại %s", location),
			"params": params,
		})
	}

	if len(alternatives) > 5 {
		alternatives = alternatives[:5]
	}
	return alternatives
}

func relatedSuggestions(analysis Analysis) []map[string]interface{} {
	related := make([]map[string]interface{}, 0, 3)
	for i, params := range analysis.Related {
		if i >= 3 {
			break
		}
		propertyType := "Bất động sản"
		if t, ok := params["propertyType"].(string); ok && t != "" {
			propertyType = t
		}
		location := "khu vực khác"
		if l, ok := params["location"].(string); ok && l != "" {
			location = l
		}
		related = append(related, map[string]interface{}{
			"type":   "related",
			"label":  fmt.Sprintf("%s tại %s", propertyType, location),
			"params": params,
		})
	}
	return related
}

func searchTips(analysis Analysis) []string {
	var tips []string
	if _, ok := analysis.Primary["maxPrice"]; ok {
		tips = append(tips, "Thử tăng ngân sách để có nhiều lựa chọn hơn")
	}
	if _, ok := analysis.Primary["bedrooms"]; ok {
		tips = append(tips, "Xem xét giảm số phòng ngủ để có nhiều tùy chọn hơn")
	}
	if _, ok := analysis.Primary["location"]; ok {
		tips = append(tips, "Mở rộng tìm kiếm sang các quận lân cận")
	}
	tips = append(tips, "Liên hệ với chúng tôi để được tư vấn cá nhân hóa")
	return tips
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
