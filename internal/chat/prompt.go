package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TuanStark/english-learning-ai-assistant/pkg/llm"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/logging"
)

// PromptComposer assembles the system prompt from the base template, the
// live tool catalog and optional knowledge sections. Its configuration is
// fixed at construction; Compose never mutates it, so one composer is safe
// to share across requests.
type PromptComposer struct {
	template  string
	appendix  string
	knowledge *KnowledgeLoader
	logger    logging.Logger
}

// NewPromptComposer builds a composer. knowledge may be nil, in which case
// complex queries get the base prompt only.
func NewPromptComposer(knowledge *KnowledgeLoader, logger logging.Logger) *PromptComposer {
	return &PromptComposer{
		template:  basePromptTemplate,
		appendix:  platformPrompt + leadCapturePrompt,
		knowledge: knowledge,
		logger:    logger,
	}
}

// Compose renders the system prompt for one request. It never fails: any
// problem along the way degrades to a simpler prompt, down to a static
// fallback.
func (p *PromptComposer) Compose(query string, tools []llm.Tool) string {
	base := p.basePrompt(tools)
	if base == "" {
		return fallbackPrompt
	}
	if query == "" {
		return base
	}

	analysis := AnalyzeComplexity(query)
	if !analysis.NeedsKnowledgeBase || p.knowledge == nil {
		return base
	}

	sections := RelevantSections(query, analysis)
	enhanced := base
	seen := make(map[string]bool, len(sections))
	for _, section := range sections {
		content := p.knowledge.Section(section)
		// Sections can resolve to the same underlying text; append it
		// once, under the first matching section's header.
		if content == "" || seen[content] {
			continue
		}
		seen[content] = true
		enhanced += "\n\n=== " + section + " ===\n" + content
	}

	p.logger.WithFields(logging.Fields{
		"complexity": analysis.Complexity,
		"score":      analysis.Score,
		"sections":   sections,
		"base_len":   len(base),
		"final_len":  len(enhanced),
	}).Debug("System prompt enhanced with knowledge sections")

	return enhanced
}

func (p *PromptComposer) basePrompt(tools []llm.Tool) string {
	toolsList := toolsLoadingPlaceholder
	if len(tools) > 0 {
		lines := make([]string, 0, len(tools))
		for i, tool := range tools {
			desc := tool.Description
			if desc == "" {
				desc = "No description"
			}
			lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, tool.Name, desc))
		}
		toolsList = strings.Join(lines, "\n")
	}

	prompt := strings.Replace(p.template, "{{toolCount}}", strconv.Itoa(len(tools)), 1)
	prompt = strings.Replace(prompt, "{{toolsList}}", toolsList, 1)
	return prompt + p.appendix
}
