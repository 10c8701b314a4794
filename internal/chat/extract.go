package chat

import (
	"fmt"
	"strings"
)

// resultExtractor pulls the display payload out of one tool's decoded
// response. Tool servers wrap their rows in differently named containers,
// so each tool family registers the key it uses.
type resultExtractor struct {
	match   string
	extract func(data map[string]interface{}) []map[string]interface{}
}

func containerExtractor(key string) func(map[string]interface{}) []map[string]interface{} {
	return func(data map[string]interface{}) []map[string]interface{} {
		return toMapSlice(data[key])
	}
}

// Ordered list; the first matching entry whose container key is present
// wins. Tools whose names match none of these, or whose payload lacks the
// registered container, fall through to the property extractor. The
// property search tools hit the "search" entry by name but carry their
// rows under properties, not search_results.
var resultExtractors = []resultExtractor{
	{"vocabulary", containerExtractor("vocabulary")},
	{"grammar", containerExtractor("grammar_lessons")},
	{"exam", containerExtractor("exams")},
	{"learning_path", containerExtractor("learning_paths")},
	{"blog", containerExtractor("blog_posts")},
	{"search", containerExtractor("search_results")},
	{"progress", containerExtractor("progress")},
}

// ExtractResults pulls display rows from a tool result by tool name.
func ExtractResults(toolName string, payload interface{}) []map[string]interface{} {
	data, ok := payload.(map[string]interface{})
	if !ok {
		return nil
	}
	if inner, ok := data["data"].(map[string]interface{}); ok {
		data = inner
	}

	lower := strings.ToLower(toolName)
	for _, ex := range resultExtractors {
		if strings.Contains(lower, ex.match) {
			if rows := ex.extract(data); rows != nil {
				return rows
			}
			break
		}
	}
	return extractProperties(data)
}

// extractProperties handles the legacy listing shapes. Rows can live under
// properties, propertiesView or propertyViews; view rows wrap the listing
// in a property field.
func extractProperties(data map[string]interface{}) []map[string]interface{} {
	if rows := toMapSlice(data["properties"]); rows != nil {
		return backfillSlugs(rows)
	}
	for _, key := range []string{"propertiesView", "propertyViews"} {
		views := toMapSlice(data[key])
		if views == nil {
			continue
		}
		rows := make([]map[string]interface{}, 0, len(views))
		for _, view := range views {
			if prop, ok := view["property"].(map[string]interface{}); ok {
				rows = append(rows, prop)
			} else {
				rows = append(rows, view)
			}
		}
		return backfillSlugs(rows)
	}
	return nil
}

func backfillSlugs(rows []map[string]interface{}) []map[string]interface{} {
	for _, row := range rows {
		if slug, ok := row["slug"].(string); ok && slug != "" {
			continue
		}
		if id, ok := row["id"]; ok {
			row["slug"] = fmt.Sprintf("property-%v", id)
		}
	}
	return rows
}

func toMapSlice(v interface{}) []map[string]interface{} {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			rows = append(rows, m)
		}
	}
	return rows
}
