package chat

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/TuanStark/english-learning-ai-assistant/pkg/cache"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/logging"
)

// KnowledgeLoader serves domain knowledge markdown to the prompt composer.
// Files live under a base directory and are cached with a TTL so edits on
// disk show up without a restart. A missing file is not an error; the
// section just comes back empty.
type KnowledgeLoader struct {
	baseDir string
	cache   *cache.Cache
	logger  logging.Logger
}

const knowledgeTTL = 10 * time.Minute

// Relative paths of the knowledge files under the base directory.
var knowledgeFiles = map[string]string{
	"domain":   filepath.Join("documents", "domain_knowledge.md"),
	"website":  filepath.Join("context", "website_context.md"),
	"prompt":   filepath.Join("prompts", "enhanced_agent_prompt.md"),
	"examples": filepath.Join("examples", "conversation_examples.md"),
}

// NewKnowledgeLoader builds a loader rooted at baseDir.
func NewKnowledgeLoader(baseDir string, logger logging.Logger) *KnowledgeLoader {
	return &KnowledgeLoader{
		baseDir: baseDir,
		cache:   cache.New(cache.Options{TTL: knowledgeTTL}, cache.MetricsHooks{}),
		logger:  logger,
	}
}

// Loaded reports whether the primary domain knowledge file is readable.
func (k *KnowledgeLoader) Loaded() bool {
	return k.load(context.Background(), "domain") != ""
}

// Section returns the knowledge content for one named section. All
// sections currently resolve to the domain knowledge; GENERAL_KNOWLEDGE
// additionally carries the website context.
func (k *KnowledgeLoader) Section(section string) string {
	ctx := context.Background()
	domain := k.load(ctx, "domain")
	if section == SectionGeneralKnowledge {
		if website := k.load(ctx, "website"); website != "" {
			if domain != "" {
				return domain + "\n\n" + website
			}
			return website
		}
	}
	return domain
}

// Stats reports the byte size of each knowledge file for the status
// endpoint.
func (k *KnowledgeLoader) Stats() map[string]int {
	stats := make(map[string]int, len(knowledgeFiles))
	for name := range knowledgeFiles {
		stats[name] = len(k.load(context.Background(), name))
	}
	return stats
}

func (k *KnowledgeLoader) load(ctx context.Context, name string) string {
	rel, ok := knowledgeFiles[name]
	if !ok {
		return ""
	}
	val, _, err := k.cache.Get(ctx, name, func(ctx context.Context, key string) (interface{}, bool, error) {
		path := filepath.Join(k.baseDir, rel)
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				k.logger.WithFields(logging.Fields{"path": path, "error": err.Error()}).Warn("Failed to read knowledge file")
			}
			return "", true, nil
		}
		k.logger.WithFields(logging.Fields{"path": path, "size": len(data)}).Debug("Loaded knowledge file")
		return string(data), true, nil
	})
	if err != nil {
		return ""
	}
	s, _ := val.(string)
	return s
}
