package article

import "time"

// Article is a stored news article. Articles are written once by the
// ingestion path and are read-only to the query pipeline.
type Article struct {
	ID        string
	Title     string
	Content   string
	Category  string
	CreatedAt time.Time
}

// Result pairs an article with its similarity to a query vector.
// Results are produced per request and discarded after prompt assembly;
// the underlying article row is never mutated.
type Result struct {
	Article
	Similarity float32 // cosine similarity, higher = more similar
}

// SearchOption configures search behavior using the functional options pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK     int
	minScore float32
	category string
}

// Search defaults, matching the service configuration defaults.
const (
	DefaultTopK     = 3
	DefaultMinScore = 0.1
)

// WithTopK bounds the number of results returned. Default is 3.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		c.topK = k
	}
}

// WithMinScore sets the similarity threshold. Only results whose score
// strictly exceeds the threshold are returned. Default is 0.1.
func WithMinScore(score float32) SearchOption {
	return func(c *searchConfig) {
		c.minScore = score
	}
}

// WithCategory restricts the search to a single article category.
// By default the search scans all categories.
func WithCategory(category string) SearchOption {
	return func(c *searchConfig) {
		c.category = category
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:     DefaultTopK,
		minScore: DefaultMinScore,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
