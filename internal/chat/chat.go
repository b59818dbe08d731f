// Package chat implements the retrieval-augmented answer pipeline.
//
// For each question the service embeds the text, optionally checks the
// response cache for a near-duplicate prompt, retrieves similar news
// articles alongside recent exchanges, assembles a grounded prompt, calls
// the completion backend and persists the resulting exchange.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/richagaur/newschat/internal/article"
	"github.com/richagaur/newschat/internal/cache"
	"github.com/richagaur/newschat/internal/openai"
)

// systemInstructions grounds the model in the retrieved documents and keeps
// answers on topic.
const systemInstructions = `You are an intelligent assistant for news aggregation company.
	You are designed to provide helpful answers to user questions about news in your database.
	You are friendly, helpful, and informative and can be lighthearted. Be concise in your responses, but still friendly.
	 - Only answer questions related to the information provided below.
	 - Write two lines of whitespace between each answer in the list.`

// fallbackAnswer is returned when the model produces no usable completion.
// Exchanges that fall back are never cached.
const fallbackAnswer = "I apologize for not answering this question. Please ask another question."

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ArticleSearcher finds articles whose embeddings are close to a query vector.
type ArticleSearcher interface {
	Search(ctx context.Context, vec []float32, opts ...article.SearchOption) ([]article.Result, error)
}

// HistoryStore reads and appends cached exchanges.
type HistoryStore interface {
	Recent(ctx context.Context, limit int) ([]cache.Exchange, error)
	Lookup(ctx context.Context, vec []float32, threshold float32) (*cache.Exchange, error)
	Insert(ctx context.Context, ex cache.Exchange, vec []float32) error
}

// Completer produces a chat completion for an ordered message list.
type Completer interface {
	Complete(ctx context.Context, messages []openai.Message, temperature float32) (openai.Completion, error)
}

// Options tune the pipeline. Zero values fall back to the package defaults
// applied in NewService.
type Options struct {
	Temperature       float32
	MinScore          float32
	TopK              int
	HistoryLimit      int
	CacheHitEnabled   bool
	CacheHitThreshold float32
}

// Reply is the outcome of one answered question.
type Reply struct {
	Text   string
	Cached bool
}

// Service wires the embedding, retrieval and completion stages together.
type Service struct {
	embedder  Embedder
	articles  ArticleSearcher
	history   HistoryStore
	completer Completer
	opts      Options
	logger    *slog.Logger
}

// NewService builds a Service. Unset numeric options inherit the retrieval
// defaults so a zero Options value still yields a working pipeline.
func NewService(embedder Embedder, articles ArticleSearcher, history HistoryStore, completer Completer, opts Options, logger *slog.Logger) *Service {
	if opts.TopK <= 0 {
		opts.TopK = article.DefaultTopK
	}
	if opts.MinScore <= 0 {
		opts.MinScore = article.DefaultMinScore
	}
	if opts.HistoryLimit < 0 {
		opts.HistoryLimit = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embedder:  embedder,
		articles:  articles,
		history:   history,
		completer: completer,
		opts:      opts,
		logger:    logger,
	}
}

// Answer runs the full pipeline for one user question.
//
// The question is embedded once; the same vector drives the cache lookup,
// the article search and the persisted exchange. A cache hit short-circuits
// before any retrieval or completion work happens.
func (s *Service) Answer(ctx context.Context, question string) (Reply, error) {
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return Reply{}, fmt.Errorf("embed question: %w", err)
	}

	if s.opts.CacheHitEnabled {
		hit, err := s.history.Lookup(ctx, vec, s.opts.CacheHitThreshold)
		if err != nil {
			return Reply{}, fmt.Errorf("cache lookup: %w", err)
		}
		if hit != nil && hit.Completion != "" {
			s.logger.Info("cache hit", "exchange_id", hit.ID)
			return Reply{Text: hit.Completion, Cached: true}, nil
		}
	}

	var (
		docs    []article.Result
		history []cache.Exchange
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = s.articles.Search(gctx, vec,
			article.WithTopK(s.opts.TopK),
			article.WithMinScore(s.opts.MinScore),
		)
		if err != nil {
			return fmt.Errorf("search articles: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		history, err = s.history.Recent(gctx, s.opts.HistoryLimit)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Reply{}, err
	}

	messages, err := assembleMessages(question, history, docs)
	if err != nil {
		return Reply{}, err
	}

	completion, err := s.completer.Complete(ctx, messages, s.opts.Temperature)
	if err != nil {
		return Reply{}, fmt.Errorf("complete: %w", err)
	}
	if completion.Text == "" {
		s.logger.Warn("empty completion, answering with fallback")
		return Reply{Text: fallbackAnswer}, nil
	}

	ex := cache.Exchange{
		ID:               uuid.NewString(),
		Prompt:           question,
		Completion:       completion.Text,
		CompletionTokens: strconv.Itoa(completion.Usage.CompletionTokens),
		PromptTokens:     strconv.Itoa(completion.Usage.PromptTokens),
		TotalTokens:      strconv.Itoa(completion.Usage.TotalTokens),
		Model:            completion.Model,
	}
	if err := s.history.Insert(ctx, ex, vec); err != nil {
		return Reply{}, fmt.Errorf("cache exchange: %w", err)
	}
	s.logger.Info("answered",
		"exchange_id", ex.ID,
		"documents", len(docs),
		"history", len(history),
		"total_tokens", ex.TotalTokens,
	)
	return Reply{Text: completion.Text}, nil
}

// assembleMessages builds the conversation in the order the completion
// backend expects: instructions, prior exchanges, the question, then one
// system message per retrieved document.
func assembleMessages(question string, history []cache.Exchange, docs []article.Result) ([]openai.Message, error) {
	messages := make([]openai.Message, 0, len(history)+len(docs)+2)
	messages = append(messages, openai.Message{Role: openai.RoleSystem, Content: systemInstructions})

	for _, ex := range history {
		// Incomplete exchanges carry no signal for the model.
		if ex.Prompt == "" || ex.Completion == "" {
			continue
		}
		messages = append(messages, openai.Message{
			Role:    openai.RoleUser,
			Content: ex.Prompt + " " + ex.Completion,
		})
	}

	messages = append(messages, openai.Message{Role: openai.RoleUser, Content: question})

	for _, doc := range docs {
		if doc.Content == "" {
			continue
		}
		payload, err := json.Marshal(struct {
			Content string `json:"content"`
		}{Content: doc.Content})
		if err != nil {
			return nil, fmt.Errorf("encode document %s: %w", doc.ID, err)
		}
		messages = append(messages, openai.Message{Role: openai.RoleSystem, Content: string(payload)})
	}
	return messages, nil
}
