package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/richagaur/newschat/internal/article"
	"github.com/richagaur/newschat/internal/config"
	"github.com/richagaur/newschat/internal/log"
	"github.com/richagaur/newschat/internal/openai"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.json>",
	Short: "Embed and load news articles from a JSON file",
	Long: `Reads a JSON array of articles ({"id","title","content","category"}),
embeds each article's content and upserts it into the article store.
Articles without an id are assigned one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(args[0])
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// ingestRecord is one article in the input file.
type ingestRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

func runIngest(path string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{Level: slog.LevelInfo})

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var records []ingestRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%s contains no articles", path)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	client := openai.NewClient(openai.Config{
		Endpoint:             cfg.OpenAIEndpoint,
		APIKey:               cfg.OpenAIAPIKey,
		APIVersion:           cfg.OpenAIAPIVersion,
		EmbeddingsDeployment: cfg.EmbeddingsDeployment,
		Dimensions:           cfg.EmbeddingDimensions,
	}, logger)
	store := article.New(pool, logger)

	for i, rec := range records {
		if rec.Content == "" {
			logger.Warn("skipping article with empty content", "index", i, "id", rec.ID)
			continue
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}

		vec, err := client.Embed(ctx, rec.Content)
		if err != nil {
			return fmt.Errorf("embedding article %s: %w", rec.ID, err)
		}
		a := article.Article{
			ID:       rec.ID,
			Title:    rec.Title,
			Content:  rec.Content,
			Category: rec.Category,
		}
		if err := store.Upsert(ctx, a, vec); err != nil {
			return fmt.Errorf("storing article %s: %w", rec.ID, err)
		}
		logger.Info("ingested article", "id", rec.ID, "category", rec.Category)
	}

	count, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting articles: %w", err)
	}
	logger.Info("ingest complete", "articles_total", count)
	return nil
}
