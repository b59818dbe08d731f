package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/richagaur/newschat/db"
	"github.com/richagaur/newschat/internal/api"
	"github.com/richagaur/newschat/internal/article"
	"github.com/richagaur/newschat/internal/cache"
	"github.com/richagaur/newschat/internal/chat"
	"github.com/richagaur/newschat/internal/config"
	"github.com/richagaur/newschat/internal/database"
	"github.com/richagaur/newschat/internal/log"
	"github.com/richagaur/newschat/internal/openai"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{Level: slog.LevelInfo, JSON: true})
	slog.SetDefault(logger)
	logger.Info("starting newschat", "version", Version, "config", cfg.String())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	client := openai.NewClient(openai.Config{
		Endpoint:              cfg.OpenAIEndpoint,
		APIKey:                cfg.OpenAIAPIKey,
		APIVersion:            cfg.OpenAIAPIVersion,
		EmbeddingsDeployment:  cfg.EmbeddingsDeployment,
		Dimensions:            cfg.EmbeddingDimensions,
		CompletionsDeployment: cfg.CompletionsDeployment,
	}, logger)

	service := chat.NewService(
		client,
		article.New(pool, logger),
		cache.New(pool, logger),
		client,
		chat.Options{
			Temperature:       cfg.Temperature,
			MinScore:          cfg.MinScore,
			TopK:              cfg.TopK,
			HistoryLimit:      cfg.HistoryLimit,
			CacheHitEnabled:   cfg.CacheHitEnabled,
			CacheHitThreshold: cfg.CacheHitThreshold,
		},
		logger,
	)

	server, err := api.NewServer(api.ServerConfig{
		Logger:   logger,
		Answerer: service,
		Pinger:   pool,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	return server.Run(ctx, cfg.ListenAddr)
}

// setupDatabase migrates the schema, opens the pool and verifies that the
// declared vector columns match the configured embedding dimension. A
// mismatch is fatal here rather than a per-query failure later.
func setupDatabase(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	for _, table := range []string{"articles", "chat_cache"} {
		if err := database.VerifyVectorDimension(ctx, pool, table, "embedding", cfg.EmbeddingDimensions); err != nil {
			pool.Close()
			return nil, fmt.Errorf("verifying %s schema: %w", table, err)
		}
	}

	logger.Info("database ready",
		"host", cfg.PostgresHost,
		"database", cfg.PostgresDBName,
		"dimensions", cfg.EmbeddingDimensions,
	)
	return pool, nil
}
