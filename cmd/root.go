// Package cmd contains the newschat command-line interface.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "newschat",
	Short: "Retrieval-augmented chat over a news article database",
	Long: `newschat answers questions about news articles by embedding the
question, retrieving similar articles from PostgreSQL (pgvector) and
grounding an OpenAI chat completion in the retrieved documents.

Run 'newschat serve' to start the HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. A .env file in the working directory is
// loaded first so local development does not need exported variables.
func Execute() error {
	_ = godotenv.Load()
	return rootCmd.Execute()
}
