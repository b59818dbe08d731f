// Package openai provides a minimal client for OpenAI-compatible embedding
// and chat completion APIs, including Azure OpenAI deployments.
//
// The client performs no retries: backend failures propagate to the caller
// and fail the whole request.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/richagaur/newschat/internal/log"
)

// Message roles accepted by the completions API.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// RequestTimeout bounds a single backend call.
const RequestTimeout = 120 * time.Second

// Message is one entry of the ordered prompt sequence sent to the
// completions API. Assembled per request, discarded after the call returns.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token consumption for a completion.
type Usage struct {
	CompletionTokens int `json:"completion_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the result of a chat completion call.
// Text is empty when the backend returned no choices or empty content.
type Completion struct {
	Text  string
	Model string
	Usage Usage
}

// Config holds the backend connection settings.
type Config struct {
	// Endpoint is the API base URL, e.g. https://api.openai.com or
	// https://<resource>.openai.azure.com.
	Endpoint string

	// APIKey authenticates requests. Sent as "api-key" for Azure
	// deployments, "Authorization: Bearer" otherwise.
	APIKey string

	// APIVersion selects the Azure OpenAI API version. When non-empty the
	// client uses Azure deployment-style paths; when empty it uses the
	// standard /v1 paths.
	APIVersion string

	// EmbeddingsDeployment is the embeddings model or deployment name.
	EmbeddingsDeployment string

	// Dimensions is the requested embedding vector size.
	Dimensions int

	// CompletionsDeployment is the chat model or deployment name.
	CompletionsDeployment string
}

// Client calls an OpenAI-compatible backend over HTTP.
// Safe for concurrent use.
type Client struct {
	client *http.Client
	cfg    Config
	logger log.Logger
}

// NewClient creates a Client from the given configuration.
func NewClient(cfg Config, logger log.Logger) *Client {
	return &Client{
		client: &http.Client{Timeout: RequestTimeout},
		cfg:    cfg,
		logger: logger,
	}
}

// Embed generates an embedding vector for the given text.
// The returned vector has the configured dimension; a backend that produces
// any other size is reported as an error.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{
		"input":      text,
		"model":      c.cfg.EmbeddingsDeployment,
		"dimensions": c.cfg.Dimensions,
	}

	data, err := c.post(ctx, c.path(c.cfg.EmbeddingsDeployment, "embeddings"), payload)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}
	if len(result.Data) == 0 || len(result.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	embedding := result.Data[0].Embedding
	if len(embedding) != c.cfg.Dimensions {
		return nil, fmt.Errorf("embedding dimension mismatch: backend returned %d, expected %d",
			len(embedding), c.cfg.Dimensions)
	}

	return embedding, nil
}

// Complete sends the ordered message sequence to the completions API.
// An answer-less response (no choices, or empty content) is not an error;
// it yields a Completion with empty Text so the caller can fall back.
func (c *Client) Complete(ctx context.Context, messages []Message, temperature float32) (Completion, error) {
	payload := map[string]any{
		"model":       c.cfg.CompletionsDeployment,
		"messages":    messages,
		"temperature": temperature,
	}

	data, err := c.post(ctx, c.path(c.cfg.CompletionsDeployment, "chat/completions"), payload)
	if err != nil {
		return Completion{}, fmt.Errorf("completions request: %w", err)
	}

	var result struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage Usage `json:"usage"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return Completion{}, fmt.Errorf("decode completions response: %w", err)
	}

	completion := Completion{
		Model: result.Model,
		Usage: result.Usage,
	}
	if len(result.Choices) > 0 {
		completion.Text = result.Choices[0].Message.Content
	}

	return completion, nil
}

// path builds the request path for the given deployment and operation,
// using Azure deployment routing when an API version is configured.
func (c *Client) path(deployment, operation string) string {
	if c.cfg.APIVersion != "" {
		return fmt.Sprintf("/openai/deployments/%s/%s?api-version=%s",
			url.PathEscape(deployment), operation, url.QueryEscape(c.cfg.APIVersion))
	}
	return "/v1/" + operation
}

// post sends a JSON POST request and returns the response body.
// Non-2xx statuses are returned as errors including the body text.
func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIVersion != "" {
		req.Header.Set("api-key", c.cfg.APIKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	return data, nil
}
