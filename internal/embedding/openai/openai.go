package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"pdfchat/internal/domain"
)

// Client talks to OpenAI-compatible embedding and chat-completion
// endpoints. It implements both domain.Embedder and domain.Completer.
type Client struct {
	baseURL     string
	apiKey      string
	embedModel  string
	chatModel   string
	temperature float64
	batchSize   int
	maxRetries  int
	client      *http.Client
}

// Config configures the OpenAI-compatible client.
type Config struct {
	BaseURL     string
	APIKeyEnv   string
	EmbedModel  string
	ChatModel   string
	Temperature float64
	Timeout     time.Duration
	BatchSize   int
}

// NewClient creates a new client using the provided configuration. The
// API key is read from the environment and its absence is an error.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "text-embedding-3-small"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-3.5-turbo"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	b := cfg.BatchSize
	if b <= 0 {
		b = 32
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      key,
		embedModel:  cfg.EmbedModel,
		chatModel:   cfg.ChatModel,
		temperature: cfg.Temperature,
		batchSize:   b,
		maxRetries:  1,
		client:      &http.Client{Timeout: t},
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Prepare is not required for remote embedding.
func (c *Client) Prepare(ctx context.Context, corpus []string) error { return nil }

// EmbedBatch embeds the given texts, batching requests internally. The
// result preserves input order and count.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embed(ctx, texts[start:end])
		if err != nil {
			return nil, &domain.ServiceError{Service: domain.ServiceEmbedding, Err: err}
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (c *Client) embed(ctx context.Context, texts []string) ([][]float64, error) {
	payload := struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}{Input: texts, Model: c.embedModel}

	var resp struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := c.doJSON(ctx, "/embeddings", payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	vectors := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) == 0 {
			return nil, errors.New("empty embedding returned")
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Complete sends a single-user-message chat completion and returns the
// generated text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	payload := struct {
		Model       string    `json:"model"`
		Temperature float64   `json:"temperature"`
		Messages    []message `json:"messages"`
	}{
		Model:       c.chatModel,
		Temperature: c.temperature,
		Messages:    []message{{Role: "user", Content: prompt}},
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.doJSON(ctx, "/chat/completions", payload, &resp); err != nil {
		return "", &domain.ServiceError{Service: domain.ServiceCompletion, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.ServiceError{Service: domain.ServiceCompletion, Err: errors.New("no completion returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

// doJSON posts the payload and decodes the response, with one bounded
// retry on transport errors, 429 and 5xx. Authentication failures are
// never retried.
func (c *Client) doJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if attempt < c.maxRetries {
				sleep(ctx, retryDelay(attempt, ""))
				continue
			}
			return lastErr
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			_ = resp.Body.Close()
			return &domain.AuthError{Status: resp.Status}
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			ra := resp.Header.Get("Retry-After")
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("request failed: %s", resp.Status)
			if attempt < c.maxRetries {
				sleep(ctx, retryDelay(attempt, ra))
				continue
			}
			return lastErr
		case resp.StatusCode >= 300:
			_ = resp.Body.Close()
			return fmt.Errorf("request failed: %s", resp.Status)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("malformed response: %w", err)
		}
		return nil
	}
	return lastErr
}

func retryDelay(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	base := 500 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
