package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"medsim/models"
)

// ModelMessage is one turn in a chat-completions request.
type ModelMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelClient is the single seam to the LLM provider. Every call carries the
// caller's context and the client's bounded timeout; failures are never
// retried here.
type ModelClient interface {
	Chat(ctx context.Context, messages []ModelMessage) (string, error)
}

// OpenRouterClient talks to an OpenRouter-compatible chat-completions API.
type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOpenRouterClient(baseURL, apiKey, model string, timeout time.Duration) *OpenRouterClient {
	return &OpenRouterClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []ModelMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenRouterClient) Chat(ctx context.Context, messages []ModelMessage) (string, error) {
	payload, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUpstreamModel, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", models.ErrUpstreamModel, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", models.ErrUpstreamModel, resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: parse response: %v", models.ErrUpstreamModel, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", models.ErrUpstreamModel)
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
