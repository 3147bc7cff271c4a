// Package openaicompat adapts any OpenAI-compatible chat completion server
// (llama.cpp, vLLM, hosted APIs) to the recognition gateway contract.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/graspmind/graspmind/pkg/gateway"
)

const defaultTimeout = 300 * time.Second

// Client talks to an OpenAI-compatible /v1/chat/completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []contentPart
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// NewClient creates an OpenAI-compatible gateway client. apiKey may be
// empty for local servers.
func NewClient(serverURL, apiKey, model string) (*Client, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}, nil
}

// Invoke sends one chat completion request and returns the raw text of the
// first choice.
func (c *Client) Invoke(ctx context.Context, req gateway.Request) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	content := []contentPart{
		{Type: "text", Text: req.Instruction},
	}
	if len(req.Image) > 0 {
		content = append(content, contentPart{
			Type: "image_url",
			ImageURL: &imageURL{
				URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(req.Image),
			},
		})
	}

	temperature := 0.7
	if req.ExpectStructured {
		temperature = 0.0
	}
	payload := chatCompletionRequest{
		Model:       c.model,
		Messages:    []message{{Role: "user", Content: content}},
		Temperature: temperature,
		MaxTokens:   4096,
		Stream:      false,
	}

	body, err := c.send(ctx, "/v1/chat/completions", payload)
	if err != nil {
		return "", err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	text := extractText(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}
	return text, nil
}

func (c *Client) send(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// extractText handles both string and content-part array response formats.
func extractText(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		for _, item := range c {
			if part, ok := item.(map[string]any); ok {
				if text, ok := part["text"].(string); ok && text != "" {
					return text
				}
			}
		}
	}
	return ""
}
