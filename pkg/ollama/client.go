// Package ollama adapts a local Ollama server to the recognition gateway
// contract.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/graspmind/graspmind/pkg/gateway"
)

const defaultTimeout = 300 * time.Second // generous: vision models on CPU are slow

// Client wraps the Ollama API client.
type Client struct {
	client *api.Client
	model  string
}

// NewClient creates an Ollama-backed gateway client. Any path component of
// the URL (such as /api/chat) is discarded; only scheme and host are used.
func NewClient(serverURL, model string) (*Client, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	base := &url.URL{
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
	}
	return &Client{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
	}, nil
}

// Invoke sends one chat request and returns the raw response text. No
// Format field is set even for structured requests; the instruction guides
// the output shape and the response parser owns validation.
func (c *Client) Invoke(ctx context.Context, req gateway.Request) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	msg := api.Message{
		Role:    "user",
		Content: req.Instruction,
	}
	if len(req.Image) > 0 {
		msg.Images = []api.ImageData{api.ImageData(req.Image)}
	}

	streamFalse := false
	chatReq := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{msg},
		Stream:   &streamFalse,
	}
	if req.ExpectStructured {
		chatReq.Options = map[string]any{"temperature": 0.0}
	}

	var content string
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}
	if content == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return content, nil
}
