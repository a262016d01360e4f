// Package claude implements llm.Provider on top of the Anthropic API.
package claude

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// maxResponseTokens bounds a single evaluation response. Scoring and
// plausibility verdicts are small JSON objects; anything near this limit
// is already malformed.
const maxResponseTokens = 1024

// Client sends single-shot evaluation prompts to the Claude API.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// New creates a Claude-backed provider. The timeout bounds each request;
// there are no retries, callers fall back to rule-based scoring on the
// first failure. Extra options are for tests (base URL, http client).
func New(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) *Client {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	}
	return &Client{
		client: anthropic.NewClient(append(base, opts...)...),
		model:  anthropic.Model(model),
	}
}

// Evaluate sends the prompt as a single user message and returns the
// concatenated text content of the response.
func (c *Client) Evaluate(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxResponseTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude: messages.new: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("claude: empty response (stop_reason=%s)", msg.StopReason)
	}
	return b.String(), nil
}
