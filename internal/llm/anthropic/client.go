// Package anthropic implements llm.Client on top of the Anthropic
// messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goanthropic "github.com/liushuangls/go-anthropic/v2"

	"mirror-backend/internal/llm"
)

const (
	defaultModel   = "claude-3-5-sonnet-20241022"
	defaultTimeout = 60 * time.Second
	maxTokens      = 1000
)

type Client struct {
	api   *goanthropic.Client
	model string
}

func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, llm.ErrNotConfigured
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	api := goanthropic.NewClient(apiKey, goanthropic.WithHTTPClient(&http.Client{Timeout: timeout}))
	return &Client{api: api, model: model}, nil
}

func (c *Client) AnalyzeDecision(ctx context.Context, input llm.DecisionInput) (llm.Analysis, error) {
	prompt := llm.BuildPrompt(input)
	resp, err := c.api.CreateMessages(ctx, goanthropic.MessagesRequest{
		Model:     goanthropic.Model(c.model),
		MaxTokens: maxTokens,
		System:    llm.SystemPrompt,
		Messages: []goanthropic.Message{
			{
				Role: goanthropic.RoleUser,
				Content: []goanthropic.MessageContent{
					{Type: "text", Text: &prompt},
				},
			},
		},
	})
	if err != nil {
		return llm.Analysis{}, classify(err)
	}
	text := firstText(resp.Content)
	if text == "" {
		return llm.Analysis{}, &llm.ProviderError{Provider: "anthropic", Message: "empty completion"}
	}
	return llm.ParseAnalysis(text)
}

func firstText(blocks []goanthropic.MessageContent) string {
	for _, block := range blocks {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}

func classify(err error) error {
	var reqErr *goanthropic.RequestError
	if errors.As(err, &reqErr) {
		return &llm.ProviderError{
			Provider:   "anthropic",
			StatusCode: reqErr.StatusCode,
			Message:    reqErr.Error(),
			Err:        err,
		}
	}
	return &llm.ProviderError{Provider: "anthropic", Message: fmt.Sprintf("request failed: %v", err), Err: err}
}
