// internal/interpreter/openai.go
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// DefaultOpenRouterURL is the chat-completions endpoint used when none is configured.
const DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

// OpenAICompleter talks to any OpenAI-compatible chat-completions endpoint,
// OpenRouter included.
type OpenAICompleter struct {
	client *openai.Client
	model  string
	logger *logrus.Logger
}

func NewOpenAICompleter(baseURL, apiKey, model string, logger *logrus.Logger) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, errors.New("openai-compatible provider requires an API key")
	}
	if model == "" {
		return nil, errors.New("openai-compatible provider requires a model")
	}
	if baseURL == "" {
		baseURL = DefaultOpenRouterURL
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = strings.TrimSuffix(baseURL, "/")
	config.HTTPClient = &http.Client{Timeout: 5 * time.Minute}

	return &OpenAICompleter{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}, nil
}

func (c *OpenAICompleter) request(p Prompt) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		Temperature: float32(p.Temperature),
		MaxTokens:   p.MaxTokens,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(p))
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}

	c.logger.WithFields(logrus.Fields{
		"model":             c.model,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	}).Debug("chat completion finished")
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAICompleter) CompleteStream(ctx context.Context, p Prompt, onDelta DeltaFunc) (string, error) {
	req := c.request(p)
	req.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	defer stream.Close()

	var content strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", classifyOpenAIError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		content.WriteString(delta)
		if err := onDelta(delta); err != nil {
			return "", err
		}
	}

	return content.String(), nil
}

// UpstreamError is a provider failure with an HTTP status when one is known.
type UpstreamError struct {
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) IsRetryable() bool {
	return e.Retryable
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Retryable: retryableStatus(apiErr.HTTPStatusCode), Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Retryable: retryableStatus(reqErr.HTTPStatusCode), Err: err}
	}
	return err
}
