// internal/interpreter/anthropic.go
package interpreter

import (
	"context"
	"errors"
	"net/http"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sirupsen/logrus"
)

// AnthropicCompleter sends prompts to the Anthropic Messages API. It does not stream;
// callers asking for a stream receive the whole answer as one delta.
type AnthropicCompleter struct {
	client *anthropic.Client
	model  string
	logger *logrus.Logger
}

func NewAnthropicCompleter(baseURL, apiKey, model string, logger *logrus.Logger) (*AnthropicCompleter, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic provider requires an API key")
	}
	if model == "" {
		return nil, errors.New("anthropic provider requires a model")
	}

	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &AnthropicCompleter{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
		logger: logger,
	}, nil
}

func (c *AnthropicCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	user := p.User
	temperature := float32(p.Temperature)

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		System:      p.System,
		MaxTokens:   p.MaxTokens,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: anthropic.MessagesContentTypeText, Text: &user},
			}},
		},
	})
	if err != nil {
		return "", classifyAnthropicError(err)
	}

	c.logger.WithFields(logrus.Fields{
		"model":         c.model,
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
	}).Debug("messages request finished")

	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			return *block.Text, nil
		}
	}
	return "", errEmptyCompletion
}

// anthropicStatus maps API error types to the HTTP status the API documents for them.
// The client library reports the type but not the status.
var anthropicStatus = map[anthropic.ErrType]int{
	anthropic.ErrTypeInvalidRequest: http.StatusBadRequest,
	anthropic.ErrTypeAuthentication: http.StatusUnauthorized,
	anthropic.ErrTypePermission:     http.StatusForbidden,
	anthropic.ErrTypeNotFound:       http.StatusNotFound,
	anthropic.ErrTypeTooLarge:       http.StatusRequestEntityTooLarge,
	anthropic.ErrTypeRateLimit:      http.StatusTooManyRequests,
	anthropic.ErrTypeApi:            http.StatusInternalServerError,
	anthropic.ErrTypeOverloaded:     529,
}

func classifyAnthropicError(err error) error {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		code := anthropicStatus[apiErr.Type]
		return &UpstreamError{StatusCode: code, Retryable: retryableStatus(code), Err: err}
	}
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{StatusCode: reqErr.StatusCode, Retryable: retryableStatus(reqErr.StatusCode), Err: err}
	}
	return err
}
