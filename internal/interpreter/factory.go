// internal/interpreter/factory.go
package interpreter

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Supported providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
)

// Settings selects and configures the completion provider.
type Settings struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Retry    RetryConfig
}

// NewCompleter builds the configured provider wrapped in a Retrying decorator.
func NewCompleter(s Settings, logger *logrus.Logger) (*Retrying, error) {
	var (
		next Completer
		err  error
	)
	switch s.Provider {
	case ProviderOpenRouter, ProviderOpenAI, "":
		next, err = NewOpenAICompleter(s.BaseURL, s.APIKey, s.Model, logger)
	case ProviderAnthropic:
		next, err = NewAnthropicCompleter(s.BaseURL, s.APIKey, s.Model, logger)
	default:
		return nil, fmt.Errorf("unknown interpreter provider %q", s.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"provider": s.Provider,
		"model":    s.Model,
	}).Info("interpreter configured")
	return NewRetrying(next, s.Retry, logger), nil
}
