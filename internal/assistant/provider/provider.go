// Package provider adapts hosted language models to a single interface.
// Adapters translate vendor errors into the assistant domain errors.
package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/quantumcode/quantumcode-backend/config"
	"github.com/quantumcode/quantumcode-backend/internal/assistant/domain"
)

// Request is one completion call: prior turns in chronological order
// followed by the new prompt.
type Request struct {
	System  string
	History []domain.Turn
	Prompt  string
}

// Provider defines the interface for LLM providers.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultOpenAIModel = "gpt-4o-mini"
)

// New builds the configured provider. A missing API key is not an error here;
// the adapter answers domain.ErrNotConfigured on every call instead.
func New(ctx context.Context, cfg config.AssistantConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model)
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Provider)
	}
}

// classifyStatus maps an upstream HTTP status to a domain error.
func classifyStatus(name string, status int, err error) error {
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: %v", domain.ErrBusy, name, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s: %v", domain.ErrNotConfigured, name, err)
	default:
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstream, name, err)
	}
}
