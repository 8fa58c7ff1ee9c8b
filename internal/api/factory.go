package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/diogo/geminitutor/internal/config"
	"github.com/diogo/geminitutor/internal/models"
)

// NewGateway builds the gateway selected by cfg.Provider
func NewGateway(ctx context.Context, cfg config.Config, logger *slog.Logger) (Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case models.ProviderArk:
		return NewArkGateway(ctx, ArkConfig{
			APIKey:  cfg.ArkAPIKey,
			Model:   cfg.Ark.Model,
			BaseURL: cfg.Ark.BaseURL,
			Region:  cfg.Ark.Region,
			Timeout: cfg.RequestTimeout(),
		}, logger)
	case models.ProviderGemini, "":
		return NewGeminiGateway(cfg.APIKey,
			WithModel(models.ModelFromName(cfg.Model)),
			WithBaseURL(cfg.BaseURL),
			WithRequestTimeout(cfg.RequestTimeout()),
			WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
