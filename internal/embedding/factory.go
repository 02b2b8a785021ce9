// Package embedding constructs the configured embedding provider.
package embedding

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/domain"
	openaitransport "github.com/askdb/askdb/internal/transport/openai"
)

// NewEmbedder builds the embedding provider selected by config.
// Unknown backends return domain.ErrUnsupportedBackend.
func NewEmbedder(cfg *config.EmbeddingConfig, logger *zap.Logger) (domain.Embedder, error) {
	switch cfg.Backend {
	case "openai":
		return openaitransport.NewEmbedder(&openaitransport.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Backend:    cfg.Backend,
			Logger:     logger,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedBackend, cfg.Backend)
	}
}
