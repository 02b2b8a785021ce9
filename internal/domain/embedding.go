package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
// All vectors produced by one Embedder share the same dimension; mixing
// embedders within one index is rejected at rebuild time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
