package embedding

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/domain"
)

func TestNewEmbedder_OpenAI(t *testing.T) {
	emb, err := NewEmbedder(&config.EmbeddingConfig{
		Backend: "openai",
		APIKey:  "test-key",
		Model:   "text-embedding-3-small",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb == nil {
		t.Fatal("expected non-nil embedder")
	}
}

func TestNewEmbedder_UnsupportedBackend(t *testing.T) {
	_, err := NewEmbedder(&config.EmbeddingConfig{
		Backend: "sentence-transformers",
		Model:   "all-MiniLM-L6-v2",
	}, zap.NewNop())
	if !errors.Is(err, domain.ErrUnsupportedBackend) {
		t.Fatalf("expected ErrUnsupportedBackend, got %v", err)
	}
}
