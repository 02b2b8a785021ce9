// Package localindex is a file-backed flat vector index. It keeps all
// vectors in memory and scans them on every search, which is fine for
// schema catalogs (hundreds of documents, not millions).
package localindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/askdb/askdb/internal/domain"
)

// Index is a flat cosine-similarity index persisted as a JSON snapshot.
type Index struct {
	embedder domain.Embedder
	path     string
	logger   *zap.Logger

	mu      sync.RWMutex
	entries []entry
	loaded  bool
}

type entry struct {
	Doc    domain.SchemaDocument `json:"doc"`
	Vector []float32             `json:"vector"`
}

type snapshot struct {
	Entries []entry `json:"entries"`
}

// New creates a local index persisted at path.
func New(embedder domain.Embedder, path string, logger *zap.Logger) *Index {
	return &Index{
		embedder: embedder,
		path:     path,
		logger:   logger,
	}
}

// Rebuild embeds all documents, replaces the in-memory index and
// persists the new snapshot atomically.
func (i *Index) Rebuild(ctx context.Context, docs []domain.SchemaDocument) error {
	texts := make([]string, len(docs))
	for n, doc := range docs {
		texts[n] = doc.Text
	}

	vectors, err := i.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}

	entries := make([]entry, len(docs))
	for n := range docs {
		entries[n] = entry{Doc: docs[n], Vector: vectors[n]}
	}

	if err := i.persist(snapshot{Entries: entries}); err != nil {
		return err
	}

	i.mu.Lock()
	i.entries = entries
	i.loaded = true
	i.mu.Unlock()

	i.logger.Info("local index rebuilt",
		zap.Int("documents", len(entries)),
		zap.String("path", i.path),
	)
	return nil
}

// Load reads the persisted snapshot into memory.
func (i *Index) Load(_ context.Context) error {
	data, err := os.ReadFile(i.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, i.path)
		}
		return fmt.Errorf("read index snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse index snapshot: %w", err)
	}

	i.mu.Lock()
	i.entries = snap.Entries
	i.loaded = true
	i.mu.Unlock()

	i.logger.Info("local index loaded",
		zap.Int("documents", len(snap.Entries)),
		zap.String("path", i.path),
	)
	return nil
}

// Search returns the k most similar documents by cosine similarity.
// Ties are broken by insertion order.
func (i *Index) Search(_ context.Context, vector []float32, k int) ([]domain.SchemaDocument, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if !i.loaded {
		return nil, domain.ErrIndexNotReady
	}
	if k <= 0 || len(i.entries) == 0 {
		return nil, nil
	}

	type scored struct {
		doc   domain.SchemaDocument
		score float64
	}
	results := make([]scored, len(i.entries))
	for n, e := range i.entries {
		results[n] = scored{doc: e.Doc, score: cosineSimilarity(vector, e.Vector)}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].score > results[b].score
	})

	if k > len(results) {
		k = len(results)
	}
	docs := make([]domain.SchemaDocument, k)
	for n := 0; n < k; n++ {
		docs[n] = results[n].doc
	}
	return docs, nil
}

// SearchByText embeds the text and delegates to Search; the flat index
// has no native text path.
func (i *Index) SearchByText(ctx context.Context, text string, k int) ([]domain.SchemaDocument, error) {
	vector, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query text: %w", err)
	}
	return i.Search(ctx, vector, k)
}

// NativeTextSearch reports whether SearchByText avoids the embedding round-trip.
func (i *Index) NativeTextSearch() bool { return false }

// persist writes the snapshot through a temp file and renames it into
// place so readers never observe a partial file.
func (i *Index) persist(snap snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode index snapshot: %w", err)
	}

	dir := filepath.Dir(i.path)
	tmp, err := os.CreateTemp(dir, ".index-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, i.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace index snapshot: %w", err)
	}
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for n := range a {
		dot += float64(a[n]) * float64(b[n])
		normA += float64(a[n]) * float64(a[n])
		normB += float64(b[n]) * float64(b[n])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
