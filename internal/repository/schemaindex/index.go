// Package schemaindex stores schema documents in Redis hashes behind an
// FT vector index (HNSW) and serves retrieval via FT.SEARCH KNN.
package schemaindex

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/askdb/askdb/internal/db"
	"github.com/askdb/askdb/internal/db/redis"
	"github.com/askdb/askdb/internal/domain"
)

// Hash field names for stored schema documents.
const (
	fieldText   = "__text"
	fieldTable  = "__table"
	fieldColumn = "__column"
	fieldSeq    = "__seq"
	fieldVector = "vector"
)

// Store is the database surface this repository needs.
type Store interface {
	db.IndexManager
	db.HashStore
	db.Searcher
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, key string) error
}

// Config holds the FT index parameters.
type Config struct {
	IndexName       string
	KeyPrefix       string
	HNSWM           int
	HNSWEFConstruct int
}

// Index is the Redis-backed schema document index.
type Index struct {
	embedder domain.Embedder
	store    Store
	cfg      Config
	logger   *zap.Logger
	ready    atomic.Bool
}

// New creates a Redis-backed schema index.
func New(embedder domain.Embedder, store Store, cfg Config, logger *zap.Logger) *Index {
	return &Index{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

// Rebuild drops the previous index and keys, embeds all documents and
// writes them back under a fresh FT index.
func (i *Index) Rebuild(ctx context.Context, docs []domain.SchemaDocument) error {
	if len(docs) == 0 {
		return errors.New("no schema documents to index")
	}

	texts := make([]string, len(docs))
	for n, doc := range docs {
		texts[n] = doc.Text
	}
	vectors, err := i.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}

	if err := i.store.DropIndex(ctx, i.cfg.IndexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop previous index: %w", err)
	}
	if err := i.deleteKeys(ctx); err != nil {
		return err
	}

	def := &db.IndexDefinition{
		Name:     i.cfg.IndexName,
		Prefixes: []string{i.cfg.KeyPrefix},
		Fields: []db.IndexField{
			{Name: fieldTable, Type: db.IndexFieldTag},
			{Name: fieldColumn, Type: db.IndexFieldTag},
			{Name: fieldSeq, Type: db.IndexFieldNumeric},
			{
				Name:              fieldVector,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         len(vectors[0]),
				VectorDistance:    db.DistanceCosine,
				VectorM:           i.cfg.HNSWM,
				VectorEFConstruct: i.cfg.HNSWEFConstruct,
			},
		},
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("index definition: %w", err)
	}
	if err := i.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	items := make([]db.HashSetItem, len(docs))
	for n, doc := range docs {
		items[n] = db.HashSetItem{
			Key: i.cfg.KeyPrefix + strconv.Itoa(n),
			Fields: map[string]string{
				fieldText:   doc.Text,
				fieldTable:  doc.Table,
				fieldColumn: doc.Column,
				fieldSeq:    strconv.Itoa(n),
				fieldVector: redis.VectorToBytes(vectors[n]),
			},
		}
	}
	if err := i.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("store documents: %w", err)
	}

	i.ready.Store(true)
	i.logger.Info("schema index rebuilt",
		zap.String("index", i.cfg.IndexName),
		zap.Int("documents", len(docs)),
	)
	return nil
}

// Load verifies that the FT index exists and marks the index ready.
func (i *Index) Load(ctx context.Context) error {
	exists, err := i.store.IndexExists(ctx, i.cfg.IndexName)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, i.cfg.IndexName)
	}
	i.ready.Store(true)
	return nil
}

// Search runs a KNN query and returns documents ordered by similarity,
// with insertion order breaking score ties.
func (i *Index) Search(ctx context.Context, vector []float32, k int) ([]domain.SchemaDocument, error) {
	if !i.ready.Load() {
		return nil, domain.ErrIndexNotReady
	}
	if k <= 0 {
		return nil, nil
	}

	result, err := i.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    i.cfg.IndexName,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldText, fieldTable, fieldColumn, fieldSeq},
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	type scored struct {
		doc   domain.SchemaDocument
		score float64
		seq   int
	}
	hits := make([]scored, 0, len(result.Entries))
	for _, e := range result.Entries {
		seq, _ := strconv.Atoi(e.Fields[fieldSeq])
		hits = append(hits, scored{
			doc: domain.SchemaDocument{
				Text:   e.Fields[fieldText],
				Table:  e.Fields[fieldTable],
				Column: e.Fields[fieldColumn],
			},
			score: e.Score,
			seq:   seq,
		})
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].score != hits[b].score {
			return hits[a].score > hits[b].score
		}
		return hits[a].seq < hits[b].seq
	})

	docs := make([]domain.SchemaDocument, len(hits))
	for n, h := range hits {
		docs[n] = h.doc
	}
	return docs, nil
}

// SearchByText embeds the text and delegates to Search. The FT index
// carries no TEXT field, so there is no native path to prefer.
func (i *Index) SearchByText(ctx context.Context, text string, k int) ([]domain.SchemaDocument, error) {
	vector, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query text: %w", err)
	}
	return i.Search(ctx, vector, k)
}

// NativeTextSearch reports whether SearchByText avoids the embedding round-trip.
func (i *Index) NativeTextSearch() bool { return false }

func (i *Index) deleteKeys(ctx context.Context) error {
	keys, err := i.store.Scan(ctx, i.cfg.KeyPrefix+"*")
	if err != nil {
		return fmt.Errorf("scan document keys: %w", err)
	}
	for _, key := range keys {
		if err := i.store.Del(ctx, key); err != nil {
			return fmt.Errorf("delete document key %s: %w", key, err)
		}
	}
	return nil
}
