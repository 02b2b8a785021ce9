package domain

import "context"

// VectorIndex stores embedded schema documents and answers k-nearest-neighbor
// queries. Rebuild replaces the entire contents; readers never observe a
// partially rebuilt index. Search on an index that was neither loaded nor
// rebuilt fails with ErrIndexNotReady, so callers can tell "no data" from
// "not initialized".
type VectorIndex interface {
	// Rebuild embeds all documents and atomically replaces the index contents,
	// persisting them to the configured location.
	Rebuild(ctx context.Context, docs []SchemaDocument) error

	// Load restores a previously persisted index. Fails with ErrIndexNotFound
	// if nothing has been persisted at the configured location.
	Load(ctx context.Context) error

	// Search returns up to k documents ranked by decreasing similarity to the
	// query vector, ties broken by insertion order. An empty index yields an
	// empty slice, not an error.
	Search(ctx context.Context, vector []float32, k int) ([]SchemaDocument, error)

	// SearchByText is observably equivalent to embedding the text and calling
	// Search with the resulting vector.
	SearchByText(ctx context.Context, text string, k int) ([]SchemaDocument, error)

	// NativeTextSearch reports whether SearchByText runs on an index-native
	// text path instead of the embed-then-Search delegate. Callers that want
	// to embed once and reuse the vector should check this first.
	NativeTextSearch() bool
}
