package schemaindex

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/askdb/askdb/internal/db"
	"github.com/askdb/askdb/internal/db/redis"
	"github.com/askdb/askdb/internal/domain"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{0.5, 0.5}, nil
}

func (stubEmbedder) BatchEmbed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

// fakeStore records index operations and serves canned search results.
type fakeStore struct {
	indexExists  bool
	existsErr    error
	dropCalls    int
	createCalls  int
	createdDef   *db.IndexDefinition
	hsetItems    []db.HashSetItem
	scannedKeys  []string
	deletedKeys  []string
	searchResult *db.SearchResult
	searchErr    error
}

func (f *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	f.createCalls++
	f.createdDef = def
	return nil
}

func (f *fakeStore) DropIndex(context.Context, string) error {
	f.dropCalls++
	if !f.indexExists {
		return db.ErrIndexNotFound
	}
	return nil
}

func (f *fakeStore) IndexExists(context.Context, string) (bool, error) {
	return f.indexExists, f.existsErr
}

func (f *fakeStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	f.hsetItems = items
	return nil
}

func (f *fakeStore) SearchKNN(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResult, nil
}

func (f *fakeStore) Scan(context.Context, string) ([]string, error) {
	return f.scannedKeys, nil
}

func (f *fakeStore) Del(_ context.Context, key string) error {
	f.deletedKeys = append(f.deletedKeys, key)
	return nil
}

func testConfig() Config {
	return Config{
		IndexName:       "schema_docs",
		KeyPrefix:       "askdb:schema:",
		HNSWM:           16,
		HNSWEFConstruct: 200,
	}
}

func TestIndex_Rebuild(t *testing.T) {
	store := &fakeStore{indexExists: true, scannedKeys: []string{"askdb:schema:0", "askdb:schema:1"}}
	idx := New(stubEmbedder{}, store, testConfig(), zap.NewNop())

	docs := []domain.SchemaDocument{
		{Text: "Table: orders", Table: "orders"},
		{Text: "Table: users", Table: "users"},
	}
	if err := idx.Rebuild(context.Background(), docs); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	if store.dropCalls != 1 {
		t.Errorf("expected previous index dropped once, got %d", store.dropCalls)
	}
	if len(store.deletedKeys) != 2 {
		t.Errorf("expected 2 old keys deleted, got %d", len(store.deletedKeys))
	}
	if store.createCalls != 1 {
		t.Fatalf("expected index created once, got %d", store.createCalls)
	}

	var vecField *db.IndexField
	for n := range store.createdDef.Fields {
		if store.createdDef.Fields[n].Type == db.IndexFieldVector {
			vecField = &store.createdDef.Fields[n]
		}
	}
	if vecField == nil {
		t.Fatal("expected a vector field in the index definition")
	}
	if vecField.VectorDim != 2 {
		t.Errorf("expected DIM 2 from embedded vectors, got %d", vecField.VectorDim)
	}
	if vecField.VectorDistance != db.DistanceCosine {
		t.Errorf("expected cosine distance, got %s", vecField.VectorDistance)
	}

	if len(store.hsetItems) != 2 {
		t.Fatalf("expected 2 stored documents, got %d", len(store.hsetItems))
	}
	if store.hsetItems[0].Key != "askdb:schema:0" {
		t.Errorf("unexpected document key: %s", store.hsetItems[0].Key)
	}
	if store.hsetItems[1].Fields[fieldTable] != "users" {
		t.Errorf("unexpected table field: %s", store.hsetItems[1].Fields[fieldTable])
	}
}

func TestIndex_Rebuild_NoDocuments(t *testing.T) {
	idx := New(stubEmbedder{}, &fakeStore{}, testConfig(), zap.NewNop())

	if err := idx.Rebuild(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty document set")
	}
}

func TestIndex_Load(t *testing.T) {
	store := &fakeStore{indexExists: true}
	idx := New(stubEmbedder{}, store, testConfig(), zap.NewNop())

	if err := idx.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
}

func TestIndex_Load_MissingIndex(t *testing.T) {
	idx := New(stubEmbedder{}, &fakeStore{indexExists: false}, testConfig(), zap.NewNop())

	err := idx.Load(context.Background())
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestIndex_SearchBeforeLoad(t *testing.T) {
	idx := New(stubEmbedder{}, &fakeStore{}, testConfig(), zap.NewNop())

	_, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	if !errors.Is(err, domain.ErrIndexNotReady) {
		t.Fatalf("expected ErrIndexNotReady, got %v", err)
	}
}

func TestIndex_Search_OrdersByScoreThenSeq(t *testing.T) {
	store := &fakeStore{
		indexExists: true,
		searchResult: &db.SearchResult{
			Total: 3,
			Entries: []db.SearchEntry{
				{Key: "askdb:schema:2", Score: 0.8, Fields: map[string]string{
					fieldText: "Table: events", fieldTable: "events", fieldSeq: "2",
				}},
				{Key: "askdb:schema:1", Score: 0.8, Fields: map[string]string{
					fieldText: "Table: users", fieldTable: "users", fieldSeq: "1",
				}},
				{Key: "askdb:schema:0", Score: 0.9, Fields: map[string]string{
					fieldText: "Table: orders", fieldTable: "orders", fieldSeq: "0",
				}},
			},
		},
	}
	idx := New(stubEmbedder{}, store, testConfig(), zap.NewNop())
	if err := idx.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	docs, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	got := []string{docs[0].Table, docs[1].Table, docs[2].Table}
	want := []string{"orders", "users", "events"}
	for n := range want {
		if got[n] != want[n] {
			t.Errorf("result[%d] = %s, want %s", n, got[n], want[n])
		}
	}
}

func TestIndex_NoNativeTextSearch(t *testing.T) {
	idx := New(stubEmbedder{}, &fakeStore{}, testConfig(), zap.NewNop())

	if idx.NativeTextSearch() {
		t.Error("schema index must not report native text search")
	}
	if _, err := idx.SearchByText(context.Background(), "anything", 3); !errors.Is(err, domain.ErrIndexNotReady) {
		t.Errorf("expected ErrIndexNotReady before load, got %v", err)
	}
}

func TestIndex_SearchByTextDelegatesToVectorSearch(t *testing.T) {
	store := &fakeStore{
		indexExists: true,
		searchResult: &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{
				{Key: "askdb:schema:0", Score: 0.9, Fields: map[string]string{
					fieldText: "Table: orders", fieldTable: "orders", fieldSeq: "0",
				}},
			},
		},
	}
	idx := New(stubEmbedder{}, store, testConfig(), zap.NewNop())
	if err := idx.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	docs, err := idx.SearchByText(context.Background(), "orders with totals", 1)
	if err != nil {
		t.Fatalf("SearchByText failed: %v", err)
	}
	if len(docs) != 1 || docs[0].Table != "orders" {
		t.Fatalf("expected orders, got %+v", docs)
	}
}

// Drives Search through the real rueidis store against a mocked server
// that honors the RETURN clause: only requested fields come back. The
// score must survive the round-trip or ranking degrades to seq order.
func TestIndex_Search_RanksBySimilarityThroughStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "schema_docs")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("schema_docs"))))

	// Best match (lowest distance) first, as FT.SEARCH sorts it — but its
	// seq is higher than the worse match's, so a lost score flips the order.
	docs := []map[string]string{
		{fieldText: "Table: orders", fieldTable: "orders", fieldSeq: "1", "__vector_score": "0.1"},
		{fieldText: "Table: users", fieldTable: "users", fieldSeq: "0", "__vector_score": "0.4"},
	}
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		DoAndReturn(func(_ context.Context, cmd rueidis.Completed) rueidis.RedisResult {
			requested := returnClauseFields(cmd.Commands())
			return mock.Result(mock.RedisArray(
				mock.RedisInt64(2),
				mock.RedisString("askdb:schema:1"), fieldReply(docs[0], requested),
				mock.RedisString("askdb:schema:0"), fieldReply(docs[1], requested),
			))
		})

	idx := New(stubEmbedder{}, redis.NewStoreForTest(c), testConfig(), zap.NewNop())
	if err := idx.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got, err := idx.Search(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(got))
	}
	if got[0].Table != "orders" || got[1].Table != "users" {
		t.Errorf("expected similarity order [orders users], got [%s %s]", got[0].Table, got[1].Table)
	}
}

// returnClauseFields extracts the field names of a RETURN clause.
func returnClauseFields(args []string) []string {
	for i, a := range args {
		if a == "RETURN" && i+1 < len(args) {
			n, _ := strconv.Atoi(args[i+1])
			return args[i+2 : i+2+n]
		}
	}
	return nil
}

// fieldReply builds the per-hit field array a server limited by RETURN emits.
func fieldReply(fields map[string]string, requested []string) rueidis.RedisMessage {
	var msgs []rueidis.RedisMessage
	for _, name := range requested {
		if v, ok := fields[name]; ok {
			msgs = append(msgs, mock.RedisString(name), mock.RedisString(v))
		}
	}
	return mock.RedisArray(msgs...)
}
