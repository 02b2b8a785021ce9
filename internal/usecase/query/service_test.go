package query

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/askdb/askdb/internal/domain"
	"github.com/askdb/askdb/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

type mockCache struct {
	getCalls int
	setCalls int
	entry    domain.CacheEntry
	hit      bool
	setKey   string
	setEntry domain.CacheEntry
}

func (m *mockCache) Get(context.Context, string) (domain.CacheEntry, bool) {
	m.getCalls++
	return m.entry, m.hit
}

func (m *mockCache) Set(_ context.Context, question string, entry domain.CacheEntry) {
	m.setCalls++
	m.setKey = question
	m.setEntry = entry
}

type mockRetriever struct {
	calls int
	docs  []domain.SchemaDocument
	err   error
}

func (m *mockRetriever) Retrieve(context.Context, string, int) ([]domain.SchemaDocument, error) {
	m.calls++
	return m.docs, m.err
}

type mockSynthesizer struct {
	calls int
	sql   string
	err   error
}

func (m *mockSynthesizer) Synthesize(_ context.Context, question string, _ []domain.SchemaDocument) (domain.GeneratedQuery, error) {
	m.calls++
	if m.err != nil {
		return domain.GeneratedQuery{}, m.err
	}
	return domain.GeneratedQuery{SQL: m.sql, Question: question}, nil
}

type mockExecutor struct {
	calls  int
	result domain.ResultSet
	err    error
}

func (m *mockExecutor) Execute(context.Context, string) (domain.ResultSet, error) {
	m.calls++
	return m.result, m.err
}

func pipelineDocs() []domain.SchemaDocument {
	return []domain.SchemaDocument{{Text: "Table: users", Table: "users"}}
}

func TestAnswer_FullPipeline(t *testing.T) {
	cache := &mockCache{}
	ret := &mockRetriever{docs: pipelineDocs()}
	syn := &mockSynthesizer{sql: "SELECT name FROM users LIMIT 10"}
	exec := &mockExecutor{result: domain.ResultSet{
		Columns: []string{"name"},
		Rows:    []domain.Row{{"name": "alice"}},
	}}
	svc := New(cache, ret, syn, exec)

	answer, err := svc.Answer(context.Background(), "list user names")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if answer.SQL != "SELECT name FROM users LIMIT 10" {
		t.Errorf("unexpected SQL: %q", answer.SQL)
	}
	if len(answer.Rows) != 1 || answer.Rows[0]["name"] != "alice" {
		t.Errorf("unexpected rows: %+v", answer.Rows)
	}

	if ret.calls != 1 || syn.calls != 1 || exec.calls != 1 {
		t.Errorf("expected one call each, got retrieve=%d synth=%d exec=%d", ret.calls, syn.calls, exec.calls)
	}
	if cache.setCalls != 1 {
		t.Fatalf("expected one cache write, got %d", cache.setCalls)
	}
	if cache.setKey != "list user names" {
		t.Errorf("cache keyed on %q, want raw question", cache.setKey)
	}
	if cache.setEntry.SQL != answer.SQL {
		t.Errorf("cached SQL %q does not match answer", cache.setEntry.SQL)
	}
}

func TestAnswer_CacheHitShortCircuits(t *testing.T) {
	cache := &mockCache{
		hit: true,
		entry: domain.CacheEntry{
			SQL:  "SELECT 1 LIMIT 1",
			Rows: []domain.Row{{"n": float64(1)}},
		},
	}
	ret := &mockRetriever{}
	syn := &mockSynthesizer{}
	exec := &mockExecutor{}
	svc := New(cache, ret, syn, exec)

	answer, err := svc.Answer(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer.SQL != "SELECT 1 LIMIT 1" {
		t.Errorf("unexpected SQL: %q", answer.SQL)
	}
	if ret.calls != 0 || syn.calls != 0 || exec.calls != 0 {
		t.Errorf("cache hit must skip the pipeline, got retrieve=%d synth=%d exec=%d", ret.calls, syn.calls, exec.calls)
	}
	if cache.setCalls != 0 {
		t.Errorf("cache hit must not rewrite the entry, got %d writes", cache.setCalls)
	}
}

func TestAnswer_NoSchemaContext(t *testing.T) {
	svc := New(&mockCache{}, &mockRetriever{docs: nil}, &mockSynthesizer{}, &mockExecutor{})

	_, err := svc.Answer(context.Background(), "q")
	if !errors.Is(err, domain.ErrNoSchemaContext) {
		t.Fatalf("expected ErrNoSchemaContext, got %v", err)
	}
}

func TestAnswer_RetrievalError(t *testing.T) {
	ret := &mockRetriever{err: domain.ErrRetrievalUnavailable}
	syn := &mockSynthesizer{}
	svc := New(&mockCache{}, ret, syn, &mockExecutor{})

	_, err := svc.Answer(context.Background(), "q")
	if !errors.Is(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
	if syn.calls != 0 {
		t.Errorf("synthesis must not run after retrieval failure, got %d calls", syn.calls)
	}
}

func TestAnswer_UnsafeSQLRejected(t *testing.T) {
	cache := &mockCache{}
	syn := &mockSynthesizer{sql: "DELETE FROM users"}
	exec := &mockExecutor{}
	svc := New(cache, &mockRetriever{docs: pipelineDocs()}, syn, exec)

	_, err := svc.Answer(context.Background(), "wipe users")
	if !errors.Is(err, domain.ErrUnsafeQuery) {
		t.Fatalf("expected ErrUnsafeQuery, got %v", err)
	}

	var unsafeErr *domain.UnsafeQueryError
	if !errors.As(err, &unsafeErr) {
		t.Fatalf("expected UnsafeQueryError, got %T", err)
	}
	if unsafeErr.Reason != "must start with SELECT" {
		t.Errorf("unexpected reason: %q", unsafeErr.Reason)
	}

	if exec.calls != 0 {
		t.Errorf("rejected SQL must never execute, got %d calls", exec.calls)
	}
	if cache.setCalls != 0 {
		t.Errorf("rejected SQL must never be cached, got %d writes", cache.setCalls)
	}
}

func TestAnswer_MissingLimitRejected(t *testing.T) {
	syn := &mockSynthesizer{sql: "SELECT * FROM users"}
	exec := &mockExecutor{}
	svc := New(&mockCache{}, &mockRetriever{docs: pipelineDocs()}, syn, exec)

	_, err := svc.Answer(context.Background(), "all users")
	if !errors.Is(err, domain.ErrUnsafeQuery) {
		t.Fatalf("expected ErrUnsafeQuery, got %v", err)
	}
	if exec.calls != 0 {
		t.Errorf("rejected SQL must never execute, got %d calls", exec.calls)
	}
}

func TestAnswer_ExecutionError(t *testing.T) {
	cache := &mockCache{}
	exec := &mockExecutor{err: errors.New("table not found")}
	svc := New(cache, &mockRetriever{docs: pipelineDocs()},
		&mockSynthesizer{sql: "SELECT * FROM nope LIMIT 5"}, exec)

	_, err := svc.Answer(context.Background(), "q")
	if !errors.Is(err, domain.ErrExecutionFailed) {
		t.Fatalf("expected ErrExecutionFailed, got %v", err)
	}
	if cache.setCalls != 0 {
		t.Errorf("failed execution must not be cached, got %d writes", cache.setCalls)
	}
}

func TestAnswer_GenerationError(t *testing.T) {
	exec := &mockExecutor{}
	svc := New(&mockCache{}, &mockRetriever{docs: pipelineDocs()},
		&mockSynthesizer{err: domain.ErrGenerationFailed}, exec)

	_, err := svc.Answer(context.Background(), "q")
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if exec.calls != 0 {
		t.Errorf("execution must not run after generation failure, got %d calls", exec.calls)
	}
}
