package synth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/domain"
)

type mockGenerator struct {
	calls  int
	prompt string
	out    string
	err    error
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.prompt = prompt
	return m.out, m.err
}

func contextDocs() []domain.SchemaDocument {
	return []domain.SchemaDocument{
		{Text: "Table: users\nColumns:\n- id (INTEGER)\n- name (VARCHAR)", Table: "users"},
		{Text: "Table: orders\nColumns:\n- id (INTEGER)", Table: "orders"},
	}
}

func TestSynthesize(t *testing.T) {
	gen := &mockGenerator{out: "SELECT name FROM users LIMIT 10"}
	svc := New(gen)

	q, err := svc.Synthesize(context.Background(), "list user names", contextDocs())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if q.SQL != "SELECT name FROM users LIMIT 10" {
		t.Errorf("unexpected SQL: %q", q.SQL)
	}
	if q.Question != "list user names" {
		t.Errorf("unexpected question: %q", q.Question)
	}

	if !strings.Contains(gen.prompt, "Table: users") {
		t.Error("prompt must contain the schema context")
	}
	if !strings.Contains(gen.prompt, "Question: list user names") {
		t.Error("prompt must contain the question")
	}
}

func TestSynthesize_EmptyContext(t *testing.T) {
	gen := &mockGenerator{}
	svc := New(gen)

	_, err := svc.Synthesize(context.Background(), "q", nil)
	if !errors.Is(err, domain.ErrEmptyContext) {
		t.Fatalf("expected ErrEmptyContext, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("generator must not be called without context, got %d calls", gen.calls)
	}
}

func TestSynthesize_GeneratorError(t *testing.T) {
	gen := &mockGenerator{err: domain.ErrProviderUnavailable}
	svc := New(gen)

	_, err := svc.Synthesize(context.Background(), "q", contextDocs())
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected underlying provider error preserved, got %v", err)
	}
}

func TestSynthesize_EmptyCompletion(t *testing.T) {
	svc := New(&mockGenerator{out: "  \n"})

	_, err := svc.Synthesize(context.Background(), "q", contextDocs())
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestSynthesize_DoesNotFilterUnsafeSQL(t *testing.T) {
	// Safety validation happens downstream; the raw statement passes through.
	svc := New(&mockGenerator{out: "DELETE FROM users"})

	q, err := svc.Synthesize(context.Background(), "drop everything", contextDocs())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if q.SQL != "DELETE FROM users" {
		t.Errorf("unexpected SQL: %q", q.SQL)
	}
}

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "SELECT 1 LIMIT 1", "SELECT 1 LIMIT 1"},
		{"fenced sql", "```sql\nSELECT 1 LIMIT 1;\n```", "SELECT 1 LIMIT 1"},
		{"fenced bare", "```\nSELECT 1 LIMIT 1\n```", "SELECT 1 LIMIT 1"},
		{"trailing semicolons", "SELECT 1 LIMIT 1;; ", "SELECT 1 LIMIT 1"},
		{"piggybacked statement dropped", "SELECT 1 LIMIT 1; DROP TABLE users", "SELECT 1 LIMIT 1"},
		{"fenced multi statement", "```sql\nSELECT 1 LIMIT 1;\nDELETE FROM users;\n```", "SELECT 1 LIMIT 1"},
		{"whitespace only", "  \n\t", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractSQL(tc.in); got != tc.want {
				t.Errorf("extractSQL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
