// Package synth turns a question plus retrieved schema context into a
// single SQL statement.
package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/domain"
)

// Service drafts SQL from a question and schema context.
type Service struct {
	gen Generator
}

// New creates a synthesis service.
func New(gen Generator) *Service {
	return &Service{gen: gen}
}

// Synthesize builds the prompt, calls the generator and extracts the SQL
// statement from the completion. The caller is responsible for safety
// validation of the returned SQL.
func (s *Service) Synthesize(ctx context.Context, question string, docs []domain.SchemaDocument) (domain.GeneratedQuery, error) {
	if len(docs) == 0 {
		return domain.GeneratedQuery{}, domain.ErrEmptyContext
	}

	raw, err := s.gen.Generate(ctx, buildPrompt(question, docs))
	if err != nil {
		return domain.GeneratedQuery{}, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}

	sql := extractSQL(raw)
	if sql == "" {
		return domain.GeneratedQuery{}, fmt.Errorf("%w: model returned empty SQL", domain.ErrGenerationFailed)
	}

	return domain.GeneratedQuery{SQL: sql, Question: question}, nil
}

func buildPrompt(question string, docs []domain.SchemaDocument) string {
	var sb strings.Builder
	sb.WriteString("Schema:\n")
	for _, doc := range docs {
		sb.WriteString(doc.Text)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "Question: %s\n", question)
	sb.WriteString("Respond with a single SQL statement including a LIMIT clause.")
	return sb.String()
}

// extractSQL strips a markdown code fence if present and keeps only the
// first statement, cutting at the first semicolon. Anything the model
// appends after it is discarded.
func extractSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
	}
	if n := strings.Index(trimmed, ";"); n >= 0 {
		trimmed = trimmed[:n]
	}
	return strings.TrimSpace(trimmed)
}
