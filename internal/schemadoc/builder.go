// Package schemadoc renders warehouse table schemas into the text
// documents that get embedded and indexed for retrieval.
package schemadoc

import (
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/domain"
)

// Mode selects the granularity of generated documents.
type Mode string

const (
	// ModeTable emits one document per table listing all of its columns.
	ModeTable Mode = "table"
	// ModeColumn emits one document per column.
	ModeColumn Mode = "column"
)

// Build renders tables into schema documents according to the mode.
// Unknown modes fall back to ModeTable.
func Build(tables []domain.TableSchema, mode Mode) []domain.SchemaDocument {
	if mode == ModeColumn {
		return buildPerColumn(tables)
	}
	return buildPerTable(tables)
}

func buildPerTable(tables []domain.TableSchema) []domain.SchemaDocument {
	docs := make([]domain.SchemaDocument, 0, len(tables))
	for _, table := range tables {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Table: %s\n", table.Name)
		sb.WriteString("Columns:\n")
		for _, col := range table.Columns {
			fmt.Fprintf(&sb, "- %s (%s)\n", col.Name, strings.ToUpper(col.Type))
		}

		docs = append(docs, domain.SchemaDocument{
			Text:  strings.TrimRight(sb.String(), "\n"),
			Table: table.Name,
		})
	}
	return docs
}

func buildPerColumn(tables []domain.TableSchema) []domain.SchemaDocument {
	var docs []domain.SchemaDocument
	for _, table := range tables {
		for _, col := range table.Columns {
			docs = append(docs, domain.SchemaDocument{
				Text:   fmt.Sprintf("%s.%s (%s)", table.Name, col.Name, strings.ToUpper(col.Type)),
				Table:  table.Name,
				Column: col.Name,
			})
		}
	}
	return docs
}
