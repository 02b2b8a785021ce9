package domain

// SchemaDocument is a short text description of one warehouse table or column.
// It is both the embedding unit and the LLM prompt context unit. Immutable once
// built; the whole index is replaced on re-ingestion.
type SchemaDocument struct {
	Text   string `json:"text"`
	Table  string `json:"table"`
	Column string `json:"column,omitempty"` // empty in per-table mode
}

// ColumnSchema describes a single warehouse column.
type ColumnSchema struct {
	Name string
	Type string
}

// TableSchema describes a warehouse table and its columns.
type TableSchema struct {
	Name    string
	Columns []ColumnSchema
}
