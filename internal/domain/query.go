package domain

// Row is a single result row keyed by column name.
type Row = map[string]any

// GeneratedQuery is the transient output of the SQL synthesizer.
type GeneratedQuery struct {
	SQL      string
	Question string
}

// ResultSet holds the outcome of a warehouse execution. Columns preserves the
// select-list order; Rows are dynamically typed cell values keyed by column name.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// Answer is the end-to-end pipeline result returned to every front end.
type Answer struct {
	SQL  string `json:"sql"`
	Rows []Row  `json:"rows"`
}

// CacheEntry is the cached form of an answered question. Only written after
// the SQL has passed validation and executed successfully.
type CacheEntry struct {
	SQL  string `json:"sql"`
	Rows []Row  `json:"rows"`
}
