package db

// KNNQuery describes a vector similarity search against an FT index.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchEntry is a single hit returned by FT.SEARCH.
type SearchEntry struct {
	Key    string
	Score  float64 // similarity in [0,1], higher is closer
	Fields map[string]string
}

// SearchResult holds FT.SEARCH hits.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}
