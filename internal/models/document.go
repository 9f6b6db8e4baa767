package models

// Chunk is a contiguous slice of an uploaded text.
type Chunk struct {
	Index int
	Text  string
}

// IndexEntry pairs a chunk with the embedding produced for it.
type IndexEntry struct {
	Chunk      Chunk
	Embedding  []float32
	Generation uint64
}

// ScoredChunk is a chunk ranked against a query. It is never stored.
type ScoredChunk struct {
	Chunk      Chunk
	Score      float32
	Generation uint64
}

// IngestResult summarises a single upload.
type IngestResult struct {
	Generation uint64
	Chunks     int
	Embedded   int
	Failed     int
}

// Page is a fetched web document reduced to its readable text.
type Page struct {
	URL     string
	Title   string
	Content string
	Depth   int
}
