package domain

import "time"

// Document is an ingested source document (a tariff book or fee schedule).
type Document struct {
	ID      string
	Path    string
	Title   string
	ModTime time.Time
}

// Chunk is a retrievable unit of document text.
type Chunk struct {
	ID      string
	DocID   string
	Section string
	Text    string
}

// ScoredChunk pairs a chunk with its retrieval similarity in [0,1].
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// TableRef is a normalized table identifier extracted from text,
// e.g. "Table 3" or "Schedule B". Equality is plain string identity;
// normalization happens at extraction time.
type TableRef string

// TableContent is the complete content of a referenced table, looked up
// from the corpus independent of chunk boundaries.
type TableContent struct {
	Ref      TableRef
	FullText string
}

// TableRecord is a table stored as a distinct corpus record at ingestion.
type TableRecord struct {
	Ref      TableRef
	DocID    string
	Title    string
	FullText string
}

// CorpusStats summarizes the ingested corpus.
type CorpusStats struct {
	TotalDocs   int
	TotalChunks int
	TotalTables int
}

// QueryState is the single state object threaded through the four pipeline
// stages. Each field is written exactly once, by exactly one stage, in
// pipeline order; stages take the prior state by value and return the
// updated value. One QueryState lives for one pipeline run.
type QueryState struct {
	RawQuestion     string
	NormalizedQuery string
	DomainTerms     []string
	RetrievedChunks []ScoredChunk
	TableRefs       []TableRef
	TableContents   map[TableRef]TableContent
	FinalAnswer     string
}
