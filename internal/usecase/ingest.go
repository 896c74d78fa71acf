package usecase

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"tariffrag/internal/adapter/chunker"
	"tariffrag/internal/adapter/fs"
	"tariffrag/internal/adapter/store"
	"tariffrag/internal/domain"
	"tariffrag/internal/port"
)

// IngestUseCase builds the searchable corpus: walk the docs directory,
// split documents into section chunks, pull out captioned tables, embed
// chunk texts and persist everything.
type IngestUseCase struct {
	corpus   *store.CorpusStore
	vectors  port.VectorStore
	embedder port.Embedder
	walker   *fs.Walker
	chunker  *chunker.HeaderChunker
	logger   *zap.Logger
}

func NewIngestUseCase(
	corpus *store.CorpusStore,
	vectors port.VectorStore,
	embedder port.Embedder,
	walker *fs.Walker,
	chunker *chunker.HeaderChunker,
	logger *zap.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		corpus:   corpus,
		vectors:  vectors,
		embedder: embedder,
		walker:   walker,
		chunker:  chunker,
		logger:   logger,
	}
}

// IngestResult summarizes an ingestion run.
type IngestResult struct {
	DocsIngested    int
	ChunksCreated   int
	TablesExtracted int
	Errors          []string
}

// Ingest processes every matching file under root. The progress callback
// (may be nil) is invoked after each embedded batch.
func (u *IngestUseCase) Ingest(root string, batchSize int, progress func(done, total int)) (*IngestResult, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk docs directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no ingestible documents found under %s", root)
	}

	result := &IngestResult{}
	var pending []domain.Chunk

	for _, file := range files {
		content, err := fs.ReadFile(file.Path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Path, err))
			continue
		}

		doc := domain.Document{
			ID:      uuid.NewString(),
			Path:    file.Path,
			Title:   filepath.Base(file.Path),
			ModTime: file.ModTime,
		}

		chunks, tables := u.chunker.Chunk(doc, content)
		if len(chunks) == 0 {
			u.logger.Debug("document produced no chunks", zap.String("path", file.Path))
			continue
		}

		if err := u.corpus.PutDoc(doc); err != nil {
			return nil, fmt.Errorf("failed to store document %s: %w", file.Path, err)
		}

		for i := range chunks {
			chunks[i].ID = uuid.NewString()
			if err := u.corpus.PutChunk(chunks[i]); err != nil {
				return nil, fmt.Errorf("failed to store chunk: %w", err)
			}
		}
		pending = append(pending, chunks...)

		for _, rec := range tables {
			if err := u.corpus.PutTable(rec); err != nil {
				return nil, fmt.Errorf("failed to store table %s: %w", rec.Ref, err)
			}
		}

		result.DocsIngested++
		result.ChunksCreated += len(chunks)
		result.TablesExtracted += len(tables)
		u.logger.Info("document ingested",
			zap.String("path", file.Path),
			zap.Int("chunks", len(chunks)),
			zap.Int("tables", len(tables)))
	}

	if err := u.embedChunks(pending, batchSize, progress); err != nil {
		return nil, err
	}

	stats := domain.CorpusStats{
		TotalDocs:   result.DocsIngested,
		TotalChunks: result.ChunksCreated,
		TotalTables: result.TablesExtracted,
	}
	if err := u.corpus.UpdateStats(stats); err != nil {
		return nil, fmt.Errorf("failed to update corpus stats: %w", err)
	}

	return result, nil
}

func (u *IngestUseCase) embedChunks(chunks []domain.Chunk, batchSize int, progress func(done, total int)) error {
	total := len(chunks)
	for i := 0; i < total; i += batchSize {
		end := i + batchSize
		if end > total {
			end = total
		}
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Text
		}

		embeddings, err := u.embedder.Embed(texts)
		if err != nil {
			return fmt.Errorf("failed to embed chunk batch: %w", err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(embeddings), len(batch))
		}

		items := make([]port.VectorItem, len(batch))
		for j, c := range batch {
			items[j] = port.VectorItem{
				ID:     c.ID,
				Vector: embeddings[j],
				Metadata: map[string]string{
					"doc_id":  c.DocID,
					"section": c.Section,
				},
			}
		}
		if err := u.vectors.Upsert(items); err != nil {
			return fmt.Errorf("failed to store vectors: %w", err)
		}

		if progress != nil {
			progress(end, total)
		}
	}
	return nil
}

// Clean wipes the corpus so ingestion starts from scratch.
func (u *IngestUseCase) Clean() error {
	return u.corpus.Clear()
}
