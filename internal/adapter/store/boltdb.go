package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"tariffrag/internal/domain"
)

var (
	bucketDocs      = []byte("docs")
	bucketChunks    = []byte("chunks")
	bucketDocChunks = []byte("doc_chunks")
	bucketTables    = []byte("tables")
	bucketStats     = []byte("stats")
	keyStats        = []byte("corpus_stats")
)

// CorpusStore persists the ingested corpus: documents, section chunks
// and table records. Writes happen only at ingestion time; serving reads
// run in bbolt read transactions and are safe for concurrent queries.
type CorpusStore struct {
	db *bbolt.DB
}

func NewCorpusStore(path string) (*CorpusStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketDocs, bucketChunks, bucketDocChunks, bucketTables, bucketStats}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &CorpusStore{db: db}, nil
}

func (s *CorpusStore) DB() *bbolt.DB {
	return s.db
}

type docMeta struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	ModTime int64  `json:"mod_time"`
}

type chunkMeta struct {
	DocID   string `json:"doc_id"`
	Section string `json:"section"`
	Text    string `json:"text"`
}

type tableMeta struct {
	DocID    string `json:"doc_id"`
	Title    string `json:"title"`
	FullText string `json:"full_text"`
}

func (s *CorpusStore) PutDoc(doc domain.Document) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := docMeta{
			Path:    doc.Path,
			Title:   doc.Title,
			ModTime: doc.ModTime.Unix(),
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocs).Put([]byte(doc.ID), data)
	})
}

func (s *CorpusStore) GetDoc(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document not found: %s", id)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		doc = domain.Document{
			ID:      id,
			Path:    meta.Path,
			Title:   meta.Title,
			ModTime: time.Unix(meta.ModTime, 0),
		}
		return nil
	})
	return doc, err
}

func (s *CorpusStore) ListDocs() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var meta docMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			docs = append(docs, domain.Document{
				ID:      string(k),
				Path:    meta.Path,
				Title:   meta.Title,
				ModTime: time.Unix(meta.ModTime, 0),
			})
			return nil
		})
	})
	return docs, err
}

func (s *CorpusStore) PutChunk(chunk domain.Chunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := chunkMeta{
			DocID:   chunk.DocID,
			Section: chunk.Section,
			Text:    chunk.Text,
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketChunks).Put([]byte(chunk.ID), data); err != nil {
			return err
		}

		// doc_chunks keys are docID/chunkID for prefix scans.
		key := []byte(chunk.DocID + "/" + chunk.ID)
		return tx.Bucket(bucketDocChunks).Put(key, []byte(chunk.ID))
	})
}

func (s *CorpusStore) GetChunk(id string) (domain.Chunk, error) {
	var chunk domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketChunks).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("chunk not found: %s", id)
		}
		var meta chunkMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		chunk = domain.Chunk{
			ID:      id,
			DocID:   meta.DocID,
			Section: meta.Section,
			Text:    meta.Text,
		}
		return nil
	})
	return chunk, err
}

func (s *CorpusStore) GetChunksByDoc(docID string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketDocChunks).Cursor()
		prefix := []byte(docID + "/")
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			data := tx.Bucket(bucketChunks).Get(v)
			if data == nil {
				continue
			}
			var meta chunkMeta
			if err := json.Unmarshal(data, &meta); err != nil {
				return err
			}
			chunks = append(chunks, domain.Chunk{
				ID:      string(v),
				DocID:   meta.DocID,
				Section: meta.Section,
				Text:    meta.Text,
			})
		}
		return nil
	})
	return chunks, err
}

// PutTable stores a table record keyed by its normalized reference.
func (s *CorpusStore) PutTable(rec domain.TableRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := tableMeta{
			DocID:    rec.DocID,
			Title:    rec.Title,
			FullText: rec.FullText,
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketTables).Put([]byte(rec.Ref), data)
	})
}

// GetTable fetches a table record by normalized reference. A missing
// reference yields domain.ErrTableNotFound.
func (s *CorpusStore) GetTable(ref domain.TableRef) (domain.TableRecord, error) {
	var rec domain.TableRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketTables).Get([]byte(ref))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrTableNotFound, ref)
		}
		var meta tableMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		rec = domain.TableRecord{
			Ref:      ref,
			DocID:    meta.DocID,
			Title:    meta.Title,
			FullText: meta.FullText,
		}
		return nil
	})
	return rec, err
}

func (s *CorpusStore) ListTables() ([]domain.TableRecord, error) {
	var recs []domain.TableRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTables).ForEach(func(k, v []byte) error {
			var meta tableMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			recs = append(recs, domain.TableRecord{
				Ref:      domain.TableRef(k),
				DocID:    meta.DocID,
				Title:    meta.Title,
				FullText: meta.FullText,
			})
			return nil
		})
	})
	return recs, err
}

func (s *CorpusStore) GetStats() (domain.CorpusStats, error) {
	var stats domain.CorpusStats
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketStats).Get(keyStats)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &stats)
	})
	return stats, err
}

func (s *CorpusStore) UpdateStats(stats domain.CorpusStats) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketStats).Put(keyStats, data)
	})
}

// Clear drops all corpus data, including vectors. Used by ingest --clean.
func (s *CorpusStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketDocs, bucketChunks, bucketDocChunks, bucketTables, bucketStats, bucketVectors}
		for _, b := range buckets {
			if tx.Bucket(b) == nil {
				continue
			}
			if err := tx.DeleteBucket(b); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(b); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *CorpusStore) Close() error {
	return s.db.Close()
}
