package usecase

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tariffrag/internal/adapter/analyzer"
	"tariffrag/internal/domain"
)

// fakeContextStore scripts retrieval and table lookups, counting calls.
type fakeContextStore struct {
	chunks        []domain.ScoredChunk
	retrieveErr   error
	retrieveCalls int

	tables      map[domain.TableRef]string
	lookupErr   error
	lookupCalls int
}

func (f *fakeContextStore) Retrieve(query string, topK int) ([]domain.ScoredChunk, error) {
	f.retrieveCalls++
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	if len(f.chunks) > topK {
		return f.chunks[:topK], nil
	}
	return f.chunks, nil
}

func (f *fakeContextStore) LookupTable(ref domain.TableRef) (domain.TableContent, error) {
	f.lookupCalls++
	if f.lookupErr != nil {
		return domain.TableContent{}, f.lookupErr
	}
	text, ok := f.tables[ref]
	if !ok {
		return domain.TableContent{}, fmt.Errorf("%w: %s", domain.ErrTableNotFound, ref)
	}
	return domain.TableContent{Ref: ref, FullText: text}, nil
}

func scoredChunk(id, text string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{ID: id, DocID: "d1", Text: text},
		Score: score,
	}
}

func newLinker(store *fakeContextStore) *TableLinkUseCase {
	return NewTableLinkUseCase(store, analyzer.NewTablePattern(), zap.NewNop())
}

func TestDetectRefs_DedupsAcrossChunks(t *testing.T) {
	linker := newLinker(&fakeContextStore{})

	chunks := []domain.ScoredChunk{
		scoredChunk("c1", "Anchorage dues: see Table 2 for rates.", 0.9),
		scoredChunk("c2", "As noted, table 2 lists rates; Schedule B covers pilotage.", 0.8),
	}

	refs := linker.DetectRefs(chunks, nil)
	assert.Equal(t, []domain.TableRef{"Table 2", "Schedule B"}, refs)
}

func TestDetectRefs_IncludesDomainTerms(t *testing.T) {
	linker := newLinker(&fakeContextStore{})

	refs := linker.DetectRefs(nil, []string{"anchorage dues", "Table 7 rates"})
	assert.Equal(t, []domain.TableRef{"Table 7"}, refs)
}

func TestDetectRefs_Deterministic(t *testing.T) {
	linker := newLinker(&fakeContextStore{})
	chunks := []domain.ScoredChunk{
		scoredChunk("c1", "Table 1 and Table 3 and Schedule C.", 0.9),
		scoredChunk("c2", "Table 3 again, plus Annex II.", 0.7),
	}

	first := linker.DetectRefs(chunks, nil)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, linker.DetectRefs(chunks, nil))
	}
}

func TestResolve_MissingTableIsAbsorbed(t *testing.T) {
	store := &fakeContextStore{tables: map[domain.TableRef]string{
		"Table 2": "anchorage rates",
	}}
	linker := newLinker(store)

	contents, err := linker.Resolve([]domain.TableRef{"Table 2", "Table 9"})
	require.NoError(t, err)

	require.Len(t, contents, 1)
	assert.Equal(t, "anchorage rates", contents["Table 2"].FullText)
	_, present := contents["Table 9"]
	assert.False(t, present)
	assert.Equal(t, 2, store.lookupCalls)
}

func TestResolve_StoreOutageFails(t *testing.T) {
	store := &fakeContextStore{lookupErr: fmt.Errorf("database closed")}
	linker := newLinker(store)

	_, err := linker.Resolve([]domain.TableRef{"Table 2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database closed")
}

func TestResolve_Idempotent(t *testing.T) {
	store := &fakeContextStore{tables: map[domain.TableRef]string{"Table 2": "rates"}}
	linker := newLinker(store)

	first, err := linker.Resolve([]domain.TableRef{"Table 2"})
	require.NoError(t, err)
	second, err := linker.Resolve([]domain.TableRef{"Table 2"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
