package usecase

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tariffrag/internal/adapter/analyzer"
	"tariffrag/internal/domain"
)

// routingLLM answers the analysis prompt and the generation prompt with
// different scripted responses, keyed on the system prompt.
type routingLLM struct {
	analysis        string
	answer          string
	generationCalls int
}

func (f *routingLLM) Complete(systemPrompt, userPrompt string) (string, error) {
	if f.analysis != "" && systemPrompt == analysisSystemPrompt {
		return f.analysis, nil
	}
	f.generationCalls++
	return f.answer, nil
}

func (f *routingLLM) ModelName() string { return "routing" }

func newPipeline(llm *routingLLM, store *fakeContextStore, topK int) *Pipeline {
	logger := zap.NewNop()
	pattern := analyzer.NewTablePattern()
	return NewPipeline(
		NewAnalyzeUseCase(llm, logger),
		store,
		NewTableLinkUseCase(store, pattern, logger),
		NewGenerateUseCase(llm, analyzer.NewTokenCounter(), 3000, "", logger),
		topK,
		logger,
	)
}

func TestRun_AnswersWithLinkedTable(t *testing.T) {
	llm := &routingLLM{
		analysis: `{"is_tariff_related": true, "tariff_terms": ["anchorage dues"], "search_query": "anchorage dues rates"}`,
		answer:   "Anchorage dues are 1.20 per 100 GT for coastal vessels.",
	}
	store := &fakeContextStore{
		chunks: []domain.ScoredChunk{
			scoredChunk("c1", "Anchorage dues are charged per 100 GT, see Table 2 for anchorage dues.", 0.92),
			scoredChunk("c2", "Port security charges apply to all calls.", 0.41),
		},
		tables: map[domain.TableRef]string{
			"Table 2": "Table 2: Anchorage dues\n| Coastal | 1.20 |",
		},
	}

	result, err := newPipeline(llm, store, 3).Run("What are the current anchorage dues rates?")
	require.NoError(t, err)

	assert.Equal(t, StateAnswered, result.State)
	qs := result.Query
	assert.Equal(t, "What are the current anchorage dues rates?", qs.RawQuestion)
	assert.Equal(t, "anchorage dues rates", qs.NormalizedQuery)
	assert.Equal(t, []string{"anchorage dues"}, qs.DomainTerms)
	assert.Len(t, qs.RetrievedChunks, 2)
	assert.Equal(t, []domain.TableRef{"Table 2"}, qs.TableRefs)
	require.Contains(t, qs.TableContents, domain.TableRef("Table 2"))
	assert.Contains(t, qs.TableContents["Table 2"].FullText, "| Coastal | 1.20 |")
	assert.Equal(t, "Anchorage dues are 1.20 per 100 GT for coastal vessels.", qs.FinalAnswer)
}

func TestRun_EmptyRetrievalStillAnswers(t *testing.T) {
	llm := &routingLLM{
		analysis: `{"is_tariff_related": false, "tariff_terms": [], "search_query": "weather in Rotterdam"}`,
		answer:   "I do not have enough information in the tariff documents to answer that.",
	}
	store := &fakeContextStore{} // no chunks above threshold

	result, err := newPipeline(llm, store, 3).Run("What's the weather like?")
	require.NoError(t, err)

	assert.Equal(t, StateAnswered, result.State)
	assert.Empty(t, result.Query.RetrievedChunks)
	assert.Empty(t, result.Query.TableRefs)
	assert.Empty(t, result.Query.TableContents)
	assert.NotEmpty(t, result.Query.FinalAnswer)
}

func TestRun_NoRefsMeansZeroLookups(t *testing.T) {
	llm := &routingLLM{
		analysis: `{"search_query": "berth fees"}`,
		answer:   "Berth fees depend on vessel length.",
	}
	store := &fakeContextStore{
		chunks: []domain.ScoredChunk{
			scoredChunk("c1", "Berth fees depend on vessel length overall.", 0.8),
		},
	}

	result, err := newPipeline(llm, store, 3).Run("How are berth fees calculated?")
	require.NoError(t, err)

	assert.Equal(t, StateAnswered, result.State)
	assert.Empty(t, result.Query.TableRefs)
	assert.Empty(t, result.Query.TableContents)
	assert.Zero(t, store.lookupCalls)
}

func TestRun_MissingTableIsNonFatal(t *testing.T) {
	llm := &routingLLM{
		analysis: `{"search_query": "towage rates"}`,
		answer:   "Towage rates are listed per GT bracket.",
	}
	store := &fakeContextStore{
		chunks: []domain.ScoredChunk{
			scoredChunk("c1", "Towage rates per Table 5, repealed rates in Table 6.", 0.85),
		},
		tables: map[domain.TableRef]string{
			"Table 5": "Table 5: Towage",
		},
	}

	result, err := newPipeline(llm, store, 3).Run("What are the towage rates?")
	require.NoError(t, err)

	assert.Equal(t, StateAnswered, result.State)
	assert.Equal(t, []domain.TableRef{"Table 5", "Table 6"}, result.Query.TableRefs)
	assert.Contains(t, result.Query.TableContents, domain.TableRef("Table 5"))
	assert.NotContains(t, result.Query.TableContents, domain.TableRef("Table 6"))
}

func TestRun_RetrievalOutageStopsPipeline(t *testing.T) {
	llm := &routingLLM{
		analysis: `{"search_query": "anchorage dues"}`,
		answer:   "should never be produced",
	}
	store := &fakeContextStore{retrieveErr: fmt.Errorf("index unavailable")}

	result, err := newPipeline(llm, store, 3).Run("What are the anchorage dues?")
	require.Error(t, err)

	assert.Equal(t, StateErrored, result.State)
	var retErr *domain.RetrievalError
	assert.True(t, errors.As(err, &retErr))
	assert.Zero(t, store.lookupCalls, "table linker must not run")
	assert.Zero(t, llm.generationCalls, "generator must not run")
}

func TestRun_EmptyQuestionIsAnalysisError(t *testing.T) {
	store := &fakeContextStore{}
	result, err := newPipeline(&routingLLM{}, store, 3).Run("   ")
	require.Error(t, err)

	assert.Equal(t, StateErrored, result.State)
	var anErr *domain.AnalysisError
	assert.True(t, errors.As(err, &anErr))
	assert.Zero(t, store.retrieveCalls)
}

func TestRun_EmptyGenerationIsGenerationError(t *testing.T) {
	llm := &routingLLM{
		analysis: `{"search_query": "anchorage dues"}`,
		answer:   "",
	}
	store := &fakeContextStore{
		chunks: []domain.ScoredChunk{scoredChunk("c1", "Anchorage dues.", 0.9)},
	}

	result, err := newPipeline(llm, store, 3).Run("What are the anchorage dues?")
	require.Error(t, err)

	assert.Equal(t, StateErrored, result.State)
	var genErr *domain.GenerationError
	assert.True(t, errors.As(err, &genErr))
}

func TestRun_TopKBoundsRetrievedChunks(t *testing.T) {
	llm := &routingLLM{
		analysis: `{"search_query": "port charges"}`,
		answer:   "Charges vary.",
	}
	store := &fakeContextStore{
		chunks: []domain.ScoredChunk{
			scoredChunk("c1", "a", 0.9),
			scoredChunk("c2", "b", 0.8),
			scoredChunk("c3", "c", 0.7),
			scoredChunk("c4", "d", 0.6),
		},
	}

	result, err := newPipeline(llm, store, 2).Run("What are the port charges?")
	require.NoError(t, err)
	assert.Len(t, result.Query.RetrievedChunks, 2)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "start", StateStart.String())
	assert.Equal(t, "answered", StateAnswered.String())
	assert.Equal(t, "errored", StateErrored.String())
	assert.Equal(t, "unknown", State(99).String())
}
