package usecase

import (
	"go.uber.org/zap"
	"tariffrag/internal/domain"
	"tariffrag/internal/port"
)

// State is the pipeline's position in the four-stage workflow.
type State int

const (
	StateStart State = iota
	StateAnalyzed
	StateRetrieved
	StateTableChecked
	StateAnswered
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateAnalyzed:
		return "analyzed"
	case StateRetrieved:
		return "retrieved"
	case StateTableChecked:
		return "table_checked"
	case StateAnswered:
		return "answered"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// tableCheckOutcome is the explicit decision point for the one
// conditional in the workflow: whether table resolution runs at all.
type tableCheckOutcome int

const (
	noTableRefs tableCheckOutcome = iota
	hasTableRefs
)

// RunResult is the terminal outcome of one pipeline run.
type RunResult struct {
	State State
	Query domain.QueryState
}

// Pipeline is the fixed four-stage workflow:
//
//	Start --analyze--> Analyzed --retrieve--> Retrieved
//	      --check_tables--> TableChecked --generate--> Answered
//
// with an absorbing Errored state reachable from any transition. Strictly
// sequential: no loops, no re-entry, no parallel branches. A QueryState
// value is threaded through the stages; each stage writes only its own
// fields.
type Pipeline struct {
	analyzer  *AnalyzeUseCase
	store     port.ContextStore
	linker    *TableLinkUseCase
	generator *GenerateUseCase
	topK      int
	logger    *zap.Logger
}

func NewPipeline(
	analyzer *AnalyzeUseCase,
	store port.ContextStore,
	linker *TableLinkUseCase,
	generator *GenerateUseCase,
	topK int,
	logger *zap.Logger,
) *Pipeline {
	if topK <= 0 {
		topK = 3
	}
	return &Pipeline{
		analyzer:  analyzer,
		store:     store,
		linker:    linker,
		generator: generator,
		topK:      topK,
		logger:    logger,
	}
}

// Run processes one question through the workflow. On failure the result
// state is StateErrored and the error is one of domain.AnalysisError,
// domain.RetrievalError or domain.GenerationError identifying the stage.
func (p *Pipeline) Run(question string) (RunResult, error) {
	qs := domain.QueryState{RawQuestion: question}

	// Start -> Analyzed
	normalized, terms, err := p.analyzer.Analyze(qs.RawQuestion)
	if err != nil {
		return p.errored(qs, StateStart, &domain.AnalysisError{Err: err})
	}
	qs.NormalizedQuery = normalized
	qs.DomainTerms = terms
	p.transition(StateAnalyzed, qs)

	// Analyzed -> Retrieved
	chunks, err := p.store.Retrieve(qs.NormalizedQuery, p.topK)
	if err != nil {
		return p.errored(qs, StateAnalyzed, &domain.RetrievalError{Err: err})
	}
	qs.RetrievedChunks = chunks
	p.transition(StateRetrieved, qs)

	// Retrieved -> TableChecked
	qs.TableRefs = p.linker.DetectRefs(qs.RetrievedChunks, qs.DomainTerms)
	switch outcomeFor(qs.TableRefs) {
	case noTableRefs:
		qs.TableContents = map[domain.TableRef]domain.TableContent{}
	case hasTableRefs:
		contents, err := p.linker.Resolve(qs.TableRefs)
		if err != nil {
			// Individual misses are absorbed inside Resolve; reaching
			// here means the context store itself is down.
			return p.errored(qs, StateRetrieved, &domain.RetrievalError{Err: err})
		}
		qs.TableContents = contents
	}
	p.transition(StateTableChecked, qs)

	// TableChecked -> Answered
	answer, err := p.generator.Generate(qs.NormalizedQuery, qs.RetrievedChunks, qs.TableContents)
	if err != nil {
		return p.errored(qs, StateTableChecked, &domain.GenerationError{Err: err})
	}
	qs.FinalAnswer = answer
	p.transition(StateAnswered, qs)

	return RunResult{State: StateAnswered, Query: qs}, nil
}

func outcomeFor(refs []domain.TableRef) tableCheckOutcome {
	if len(refs) == 0 {
		return noTableRefs
	}
	return hasTableRefs
}

func (p *Pipeline) transition(to State, qs domain.QueryState) {
	p.logger.Debug("pipeline transition",
		zap.String("state", to.String()),
		zap.Int("chunks", len(qs.RetrievedChunks)),
		zap.Int("table_refs", len(qs.TableRefs)))
}

func (p *Pipeline) errored(qs domain.QueryState, from State, err error) (RunResult, error) {
	p.logger.Error("pipeline errored",
		zap.String("from_state", from.String()),
		zap.Error(err))
	return RunResult{State: StateErrored, Query: qs}, err
}
