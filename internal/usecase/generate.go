package usecase

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"tariffrag/internal/adapter/analyzer"
	"tariffrag/internal/domain"
	"tariffrag/internal/port"
)

const generationSystemPrompt = `You are a helpful assistant that answers questions about port tariffs and fees.
Answer only from the provided context. If the context does not contain the answer, say that you do not have enough information. Always respond, even if only to say the context is insufficient.`

// GenerateUseCase assembles a bounded context from retrieved chunks and
// linked tables, then asks the model for a grounded answer.
type GenerateUseCase struct {
	llm         port.TextCompletion
	counter     *analyzer.TokenCounter
	tokenBudget int
	debugPath   string
	logger      *zap.Logger
}

func NewGenerateUseCase(
	llm port.TextCompletion,
	counter *analyzer.TokenCounter,
	tokenBudget int,
	debugPath string,
	logger *zap.Logger,
) *GenerateUseCase {
	if tokenBudget <= 0 {
		tokenBudget = 3000
	}
	return &GenerateUseCase{
		llm:         llm,
		counter:     counter,
		tokenBudget: tokenBudget,
		debugPath:   debugPath,
		logger:      logger,
	}
}

// Generate produces the final answer. Table contents take priority over
// chunks when the budget is tight: a selected table is never truncated,
// and the lowest-similarity chunks are dropped first.
func (u *GenerateUseCase) Generate(
	normalizedQuery string,
	chunks []domain.ScoredChunk,
	tables map[domain.TableRef]domain.TableContent,
) (string, error) {
	context := u.assembleContext(chunks, tables)

	if u.debugPath != "" {
		u.dumpContext(normalizedQuery, chunks, tables, context)
	}

	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", context, normalizedQuery)
	answer, err := u.llm.Complete(generationSystemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("completion call failed: %w", err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("model returned empty answer")
	}

	return answer, nil
}

// assembleContext admits tables first (whole or not at all), then chunks
// in descending similarity while they fit. A single table larger than the
// entire budget is admitted alone: a clipped tariff table is worse than a
// short context.
func (u *GenerateUseCase) assembleContext(
	chunks []domain.ScoredChunk,
	tables map[domain.TableRef]domain.TableContent,
) string {
	var sections []string
	used := 0

	for _, ref := range sortedRefs(tables) {
		text := tables[ref].FullText
		cost := u.counter.CountTokens(text)
		if used+cost > u.tokenBudget && len(sections) > 0 {
			u.logger.Debug("table skipped by token budget", zap.String("table_ref", string(ref)))
			continue
		}
		sections = append(sections, fmt.Sprintf("[%s]\n%s", ref, text))
		used += cost
	}

	for _, sc := range chunks {
		cost := u.counter.CountTokens(sc.Chunk.Text)
		if used+cost > u.tokenBudget {
			u.logger.Debug("chunk dropped by token budget",
				zap.String("chunk_id", sc.Chunk.ID), zap.Float64("score", sc.Score))
			continue
		}
		header := sc.Chunk.Section
		if header == "" {
			header = sc.Chunk.ID
		}
		sections = append(sections, fmt.Sprintf("[%s]\n%s", header, sc.Chunk.Text))
		used += cost
	}

	if len(sections) == 0 {
		return "(no relevant context found)"
	}
	return strings.Join(sections, "\n\n")
}

// dumpContext writes the assembled context to the configured side channel
// for grounding diagnosis. Never fatal.
func (u *GenerateUseCase) dumpContext(
	query string,
	chunks []domain.ScoredChunk,
	tables map[domain.TableRef]domain.TableContent,
	assembled string,
) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\n", query)
	fmt.Fprintf(&sb, "Tables: %d, chunks: %d\n", len(tables), len(chunks))
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	for i, sc := range chunks {
		fmt.Fprintf(&sb, "\nChunk %d (score %.3f, section %q):\n%s\n", i+1, sc.Score, sc.Chunk.Section, sc.Chunk.Text)
	}
	sb.WriteString("\nAssembled context:\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(assembled)
	fmt.Fprintf(&sb, "\n\nTotal context length: %d characters\n", len(assembled))

	if err := os.WriteFile(u.debugPath, []byte(sb.String()), 0644); err != nil {
		u.logger.Warn("failed to write debug context", zap.String("path", u.debugPath), zap.Error(err))
		return
	}
	u.logger.Info("debug context written", zap.String("path", u.debugPath))
}

// sortedRefs orders table refs lexically so assembly is deterministic
// regardless of map iteration order.
func sortedRefs(tables map[domain.TableRef]domain.TableContent) []domain.TableRef {
	refs := make([]domain.TableRef, 0, len(tables))
	for ref := range tables {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}
