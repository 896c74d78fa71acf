package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"tariffrag/internal/port"
)

const analysisSystemPrompt = `You are a query analysis assistant for port tariff documents.
Given a user question, your task is to:
1. Decide whether the question concerns a specific tariff or fee (anchorage dues, berth fees, pilotage, light dues, port charges, etc.)
2. Extract the tariff or fee terms mentioned
3. Construct a search query suited to retrieving relevant tariff passages

Respond with only a JSON object in this exact shape:
{"is_tariff_related": boolean, "tariff_terms": ["term", ...], "search_query": "..."}`

// analysisResult mirrors the JSON shape the model is asked for.
type analysisResult struct {
	IsTariffRelated bool     `json:"is_tariff_related"`
	TariffTerms     []string `json:"tariff_terms"`
	SearchQuery     string   `json:"search_query"`
}

// AnalyzeUseCase turns a raw question into a retrieval query plus the
// tariff-domain terms it mentions.
type AnalyzeUseCase struct {
	llm    port.TextCompletion
	logger *zap.Logger
}

func NewAnalyzeUseCase(llm port.TextCompletion, logger *zap.Logger) *AnalyzeUseCase {
	return &AnalyzeUseCase{llm: llm, logger: logger}
}

// Analyze returns the normalized query and a deduplicated,
// order-preserving list of domain terms. The model call failing is an
// error; the model answering in the wrong shape is not — the raw question
// is a usable retrieval query, so we fall back to it.
func (u *AnalyzeUseCase) Analyze(rawQuestion string) (string, []string, error) {
	question := strings.TrimSpace(rawQuestion)
	if question == "" {
		return "", nil, fmt.Errorf("question is empty")
	}

	out, err := u.llm.Complete(analysisSystemPrompt, question)
	if err != nil {
		return "", nil, fmt.Errorf("completion call failed: %w", err)
	}

	var result analysisResult
	if err := json.Unmarshal([]byte(stripCodeFence(out)), &result); err != nil {
		u.logger.Warn("analysis response was not valid JSON, falling back to raw question",
			zap.Error(err))
		return question, nil, nil
	}

	normalized := strings.TrimSpace(result.SearchQuery)
	if normalized == "" {
		normalized = question
	}

	u.logger.Debug("query analyzed",
		zap.String("search_query", normalized),
		zap.Bool("is_tariff_related", result.IsTariffRelated),
		zap.Strings("tariff_terms", result.TariffTerms))

	return normalized, dedupeTerms(result.TariffTerms), nil
}

// dedupeTerms drops empties and duplicates while preserving first
// appearance order. Comparison is case-insensitive.
func dedupeTerms(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, term)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// stripCodeFence removes a surrounding markdown code fence, which chat
// models often wrap JSON in despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
