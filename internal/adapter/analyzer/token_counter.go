package analyzer

import (
	"strings"
	"unicode"
)

// TokenCounter estimates LLM token counts for context-budget bookkeeping.
// Exact counts are model-specific; a word-based estimate is close enough
// for deciding which chunks fit a budget.
type TokenCounter struct{}

func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

// CountTokens returns an approximate token count for the text.
// Average English word is about 1.3 subword tokens.
func (c *TokenCounter) CountTokens(text string) int {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}
	return int(float64(len(words)) * 1.3)
}

// splitWords splits text into words on unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}
