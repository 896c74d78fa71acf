package analyzer

import (
	"regexp"
	"strings"

	"tariffrag/internal/domain"
)

// Reference designators: "3", "3.1", "12a", "B", "IV". The single-letter
// and roman alternatives require a word boundary so prose following the
// keyword ("table of", "schedule was") does not match.
var tableRefPattern = regexp.MustCompile(
	`(?i)\b(table|schedule|annex|appendix)\s+(?:no\.?\s*)?([0-9]+(?:\.[0-9]+)*[a-z]?|[a-z]|[ivxl]+)\b`)

// TablePattern extracts normalized table references from free text.
// Detection is a fixed regexp, so identical input always yields identical
// output. Unnamed references ("the table below") are not detected.
type TablePattern struct{}

func NewTablePattern() *TablePattern {
	return &TablePattern{}
}

// FindRefs returns the distinct table references in text, in order of
// first appearance.
func (p *TablePattern) FindRefs(text string) []domain.TableRef {
	matches := tableRefPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[domain.TableRef]struct{}, len(matches))
	refs := make([]domain.TableRef, 0, len(matches))
	for _, m := range matches {
		ref := normalizeRef(m[1], m[2])
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

// normalizeRef canonicalizes keyword casing, designator casing, and
// whitespace so "see TABLE  3" and "table 3" collapse to one reference.
func normalizeRef(keyword, designator string) domain.TableRef {
	kw := strings.ToLower(keyword)
	kw = strings.ToUpper(kw[:1]) + kw[1:]
	return domain.TableRef(kw + " " + strings.ToUpper(designator))
}

// NormalizeRefString parses a full reference string such as "table 3".
// Used at ingestion to key table records the same way detection keys
// references at query time.
func NormalizeRefString(s string) (domain.TableRef, bool) {
	m := tableRefPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	return normalizeRef(m[1], m[2]), true
}
