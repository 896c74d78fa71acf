package usecase

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"tariffrag/internal/adapter/analyzer"
	"tariffrag/internal/domain"
	"tariffrag/internal/port"
)

// TableLinkUseCase resolves table references so tabular answers are
// grounded in complete table data rather than whatever fragment a chunk
// boundary happened to keep.
type TableLinkUseCase struct {
	store   port.ContextStore
	pattern *analyzer.TablePattern
	logger  *zap.Logger
}

func NewTableLinkUseCase(store port.ContextStore, pattern *analyzer.TablePattern, logger *zap.Logger) *TableLinkUseCase {
	return &TableLinkUseCase{store: store, pattern: pattern, logger: logger}
}

// DetectRefs scans retrieved chunk texts and the analyzer's domain terms
// for table references and returns the distinct references in first
// appearance order. Purely pattern-driven, so deterministic.
func (u *TableLinkUseCase) DetectRefs(chunks []domain.ScoredChunk, domainTerms []string) []domain.TableRef {
	seen := make(map[domain.TableRef]struct{})
	var refs []domain.TableRef

	add := func(found []domain.TableRef) {
		for _, ref := range found {
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
	}

	for _, sc := range chunks {
		add(u.pattern.FindRefs(sc.Chunk.Text))
	}
	add(u.pattern.FindRefs(strings.Join(domainTerms, "\n")))

	return refs
}

// Resolve looks up each reference in the corpus. A missing table is
// logged and omitted; the answer proceeds on a best-effort basis. Any
// other lookup error is a context-store outage and fails the stage.
func (u *TableLinkUseCase) Resolve(refs []domain.TableRef) (map[domain.TableRef]domain.TableContent, error) {
	contents := make(map[domain.TableRef]domain.TableContent, len(refs))

	for _, ref := range refs {
		content, err := u.store.LookupTable(ref)
		if err != nil {
			if errors.Is(err, domain.ErrTableNotFound) {
				u.logger.Warn("referenced table missing from corpus",
					zap.String("table_ref", string(ref)))
				continue
			}
			return nil, fmt.Errorf("table lookup for %s: %w", ref, err)
		}
		contents[ref] = content
	}

	return contents, nil
}
