package chunker

import (
	"regexp"
	"strings"

	"tariffrag/internal/adapter/analyzer"
	"tariffrag/internal/domain"
)

var (
	headingPattern = regexp.MustCompile(`^(#{1,3})\s+(.+)$`)
	// Caption lines like "Table 2: Anchorage dues" or "Schedule B - Pilotage".
	captionPattern = regexp.MustCompile(
		`(?i)^((?:table|schedule|annex|appendix)\s+(?:no\.?\s*)?\S+)\s*[:.\-]?\s*(.*)$`)
)

// HeaderChunker splits markdown documents into section chunks and pulls
// captioned tables out as standalone corpus records. A table's text stays
// inside its section chunk too; the record exists so a reference can be
// resolved to the complete table even when chunk boundaries clip it.
type HeaderChunker struct{}

func NewHeaderChunker() *HeaderChunker {
	return &HeaderChunker{}
}

// Chunk splits content on markdown headings (levels 1-3). Chunk IDs are
// assigned by the caller.
func (c *HeaderChunker) Chunk(doc domain.Document, content string) ([]domain.Chunk, []domain.TableRecord) {
	lines := strings.Split(content, "\n")

	var chunks []domain.Chunk
	var tables []domain.TableRecord

	section := doc.Title
	var body []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if text == "" {
			body = body[:0]
			return
		}
		chunks = append(chunks, domain.Chunk{
			DocID:   doc.ID,
			Section: section,
			Text:    text,
		})
		body = body[:0]
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			flush()
			section = strings.TrimSpace(m[2])
			continue
		}

		if rec, consumed := c.extractTable(doc, lines, i); consumed > 0 {
			tables = append(tables, rec)
			// The table lines remain part of the section chunk.
			body = append(body, lines[i:i+consumed]...)
			i += consumed - 1
			continue
		}

		body = append(body, line)
	}
	flush()

	return chunks, tables
}

// extractTable recognizes a caption line immediately followed by a
// markdown pipe table and returns the record plus the number of lines it
// spans. Uncaptioned tables are left alone: without a name there is
// nothing a reference could resolve to.
func (c *HeaderChunker) extractTable(doc domain.Document, lines []string, at int) (domain.TableRecord, int) {
	caption := strings.TrimSpace(lines[at])
	m := captionPattern.FindStringSubmatch(caption)
	if m == nil {
		return domain.TableRecord{}, 0
	}

	ref, ok := analyzer.NormalizeRefString(m[1])
	if !ok {
		return domain.TableRecord{}, 0
	}

	// The pipe table must start on the next non-blank line.
	next := at + 1
	for next < len(lines) && strings.TrimSpace(lines[next]) == "" {
		next++
	}
	if next >= len(lines) || !isTableRow(lines[next]) {
		return domain.TableRecord{}, 0
	}

	end := next
	for end < len(lines) && isTableRow(lines[end]) {
		end++
	}

	full := append([]string{caption}, lines[next:end]...)
	return domain.TableRecord{
		Ref:      ref,
		DocID:    doc.ID,
		Title:    strings.TrimSpace(m[2]),
		FullText: strings.Join(full, "\n"),
	}, end - at
}

func isTableRow(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "|")
}
