package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tariffrag/internal/domain"
)

func TestFindRefs_Patterns(t *testing.T) {
	p := NewTablePattern()

	cases := []struct {
		name string
		text string
		want []domain.TableRef
	}{
		{
			name: "numeric",
			text: "Anchorage dues are set out in Table 2 of this tariff.",
			want: []domain.TableRef{"Table 2"},
		},
		{
			name: "see phrasing and casing",
			text: "For berth fees see TABLE 3. Light dues follow table 3 as well.",
			want: []domain.TableRef{"Table 3"},
		},
		{
			name: "schedule letter",
			text: "Pilotage charges per Schedule B apply to vessels over 500 GT.",
			want: []domain.TableRef{"Schedule B"},
		},
		{
			name: "annex roman",
			text: "Rates in Annex IV are reviewed annually.",
			want: []domain.TableRef{"Annex IV"},
		},
		{
			name: "dotted and suffixed designators",
			text: "Compare Table 4.1 with Table 12a before invoicing.",
			want: []domain.TableRef{"Table 4.1", "Table 12A"},
		},
		{
			name: "no designator is not a reference",
			text: "The table of contents lists every schedule in the booklet.",
			want: nil,
		},
		{
			name: "keyword followed by prose",
			text: "The schedule below was amended; the table therein changed too.",
			want: nil,
		},
		{
			name: "multiple distinct refs keep first-appearance order",
			text: "Appendix 2 supplements Table 7; Table 7 cross-references Appendix 2.",
			want: []domain.TableRef{"Appendix 2", "Table 7"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, p.FindRefs(tc.text))
		})
	}
}

func TestFindRefs_Deterministic(t *testing.T) {
	p := NewTablePattern()
	text := "Charges per Table 1, Table 2 and Schedule C; see also table 1."

	first := p.FindRefs(text)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, p.FindRefs(text))
	}
}

func TestNormalizeRefString(t *testing.T) {
	ref, ok := NormalizeRefString("  table no. 5 ")
	require.True(t, ok)
	assert.Equal(t, domain.TableRef("Table 5"), ref)

	ref, ok = NormalizeRefString("SCHEDULE b")
	require.True(t, ok)
	assert.Equal(t, domain.TableRef("Schedule B"), ref)

	_, ok = NormalizeRefString("just some prose")
	assert.False(t, ok)
}

func TestCountTokens(t *testing.T) {
	c := NewTokenCounter()

	assert.Equal(t, 0, c.CountTokens(""))
	assert.Equal(t, 0, c.CountTokens("  \n\t "))

	short := c.CountTokens("anchorage dues")
	long := c.CountTokens("anchorage dues are levied per 100 GT per 24 hour period")
	assert.Greater(t, short, 0)
	assert.Greater(t, long, short)
}
