package consolida

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCNPJ(t *testing.T) {
	table := []struct {
		in  string
		out string
	}{
		{"00.000.000/0001-91", "00000000000191"},
		{"191", "00000000000191"},
		{"11222333000181", "11222333000181"},
		{"", ""},
		{"n/a", ""},
		{"123456789012345", ""},
	}
	for _, x := range table {
		assert.Equal(t, x.out, NormalizeCNPJ(x.in), "input %q", x.in)
	}
}

func TestFormatCNPJ(t *testing.T) {
	assert.Equal(t, "00.000.000/0001-91", FormatCNPJ("00000000000191"))
	assert.Equal(t, "191", FormatCNPJ("191"))
}

func TestFixDate(t *testing.T) {
	table := []struct {
		in  string
		out string
	}{
		{"26/04/2021", "2021-04-26"},
		{"2021-04-26", "2021-04-26"},
		{"31/02/2021", ""},
		{"n/d", ""},
		{"", ""},
	}
	for _, x := range table {
		assert.Equal(t, x.out, FixDate(x.in), "input %q", x.in)
	}
}

func TestParseDec(t *testing.T) {
	d := ParseDec("1.234,56")
	assert.True(t, d.Known)
	assert.Equal(t, "1234.56", d.Value.String())

	d = ParseDec("0,50")
	assert.Equal(t, "0.5", d.Value.String())

	d = ParseDec("2.5")
	assert.True(t, d.Known)
	assert.Equal(t, "2.5", d.Value.String())

	// missing fees stay unknown, never zero
	assert.False(t, ParseDec("").Known)
	assert.False(t, ParseDec("N/A").Known)
}

func TestDecEqual(t *testing.T) {
	assert.True(t, Dec{}.Equal(Dec{}))
	assert.False(t, Dec{}.Equal(DecFromFloat(0)))
	assert.False(t, DecFromFloat(0).Equal(Dec{}))
	assert.True(t, DecFromFloat(2.0).Equal(ParseDec("2,00")))
}

func TestAudienceOrdering(t *testing.T) {
	assert.True(t, AudienceProfessional > AudienceQualified)
	assert.True(t, AudienceQualified > AudienceGeneral)
	assert.True(t, AudienceGeneral > AudienceUnknown)
}

func TestStatusFromSource(t *testing.T) {
	assert.Equal(t, StatusActive, StatusFromSource("EM FUNCIONAMENTO NORMAL"))
	assert.Equal(t, StatusCanceled, StatusFromSource("CANCELADA"))
	assert.Equal(t, StatusUnknown, StatusFromSource("whatever"))
}

func TestSortAnbima(t *testing.T) {
	got := SortAnbima([]string{"Renda Fixa", "", "Ações", "Renda Fixa"})
	assert.Equal(t, []string{"Ações", "Renda Fixa"}, got)
}
