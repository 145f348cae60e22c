package reports

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/consolida/consolida"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	funds   []consolida.FundRecord
	classes []consolida.ClassRecord
	events  []consolida.ChangeEvent
}

func (s *fakeStore) Fund(cnpj string) (*consolida.FundRecord, error) {
	for i := range s.funds {
		if s.funds[i].CNPJ == cnpj {
			return &s.funds[i], nil
		}
	}
	return nil, consolida.ErrNotFound
}
func (s *fakeStore) Funds() ([]consolida.FundRecord, error)    { return s.funds, nil }
func (s *fakeStore) Classes() ([]consolida.ClassRecord, error) { return s.classes, nil }
func (s *fakeStore) Search(consolida.SearchFilters) ([]consolida.FundRecord, error) {
	return s.funds, nil
}
func (s *fakeStore) Changes(consolida.ChangeQuery) ([]consolida.ChangeEvent, error) {
	return s.events, nil
}
func (s *fakeStore) Commit([]consolida.FundRecord, []consolida.ClassRecord, []consolida.ChangeEvent) error {
	return nil
}

func testFund(cnpj, name string) consolida.FundRecord {
	f := consolida.FundRecord{
		CNPJ:   cnpj,
		Name:   name,
		Type:   consolida.TypeFI,
		Status: consolida.StatusActive,
	}
	f.Derived.AdminFee = consolida.DecFromFloat(2)
	return f
}

func TestComparePreservesOrderAndMarksMissing(t *testing.T) {
	store := &fakeStore{funds: []consolida.FundRecord{
		testFund("11222333000181", "FUNDO ALFA"),
		testFund("62318407000119", "FUNDO BETA"),
	}}
	r := New(store, zerolog.Nop())

	comps, err := r.Compare([]string{"62.318.407/0001-19", "00000000000191", "11222333000181"})
	require.NoError(t, err)
	require.Len(t, comps, 3)

	assert.True(t, comps[0].Found)
	assert.Equal(t, "FUNDO BETA", comps[0].Fund.Name)
	assert.False(t, comps[1].Found)
	assert.Equal(t, "00000000000191", comps[1].CNPJ)
	assert.True(t, comps[2].Found)
	assert.Equal(t, "FUNDO ALFA", comps[2].Fund.Name)
}

func TestListFuzzy(t *testing.T) {
	store := &fakeStore{funds: []consolida.FundRecord{
		testFund("11222333000181", "FUNDO BRADESCO AÇÕES"),
		testFund("62318407000119", "FUNDO ITAÚ RENDA FIXA"),
	}}
	r := New(store, zerolog.Nop())

	got, err := r.List("bradesco")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "FUNDO BRADESCO AÇÕES", got[0].Name)

	all, err := r.List("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestWriteComparisonFieldsAsRows(t *testing.T) {
	store := &fakeStore{funds: []consolida.FundRecord{testFund("11222333000181", "FUNDO ALFA")}}
	r := New(store, zerolog.Nop())

	comps, err := r.Compare([]string{"11222333000181", "00000000000191"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, func(w *csv.Writer) error {
		return writeComparison(w, comps)
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(fundFields))
	assert.Equal(t, "cnpj;11.222.333/0001-81;00.000.000/0001-91", lines[0])
	assert.Equal(t, "nome;FUNDO ALFA;não encontrado", lines[1])
	assert.Contains(t, lines[3], "active")
}

func TestExportFundsCSV(t *testing.T) {
	f := testFund("11222333000181", "FUNDO ALFA")
	f.NetWorth = consolida.ParseDec("1.500.000,00")
	f.Derived.AnbimaClasses = []string{"Ações", "Renda Fixa"}
	store := &fakeStore{funds: []consolida.FundRecord{f}}
	r := New(store, zerolog.Nop())

	dest := filepath.Join(t.TempDir(), "fundos.csv")
	require.NoError(t, r.ExportFundsCSV(dest))

	raw, err := os.ReadFile(dest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(fundFields, ";"), lines[0])
	assert.Contains(t, lines[1], "11.222.333/0001-81")
	assert.Contains(t, lines[1], "1500000")
	assert.Contains(t, lines[1], "Ações|Renda Fixa")
}

func TestExportErrorOnBadDestination(t *testing.T) {
	r := New(&fakeStore{}, zerolog.Nop())
	err := r.ExportFundsCSV(filepath.Join(t.TempDir(), "no", "such", "dir.csv"))
	require.Error(t, err)
	var xerr *consolida.ExportError
	assert.ErrorAs(t, err, &xerr)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "n/d", money(consolida.Dec{}))
	assert.Equal(t, "2,5", fee(consolida.ParseDec("2,50")))
	assert.Equal(t, "n/d", fee(consolida.Dec{}))
}
