package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/consolida/consolida"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "consolida.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleFund() consolida.FundRecord {
	f := consolida.FundRecord{
		CNPJ:           "11222333000181",
		RegistrationID: "100",
		Name:           "FUNDO ALFA",
		Type:           consolida.TypeFI,
		Status:         consolida.StatusActive,
		Manager:        "GESTORA X",
		Administrator:  "ADM LTDA",
		Custodian:      "CUSTODIA SA",
		NetWorth:       consolida.DecFromFloat(1500000),
		NetWorthDate:   "2026-06-30",
	}
	f.Derived = consolida.Derived{
		AnbimaClasses:  []string{"Ações", "Renda Fixa"},
		ESG:            consolida.FlagYes,
		Audience:       consolida.AudienceQualified,
		AdminFee:       consolida.ParseDec("2,00"),
		PerformanceFee: consolida.Dec{},
		Condominium:    consolida.CondominiumOpen,
		ClassCount:     2,
		SubclassCount:  1,
	}
	return f
}

func TestCommitAndFund(t *testing.T) {
	s := testStore(t)
	f := sampleFund()
	require.NoError(t, s.Commit([]consolida.FundRecord{f}, nil, nil))

	got, err := s.Fund(f.CNPJ)
	require.NoError(t, err)

	assert.Equal(t, f.Name, got.Name)
	assert.Equal(t, consolida.StatusActive, got.Status)
	assert.Equal(t, []string{"Ações", "Renda Fixa"}, got.Derived.AnbimaClasses)
	assert.Equal(t, consolida.FlagYes, got.Derived.ESG)
	assert.Equal(t, consolida.AudienceQualified, got.Derived.Audience)
	// exact fee round trip
	assert.True(t, got.Derived.AdminFee.Equal(consolida.DecFromFloat(2)))
	assert.False(t, got.Derived.PerformanceFee.Known)
	assert.True(t, got.NetWorth.Known)
	assert.Equal(t, 2, got.Derived.ClassCount)
}

func TestFundNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.Fund("00000000000191")
	assert.ErrorIs(t, err, consolida.ErrNotFound)
}

func TestCommitReplacesSnapshot(t *testing.T) {
	s := testStore(t)
	f := sampleFund()
	require.NoError(t, s.Commit([]consolida.FundRecord{f}, nil, nil))

	other := sampleFund()
	other.CNPJ = "62318407000119"
	other.RegistrationID = "101"
	require.NoError(t, s.Commit([]consolida.FundRecord{other}, nil, nil))

	funds, err := s.Funds()
	require.NoError(t, err)
	require.Len(t, funds, 1)
	assert.Equal(t, "62318407000119", funds[0].CNPJ)

	// record of the replaced fund is gone
	_, err = s.Fund(f.CNPJ)
	assert.ErrorIs(t, err, consolida.ErrNotFound)
}

func TestClassesRoundTrip(t *testing.T) {
	s := testStore(t)
	c := consolida.ClassRecord{
		RegistrationID:     "900",
		FundRegistrationID: "100",
		FundCNPJ:           "11222333000181",
		CNPJ:               "33444555000110",
		Name:               "CLASSE A",
		Anbima:             "Renda Fixa",
		ESG:                consolida.FlagNo,
		Audience:           consolida.AudienceGeneral,
		Condominium:        consolida.CondominiumOpen,
		AdminFee:           consolida.ParseDec("0,50"),
		Orphan:             true,
		SubclassCount:      3,
	}
	require.NoError(t, s.Commit(nil, []consolida.ClassRecord{c}, nil))

	classes, err := s.Classes()
	require.NoError(t, err)
	require.Len(t, classes, 1)
	got := classes[0]
	assert.Equal(t, "900", got.RegistrationID)
	assert.True(t, got.Orphan)
	assert.Equal(t, 3, got.SubclassCount)
	assert.True(t, got.AdminFee.Equal(consolida.DecFromFloat(0.5)))
	assert.False(t, got.NetWorth.Known)
}

func TestSearchConjunction(t *testing.T) {
	s := testStore(t)
	a := sampleFund()
	b := sampleFund()
	b.CNPJ = "62318407000119"
	b.Status = consolida.StatusCanceled
	b.Manager = "OUTRA GESTORA"
	b.NetWorth = consolida.DecFromFloat(100)
	require.NoError(t, s.Commit([]consolida.FundRecord{a, b}, nil, nil))

	got, err := s.Search(consolida.SearchFilters{
		Status:      consolida.StatusActive,
		Manager:     "GESTORA X",
		Anbima:      "Renda Fixa",
		MinNetWorth: consolida.DecFromFloat(1000000),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.CNPJ, got[0].CNPJ)

	// one failing predicate empties the result
	got, err = s.Search(consolida.SearchFilters{
		Status: consolida.StatusActive,
		Anbima: "Multimercado",
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchUnknownNetWorthExcluded(t *testing.T) {
	s := testStore(t)
	f := sampleFund()
	f.NetWorth = consolida.Dec{}
	require.NoError(t, s.Commit([]consolida.FundRecord{f}, nil, nil))

	got, err := s.Search(consolida.SearchFilters{MinNetWorth: consolida.DecFromFloat(0)})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChangesQuery(t *testing.T) {
	s := testStore(t)
	t1 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	events := []consolida.ChangeEvent{
		{CNPJ: "11222333000181", Field: consolida.FieldAdminFee, Old: "2", New: "1.5",
			Category: consolida.ChangeFee, RunID: "run-1", At: t1},
		{CNPJ: "62318407000119", Field: consolida.FieldStatus, Old: "active", New: "canceled",
			Category: consolida.ChangeStatus, RunID: "run-2", At: t2},
	}
	require.NoError(t, s.Commit(nil, nil, events[:1]))
	require.NoError(t, s.Commit(nil, nil, events[1:]))

	// history survives snapshot replacement; most recent first
	all, err := s.Changes(consolida.ChangeQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "run-2", all[0].RunID)
	assert.Equal(t, t2, all[0].At)

	one, err := s.Changes(consolida.ChangeQuery{CNPJ: "11222333000181"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "1.5", one[0].New)

	since, err := s.Changes(consolida.ChangeQuery{Since: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, consolida.ChangeStatus, since[0].Category)

	limited, err := s.Changes(consolida.ChangeQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
