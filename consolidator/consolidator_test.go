package consolidator

import (
	"io"
	"strings"
	"testing"

	"github.com/consolida/consolida"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	funds   []consolida.FundRecord
	classes []consolida.ClassRecord
	events  []consolida.ChangeEvent
}

func (s *memStore) Fund(cnpj string) (*consolida.FundRecord, error) {
	for i := range s.funds {
		if s.funds[i].CNPJ == cnpj {
			return &s.funds[i], nil
		}
	}
	return nil, consolida.ErrNotFound
}
func (s *memStore) Funds() ([]consolida.FundRecord, error)    { return s.funds, nil }
func (s *memStore) Classes() ([]consolida.ClassRecord, error) { return s.classes, nil }
func (s *memStore) Search(consolida.SearchFilters) ([]consolida.FundRecord, error) {
	return s.funds, nil
}
func (s *memStore) Changes(consolida.ChangeQuery) ([]consolida.ChangeEvent, error) {
	return s.events, nil
}
func (s *memStore) Commit(funds []consolida.FundRecord, classes []consolida.ClassRecord, events []consolida.ChangeEvent) error {
	s.funds = funds
	s.classes = classes
	s.events = append(s.events, events...)
	return nil
}

func tables(fundRows, classRows string) map[string]io.Reader {
	t := map[string]io.Reader{
		TableFunds: strings.NewReader(
			"ID_Registro_Fundo;CNPJ_Fundo;Denominacao_Social;Situacao;Gestor\n" + fundRows),
	}
	if classRows != "" {
		t[TableClasses] = strings.NewReader(
			"ID_Registro_Classe;ID_Registro_Fundo;CNPJ_Classe;Taxa_Administracao;Patrimonio_Liquido\n" + classRows)
	}
	return t
}

func TestConsolidateEndToEnd(t *testing.T) {
	store := &memStore{}
	c := New(nil, store, zerolog.Nop())

	sum, err := c.Consolidate(tables(
		"100;11.222.333/0001-81;FUNDO ALFA;EM FUNCIONAMENTO NORMAL;GESTORA X\n",
		"900;100;33.444.555/0001-10;2,00;1.000,00\n",
	))
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Funds)
	assert.Equal(t, 1, sum.Classes)
	// new fund: status, manager and admin fee logged against "absent"
	assert.Equal(t, 3, sum.Events)
	assert.NotEmpty(t, sum.RunID)

	require.Len(t, store.funds, 1)
	f := store.funds[0]
	assert.Equal(t, "11222333000181", f.CNPJ)
	assert.True(t, f.Derived.AdminFee.Equal(consolida.DecFromFloat(2)))
	require.Len(t, store.classes, 1)
	assert.Equal(t, "11222333000181", store.classes[0].FundCNPJ)
}

func TestConsolidateSecondRunDiffs(t *testing.T) {
	store := &memStore{}
	c := New(nil, store, zerolog.Nop())

	_, err := c.Consolidate(tables(
		"100;11222333000181;FUNDO ALFA;EM FUNCIONAMENTO NORMAL;GESTORA X\n",
		"900;100;33444555000110;2,00;1.000,00\n",
	))
	require.NoError(t, err)
	before := len(store.events)

	// identical rerun: no new events
	sum, err := c.Consolidate(tables(
		"100;11222333000181;FUNDO ALFA;EM FUNCIONAMENTO NORMAL;GESTORA X\n",
		"900;100;33444555000110;2,00;1.000,00\n",
	))
	require.NoError(t, err)
	assert.Zero(t, sum.Events)
	assert.Len(t, store.events, before)

	// fee drops from 2.00 to 1.50: exactly one fee event
	sum, err = c.Consolidate(tables(
		"100;11222333000181;FUNDO ALFA;EM FUNCIONAMENTO NORMAL;GESTORA X\n",
		"900;100;33444555000110;1,50;1.000,00\n",
	))
	require.NoError(t, err)
	require.Equal(t, 1, sum.Events)
	last := store.events[len(store.events)-1]
	assert.Equal(t, consolida.FieldAdminFee, last.Field)
	assert.Equal(t, "2", last.Old)
	assert.Equal(t, "1.5", last.New)

	// fund disappears: one removal event, record gone from the snapshot
	sum, err = c.Consolidate(tables(
		"101;62318407000119;FUNDO BETA;EM FUNCIONAMENTO NORMAL;GESTORA Y\n", ""))
	require.NoError(t, err)
	removed := store.events[len(store.events)-1]
	assert.Equal(t, consolida.ValueRemoved, removed.New)
	assert.Equal(t, "11222333000181", removed.CNPJ)
	_, err = store.Fund("11222333000181")
	assert.ErrorIs(t, err, consolida.ErrNotFound)
}

func TestConsolidateMissingFundTable(t *testing.T) {
	c := New(nil, &memStore{}, zerolog.Nop())
	_, err := c.Consolidate(map[string]io.Reader{})
	require.Error(t, err)
	assert.ErrorIs(t, err, consolida.ErrMissingTable)
}

func TestConsolidateLegacyBackfill(t *testing.T) {
	store := &memStore{}
	c := New(nil, store, zerolog.Nop())

	in := tables("100;11222333000181;FUNDO ALFA;EM FUNCIONAMENTO NORMAL;\n", "")
	in[TableLegacy] = strings.NewReader(
		"CNPJ_FUNDO;GESTOR;CUSTODIANTE;AUDITOR\n" +
			"11222333000181;GESTORA ANTIGA;CUSTODIA SA;AUDIT SA\n")

	_, err := c.Consolidate(in)
	require.NoError(t, err)
	f := store.funds[0]
	assert.Equal(t, "CUSTODIA SA", f.Custodian)
	assert.Equal(t, "AUDIT SA", f.Auditor)
	assert.Equal(t, "GESTORA ANTIGA", f.Manager)
}
