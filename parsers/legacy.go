package parsers

import (
	"io"

	"github.com/consolida/consolida"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Column names of the flat pre-RCVM175 registration (cad_fi.csv).
const (
	colLegCNPJ      = "CNPJ_FUNDO"
	colLegName      = "DENOM_SOCIAL"
	colLegType      = "TP_FUNDO"
	colLegSituation = "SIT"
	colLegManager   = "GESTOR"
	colLegMgrCNPJ   = "CPF_CNPJ_GESTOR"
	colLegAdmin     = "ADMIN"
	colLegAdminCNPJ = "CNPJ_ADMIN"
	colLegCustodian = "CUSTODIANTE"
	colLegAuditor   = "AUDITOR"
	colLegAnbima    = "CLASSE_ANBIMA"
	colLegAudience  = "PUBLICO_ALVO"
	colLegCondom    = "CONDOM"
	colLegAdminFee  = "TAXA_ADM"
	colLegPerfFee   = "TAXA_PERFM"
	colLegNetWorth  = "VL_PATRIM_LIQ"
	colLegNWDate    = "DT_PATRIM_LIQ"
)

// Legacy parses the flat cad_fi.csv registration. The consolidation uses
// it to backfill custodian and auditor, which the three-table registry
// does not carry at fund level.
func Legacy(r io.Reader, log zerolog.Logger) ([]consolida.LegacyRecord, Result, error) {
	var recs []consolida.LegacyRecord

	res, err := scan(r, log, func(header map[string]int, fields []string, line int) error {
		if !has(header, colLegCNPJ) {
			return errors.Wrap(consolida.ErrMissingTable, "cad_fi")
		}

		cnpj := consolida.NormalizeCNPJ(field(header, fields, colLegCNPJ))
		if cnpj == "" {
			return &consolida.MalformedRecordError{Line: line, Reason: "CNPJ do fundo inválido"}
		}

		recs = append(recs, consolida.LegacyRecord{
			CNPJ:              cnpj,
			Name:              field(header, fields, colLegName),
			Type:              consolida.FundTypeFromSource(field(header, fields, colLegType)),
			Status:            consolida.StatusFromSource(field(header, fields, colLegSituation)),
			Manager:           field(header, fields, colLegManager),
			ManagerCNPJ:       consolida.NormalizeCNPJ(field(header, fields, colLegMgrCNPJ)),
			Administrator:     field(header, fields, colLegAdmin),
			AdministratorCNPJ: consolida.NormalizeCNPJ(field(header, fields, colLegAdminCNPJ)),
			Custodian:         field(header, fields, colLegCustodian),
			Auditor:           field(header, fields, colLegAuditor),
			Anbima:            field(header, fields, colLegAnbima),
			Audience:          consolida.AudienceFromSource(field(header, fields, colLegAudience)),
			Condominium:       consolida.CondominiumFromSource(field(header, fields, colLegCondom)),
			AdminFee:          consolida.ParseDec(field(header, fields, colLegAdminFee)),
			PerformanceFee:    consolida.ParseDec(field(header, fields, colLegPerfFee)),
			NetWorth:          consolida.ParseDec(field(header, fields, colLegNetWorth)),
			NetWorthDate:      consolida.FixDate(field(header, fields, colLegNWDate)),
		})
		return nil
	})
	return recs, res, err
}
