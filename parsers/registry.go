package parsers

import (
	"io"

	"github.com/consolida/consolida"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Column names of the three RCVM175 registry tables
// (registro_fundo_classe.zip).
const (
	colFundID    = "ID_Registro_Fundo"
	colFundCNPJ  = "CNPJ_Fundo"
	colFundName  = "Denominacao_Social"
	colFundType  = "Tipo_Fundo"
	colSituation = "Situacao"
	colNetWorth  = "Patrimonio_Liquido"
	colNWDate    = "Data_Patrimonio_Liquido"
	colAdmin     = "Administrador"
	colAdminCNPJ = "CNPJ_Administrador"
	colManager   = "Gestor"
	colMgrCNPJ   = "CPF_CNPJ_Gestor"
	colAuditor   = "Auditor"

	colClassID     = "ID_Registro_Classe"
	colClassCNPJ   = "CNPJ_Classe"
	colAnbima      = "Classificacao_Anbima"
	colESG         = "Classe_ESG"
	colAudience    = "Publico_Alvo"
	colCondominium = "Forma_Condominio"
	colAdminFee    = "Taxa_Administracao"
	colPerfFee     = "Taxa_Performance"
	colCustodian   = "Custodiante"

	colSubclassID = "ID_Subclasse"
)

// Funds parses registro_fundo.csv. Rows without a usable CNPJ or
// registration key are malformed and skipped; every other field is
// optional and coerced to its unknown sentinel when unparseable.
func Funds(r io.Reader, log zerolog.Logger) ([]consolida.FundRecord, Result, error) {
	var funds []consolida.FundRecord

	res, err := scan(r, log, func(header map[string]int, fields []string, line int) error {
		if !has(header, colFundID, colFundCNPJ) {
			return errors.Wrap(consolida.ErrMissingTable, "registro_fundo")
		}

		cnpj := consolida.NormalizeCNPJ(field(header, fields, colFundCNPJ))
		if cnpj == "" {
			return &consolida.MalformedRecordError{Line: line, Reason: "CNPJ do fundo inválido"}
		}
		id := field(header, fields, colFundID)
		if id == "" {
			return &consolida.MalformedRecordError{Line: line, Reason: "registro do fundo sem ID"}
		}

		funds = append(funds, consolida.FundRecord{
			CNPJ:              cnpj,
			RegistrationID:    id,
			Name:              field(header, fields, colFundName),
			Type:              consolida.FundTypeFromSource(field(header, fields, colFundType)),
			Status:            consolida.StatusFromSource(field(header, fields, colSituation)),
			Manager:           field(header, fields, colManager),
			ManagerCNPJ:       consolida.NormalizeCNPJ(field(header, fields, colMgrCNPJ)),
			Administrator:     field(header, fields, colAdmin),
			AdministratorCNPJ: consolida.NormalizeCNPJ(field(header, fields, colAdminCNPJ)),
			Auditor:           field(header, fields, colAuditor),
			NetWorth:          consolida.ParseDec(field(header, fields, colNetWorth)),
			NetWorthDate:      consolida.FixDate(field(header, fields, colNWDate)),
		})
		return nil
	})
	return funds, res, err
}

// Classes parses registro_classe.csv.
func Classes(r io.Reader, log zerolog.Logger) ([]consolida.ClassRecord, Result, error) {
	var classes []consolida.ClassRecord

	res, err := scan(r, log, func(header map[string]int, fields []string, line int) error {
		if !has(header, colClassID, colFundID) {
			return errors.Wrap(consolida.ErrMissingTable, "registro_classe")
		}

		id := field(header, fields, colClassID)
		if id == "" {
			return &consolida.MalformedRecordError{Line: line, Reason: "registro da classe sem ID"}
		}

		classes = append(classes, consolida.ClassRecord{
			RegistrationID:     id,
			FundRegistrationID: field(header, fields, colFundID),
			CNPJ:               consolida.NormalizeCNPJ(field(header, fields, colClassCNPJ)),
			Name:               field(header, fields, colFundName),
			Anbima:             field(header, fields, colAnbima),
			ESG:                consolida.FlagFromSource(field(header, fields, colESG)),
			Audience:           consolida.AudienceFromSource(field(header, fields, colAudience)),
			Condominium:        consolida.CondominiumFromSource(field(header, fields, colCondominium)),
			Custodian:          field(header, fields, colCustodian),
			AdminFee:           consolida.ParseDec(field(header, fields, colAdminFee)),
			PerformanceFee:     consolida.ParseDec(field(header, fields, colPerfFee)),
			NetWorth:           consolida.ParseDec(field(header, fields, colNetWorth)),
		})
		return nil
	})
	return classes, res, err
}

// Subclasses parses registro_subclasse.csv. The merge only needs the
// class foreign key; the rest rides along for export.
func Subclasses(r io.Reader, log zerolog.Logger) ([]consolida.SubclassRecord, Result, error) {
	var subs []consolida.SubclassRecord

	res, err := scan(r, log, func(header map[string]int, fields []string, line int) error {
		if !has(header, colSubclassID, colClassID) {
			return errors.Wrap(consolida.ErrMissingTable, "registro_subclasse")
		}

		id := field(header, fields, colSubclassID)
		parent := field(header, fields, colClassID)
		if id == "" || parent == "" {
			return &consolida.MalformedRecordError{Line: line, Reason: "subclasse sem chave"}
		}

		subs = append(subs, consolida.SubclassRecord{
			RegistrationID:      id,
			ClassRegistrationID: parent,
			Name:                field(header, fields, colFundName),
			Audience:            consolida.AudienceFromSource(field(header, fields, colAudience)),
		})
		return nil
	})
	return subs, res, err
}
