package reports

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/consolida/consolida"
)

// notFound marks a requested fund absent from the snapshot.
const notFound = "não encontrado"

// fundFields is the column set of every fund export, in fixed order, so
// that two exports of the same snapshot are byte-identical.
var fundFields = []string{
	"cnpj", "nome", "tipo", "situacao",
	"gestor", "cnpj_gestor", "administrador", "cnpj_administrador",
	"custodiante", "auditor",
	"patrimonio_liquido", "data_patrimonio_liquido",
	"classes_anbima", "esg", "publico_alvo", "forma_condominio",
	"taxa_administracao", "taxa_performance",
	"num_classes", "num_subclasses",
}

// fundValues renders a fund aligned with fundFields. Unknown values render
// empty, never as zero.
func fundValues(f consolida.FundRecord) []string {
	d := f.Derived
	return []string{
		consolida.FormatCNPJ(f.CNPJ), f.Name, string(f.Type), string(f.Status),
		f.Manager, consolida.FormatCNPJ(f.ManagerCNPJ), f.Administrator, consolida.FormatCNPJ(f.AdministratorCNPJ),
		f.Custodian, f.Auditor,
		decCSV(f.NetWorth), f.NetWorthDate,
		strings.Join(d.AnbimaClasses, "|"), d.ESG.String(), d.Audience.String(), string(d.Condominium),
		decCSV(d.AdminFee), decCSV(d.PerformanceFee),
		strconv.Itoa(d.ClassCount), strconv.Itoa(d.SubclassCount),
	}
}

func decCSV(d consolida.Dec) string {
	if !d.Known {
		return ""
	}
	return d.Value.String()
}

// ExportFundsCSV writes the whole snapshot, one fund per row.
func (r *Reporter) ExportFundsCSV(filename string) error {
	funds, err := r.store.Funds()
	if err != nil {
		return err
	}
	return r.exportFile(filename, func(w *csv.Writer) error {
		if err := w.Write(fundFields); err != nil {
			return err
		}
		for _, f := range funds {
			if err := w.Write(fundValues(f)); err != nil {
				return err
			}
		}
		return nil
	})
}

var classFields = []string{
	"id_registro", "cnpj_fundo", "cnpj_classe", "nome",
	"classificacao_anbima", "esg", "publico_alvo", "forma_condominio", "custodiante",
	"taxa_administracao", "taxa_performance", "patrimonio_liquido",
	"orfa", "num_subclasses",
}

// ExportClassesCSV writes the flattened class rows, orphans included.
func (r *Reporter) ExportClassesCSV(filename string) error {
	classes, err := r.store.Classes()
	if err != nil {
		return err
	}
	return r.exportFile(filename, func(w *csv.Writer) error {
		if err := w.Write(classFields); err != nil {
			return err
		}
		for _, c := range classes {
			orphan := "N"
			if c.Orphan {
				orphan = "S"
			}
			row := []string{
				c.RegistrationID, consolida.FormatCNPJ(c.FundCNPJ), consolida.FormatCNPJ(c.CNPJ), c.Name,
				c.Anbima, c.ESG.String(), c.Audience.String(), string(c.Condominium), c.Custodian,
				decCSV(c.AdminFee), decCSV(c.PerformanceFee), decCSV(c.NetWorth),
				orphan, strconv.Itoa(c.SubclassCount),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

var changeFields = []string{"cnpj", "campo", "valor_anterior", "valor_novo", "categoria", "execucao", "data"}

// ExportChangesCSV writes the change history selected by the query.
func (r *Reporter) ExportChangesCSV(filename string, q consolida.ChangeQuery) error {
	events, err := r.store.Changes(q)
	if err != nil {
		return err
	}
	return r.exportFile(filename, func(w *csv.Writer) error {
		if err := w.Write(changeFields); err != nil {
			return err
		}
		for _, e := range events {
			row := []string{
				consolida.FormatCNPJ(e.CNPJ), e.Field, e.Old, e.New,
				string(e.Category), e.RunID, e.At.UTC().Format(time.RFC3339),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// ExportComparisonCSV writes a side-by-side comparison with fields as rows
// and one column per requested fund, in request order.
func (r *Reporter) ExportComparisonCSV(filename string, cnpjs []string) error {
	comps, err := r.Compare(cnpjs)
	if err != nil {
		return err
	}
	return r.exportFile(filename, func(w *csv.Writer) error {
		return writeComparison(w, comps)
	})
}

// ComparisonRows lays the comparison out with fields as rows and one
// column per requested fund, in request order.
func ComparisonRows(comps []Comparison) [][]string {
	rows := make([][]string, 0, len(fundFields))
	for i, field := range fundFields {
		row := make([]string, 0, len(comps)+1)
		row = append(row, field)
		for _, c := range comps {
			switch {
			case c.Found:
				row = append(row, fundValues(c.Fund)[i])
			case field == "cnpj":
				row = append(row, consolida.FormatCNPJ(c.CNPJ))
			default:
				row = append(row, notFound)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func writeComparison(w *csv.Writer, comps []Comparison) error {
	for _, row := range ComparisonRows(comps) {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// exportFile opens the destination, runs fn over a ;-delimited CSV writer
// and wraps any failure in an ExportError. The store is never touched.
func (r *Reporter) exportFile(filename string, fn func(*csv.Writer) error) error {
	fp, err := os.Create(filename)
	if err != nil {
		return &consolida.ExportError{Destination: filename, Err: err}
	}
	defer fp.Close()

	if err := writeCSV(fp, fn); err != nil {
		return &consolida.ExportError{Destination: filename, Err: err}
	}
	r.log.Info().Str("arquivo", filename).Msg("exportação concluída")
	return nil
}

func writeCSV(out io.Writer, fn func(*csv.Writer) error) error {
	w := csv.NewWriter(out)
	w.Comma = ';'
	if err := fn(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
