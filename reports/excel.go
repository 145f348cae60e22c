package reports

import (
	"strconv"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/consolida/consolida"
	"github.com/pkg/errors"
)

// Excel instance reachable data
type Excel struct {
	xlsx *excelize.File
}

func newExcel() (e *Excel) {
	e = &Excel{}
	e.xlsx = excelize.NewFile()
	return
}

// saveAndCloseExcel saves to filename (need to set the directory as well)
func (e *Excel) saveAndCloseExcel(filename string) (err error) {
	e.xlsx.DeleteSheet("Sheet1")
	e.xlsx.SetActiveSheet(1)
	err = e.xlsx.SaveAs(filename)
	if err != nil {
		return errors.Wrapf(err, "erro ao salvar planilha")
	}
	return
}

// Sheet struct
type Sheet struct {
	xlsx    *excelize.File
	name    string
	currRow int
}

func (e *Excel) newSheet(name string) (s *Sheet, err error) {
	s = &Sheet{}
	s.name = name
	s.xlsx = e.xlsx
	s.currRow = 1

	// Avoid duplicated sheet
	if index := e.xlsx.GetSheetIndex(name); index > 0 {
		return nil, errors.Errorf("planilha %s já existe", name)
	}

	e.xlsx.NewSheet(name)

	return
}

// printHeader prints a bold header row and moves to the next one.
func (s *Sheet) printHeader(row []string) {
	cell := axis(0, s.currRow)
	s.xlsx.SetSheetRow(s.name, cell, &row)

	style, err := s.xlsx.NewStyle(`{"font":{"bold":true},"alignment":{"horizontal":"center"},"border":[{"type":"bottom","color":"333333","style":3}]}`)
	if err == nil {
		s.xlsx.SetCellStyle(s.name, cell, axis(len(row)-1, s.currRow), style)
	}
	s.currRow++
}

// printRow prints one data row and moves to the next one.
func (s *Sheet) printRow(row []string) {
	s.xlsx.SetSheetRow(s.name, axis(0, s.currRow), &row)
	s.currRow++
}

func (s *Sheet) setColWidth(col int, width float64) {
	c := excelize.ToAlphaString(col)
	s.xlsx.SetColWidth(s.name, c, c, width)
}

// axis transforms (1, 3) into "B3"
func axis(col, row int) string {
	return excelize.ToAlphaString(col) + strconv.Itoa(row)
}

// ExportComparisonExcel writes the side-by-side comparison as a
// spreadsheet: fields as rows, one column per requested fund.
func (r *Reporter) ExportComparisonExcel(filename string, cnpjs []string) error {
	comps, err := r.Compare(cnpjs)
	if err != nil {
		return err
	}

	e := newExcel()
	sheet, err := e.newSheet("Comparação")
	if err != nil {
		return &consolida.ExportError{Destination: filename, Err: err}
	}

	header := []string{"campo"}
	for _, c := range comps {
		header = append(header, consolida.FormatCNPJ(c.CNPJ))
	}
	sheet.printHeader(header)

	for i, field := range fundFields {
		if field == "cnpj" {
			continue
		}
		row := []string{field}
		for _, c := range comps {
			if c.Found {
				row = append(row, fundValues(c.Fund)[i])
			} else {
				row = append(row, notFound)
			}
		}
		sheet.printRow(row)
	}

	sheet.setColWidth(0, 24)
	for i := range comps {
		sheet.setColWidth(i+1, 32)
	}

	if err := e.saveAndCloseExcel(filename); err != nil {
		return &consolida.ExportError{Destination: filename, Err: err}
	}
	r.log.Info().Str("arquivo", filename).Msg("exportação concluída")
	return nil
}

// ExportFundsExcel writes the whole snapshot as a spreadsheet, one fund
// per row, with money and fees formatted for reading.
func (r *Reporter) ExportFundsExcel(filename string) error {
	funds, err := r.store.Funds()
	if err != nil {
		return err
	}

	e := newExcel()
	sheet, err := e.newSheet("Fundos")
	if err != nil {
		return &consolida.ExportError{Destination: filename, Err: err}
	}

	sheet.printHeader(fundFields)
	for _, f := range funds {
		row := fundValues(f)
		row[10] = money(f.NetWorth)
		row[16] = fee(f.Derived.AdminFee)
		row[17] = fee(f.Derived.PerformanceFee)
		sheet.printRow(row)
	}
	sheet.setColWidth(0, 20)
	sheet.setColWidth(1, 48)

	if err := e.saveAndCloseExcel(filename); err != nil {
		return &consolida.ExportError{Destination: filename, Err: err}
	}
	r.log.Info().Str("arquivo", filename).Msg("exportação concluída")
	return nil
}
