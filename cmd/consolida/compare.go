package main

import (
	"fmt"
	"os"

	"github.com/consolida/consolida"
	"github.com/consolida/consolida/reports"
	"github.com/spf13/cobra"
)

func init() {
	var (
		csvFile  string
		xlsxFile string
	)

	// compareCmd represents the compare command
	compareCmd := &cobra.Command{
		Use:   "compare [CNPJ...]",
		Short: "Compara fundos lado a lado, campo a campo",
		Long: `Compara dois ou mais fundos lado a lado. Sem argumentos, abre uma
lista navegável para escolher os fundos pelo nome. CNPJs não
encontrados aparecem marcados no resultado, na ordem pedida.`,
		Run: func(cmd *cobra.Command, args []string) {
			log := newLogger()
			db, err := openStore(log)
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}
			defer db.Close()

			r := reports.New(db, log)

			cnpjs := args
			if len(cnpjs) == 0 {
				cnpjs, err = pickTwo(r)
				if err != nil {
					fmt.Println("[x]", err)
					os.Exit(1)
				}
			}

			switch {
			case xlsxFile != "":
				err = r.ExportComparisonExcel(xlsxFile, cnpjs)
			case csvFile != "":
				err = r.ExportComparisonCSV(csvFile, cnpjs)
			default:
				err = printComparison(r, cnpjs)
			}
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}
			if xlsxFile != "" || csvFile != "" {
				fmt.Println("[√] Arquivo salvo:", xlsxFile+csvFile)
			}
		},
	}

	compareCmd.Flags().StringVar(&csvFile, "csv", "", "Grava a comparação em CSV")
	compareCmd.Flags().StringVar(&xlsxFile, "xlsx", "", "Grava a comparação em planilha")

	rootCmd.AddCommand(compareCmd)
}

// pickTwo lets the user choose two funds by name.
func pickTwo(r *reports.Reporter) ([]string, error) {
	funds, err := r.List("")
	if err != nil {
		return nil, err
	}
	if len(funds) < 2 {
		return nil, fmt.Errorf("é preciso ter ao menos dois fundos no banco; rode o update antes")
	}

	options := make([]string, len(funds))
	byOption := make(map[string]string, len(funds))
	for i, f := range funds {
		options[i] = fmt.Sprintf("%s  %s", consolida.FormatCNPJ(f.CNPJ), f.Name)
		byOption[options[i]] = f.CNPJ
	}

	first := promptUser(options, "Selecione o primeiro fundo")
	second := promptUser(options, "Selecione o segundo fundo")
	return []string{byOption[first], byOption[second]}, nil
}

func printComparison(r *reports.Reporter, cnpjs []string) error {
	comps, err := r.Compare(cnpjs)
	if err != nil {
		return err
	}

	for _, row := range reports.ComparisonRows(comps) {
		fmt.Printf("%-24s", row[0])
		for _, cell := range row[1:] {
			fmt.Printf(" %-40.40s", cell)
		}
		fmt.Println()
	}
	return nil
}
