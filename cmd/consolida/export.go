package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/consolida/consolida/reports"
	"github.com/spf13/cobra"
)

func init() {
	var (
		formato string
		saida   string
		classes bool
	)

	// exportCmd represents the export command
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Exporta o cadastro consolidado para CSV ou planilha",
		Run: func(cmd *cobra.Command, args []string) {
			log := newLogger()
			db, err := openStore(log)
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}
			defer db.Close()

			r := reports.New(db, log)

			switch {
			case classes:
				if saida == "" {
					saida = "classes.csv"
				}
				err = r.ExportClassesCSV(saida)
			case formato == "xlsx" || filepath.Ext(saida) == ".xlsx":
				if saida == "" {
					saida = "fundos.xlsx"
				}
				err = r.ExportFundsExcel(saida)
			default:
				if saida == "" {
					saida = "fundos.csv"
				}
				err = r.ExportFundsCSV(saida)
			}
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}
			fmt.Println("[√] Arquivo salvo:", saida)
		},
	}

	exportCmd.Flags().StringVar(&formato, "formato", "csv", "Formato de saída (csv ou xlsx)")
	exportCmd.Flags().StringVarP(&saida, "saida", "o", "", "Arquivo de destino")
	exportCmd.Flags().BoolVar(&classes, "classes", false, "Exporta as classes em vez dos fundos")

	rootCmd.AddCommand(exportCmd)
}
