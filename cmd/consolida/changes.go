package main

import (
	"fmt"
	"os"
	"time"

	"github.com/consolida/consolida"
	"github.com/consolida/consolida/reports"
	"github.com/spf13/cobra"
)

func init() {
	var (
		cnpj    string
		desde   string
		ate     string
		limite  int
		csvFile string
	)

	// changesCmd represents the changes command
	changesCmd := &cobra.Command{
		Use:   "changes",
		Short: "Mostra o histórico de alterações dos fundos",
		Long: `Mostra as alterações registradas entre consolidações: mudanças de
taxa, de situação cadastral e de prestadores de serviço, além de
fundos novos e removidos.`,
		Run: func(cmd *cobra.Command, args []string) {
			log := newLogger()
			db, err := openStore(log)
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}
			defer db.Close()

			q := consolida.ChangeQuery{
				CNPJ:  consolida.NormalizeCNPJ(cnpj),
				Limit: limite,
			}
			if desde != "" {
				q.Since, err = time.Parse("2006-01-02", desde)
				if err != nil {
					fmt.Println("[x] data inválida para --desde:", desde)
					os.Exit(1)
				}
			}
			if ate != "" {
				q.Until, err = time.Parse("2006-01-02", ate)
				if err != nil {
					fmt.Println("[x] data inválida para --ate:", ate)
					os.Exit(1)
				}
			}

			r := reports.New(db, log)
			if csvFile != "" {
				if err := r.ExportChangesCSV(csvFile, q); err != nil {
					fmt.Println("[x]", err)
					os.Exit(1)
				}
				fmt.Println("[√] Arquivo salvo:", csvFile)
				return
			}

			events, err := r.Changes(q)
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}

			fmt.Printf("%-20s %-16s %-24s %-24s %s\n", "CNPJ", "CAMPO", "DE", "PARA", "DATA")
			for _, e := range events {
				fmt.Printf("%-20s %-16s %-24.24s %-24.24s %s\n",
					consolida.FormatCNPJ(e.CNPJ), e.Field, e.Old, e.New,
					e.At.Format("2006-01-02"))
			}
			fmt.Printf("\n%d alteração(ões)\n", len(events))
		},
	}

	changesCmd.Flags().StringVar(&cnpj, "cnpj", "", "Filtra pelo CNPJ do fundo")
	changesCmd.Flags().StringVar(&desde, "desde", "", "Data inicial (AAAA-MM-DD)")
	changesCmd.Flags().StringVar(&ate, "ate", "", "Data final (AAAA-MM-DD)")
	changesCmd.Flags().IntVar(&limite, "limite", 0, "Número máximo de alterações")
	changesCmd.Flags().StringVar(&csvFile, "csv", "", "Grava o resultado em CSV")

	rootCmd.AddCommand(changesCmd)
}
