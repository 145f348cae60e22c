package main

import (
	"fmt"
	"os"

	"github.com/consolida/consolida"
	"github.com/consolida/consolida/reports"
	"github.com/spf13/cobra"
)

func init() {
	// listCmd represents the list command
	listCmd := &cobra.Command{
		Use:   "list [padrão]",
		Short: "Lista os fundos consolidados, com busca aproximada pelo nome",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			log := newLogger()
			db, err := openStore(log)
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}
			defer db.Close()

			pattern := ""
			if len(args) > 0 {
				pattern = args[0]
			}

			r := reports.New(db, log)
			funds, err := r.List(pattern)
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}

			fmt.Printf("%-20s %-50s %-10s %s\n", "CNPJ", "NOME", "TIPO", "SITUAÇÃO")
			for _, f := range funds {
				fmt.Printf("%-20s %-50.50s %-10s %s\n",
					consolida.FormatCNPJ(f.CNPJ), f.Name, f.Type, f.Status)
			}
			fmt.Printf("\n%d fundo(s)\n", len(funds))
		},
	}

	rootCmd.AddCommand(listCmd)
}
