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
		situacao string
		tipo     string
		gestor   string
		anbima   string
		publico  string
		plMinimo string
	)

	// searchCmd represents the search command
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Busca fundos por situação, tipo, gestor, classe ANBIMA, público e patrimônio",
		Long: `Busca fundos no cadastro consolidado. Todos os filtros informados
são aplicados em conjunto.`,
		Run: func(cmd *cobra.Command, args []string) {
			if cmd.Flags().NFlag() == 0 {
				_ = cmd.Help()
				return
			}

			log := newLogger()
			db, err := openStore(log)
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}
			defer db.Close()

			filters := consolida.SearchFilters{
				Status:  consolida.FundStatus(situacao),
				Type:    consolida.FundType(tipo),
				Manager: gestor,
				Anbima:  anbima,
			}
			switch publico {
			case "geral":
				filters.Audience = consolida.AudienceGeneral
			case "qualificado":
				filters.Audience = consolida.AudienceQualified
			case "profissional":
				filters.Audience = consolida.AudienceProfessional
			}
			if plMinimo != "" {
				filters.MinNetWorth = consolida.ParseDec(plMinimo)
				if !filters.MinNetWorth.Known {
					fmt.Println("[x] valor inválido para --pl-minimo:", plMinimo)
					os.Exit(1)
				}
			}

			r := reports.New(db, log)
			funds, err := r.Search(filters)
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}

			fmt.Printf("%-20s %-44s %-16s %s\n", "CNPJ", "NOME", "GESTOR", "PATRIMÔNIO")
			for _, f := range funds {
				fmt.Printf("%-20s %-44.44s %-16.16s %s\n",
					consolida.FormatCNPJ(f.CNPJ), f.Name, f.Manager, f.NetWorth)
			}
			fmt.Printf("\n%d fundo(s)\n", len(funds))
		},
	}

	searchCmd.Flags().StringVar(&situacao, "situacao", "", "Situação cadastral (active, canceled, in-liquidation, ...)")
	searchCmd.Flags().StringVar(&tipo, "tipo", "", "Tipo do fundo (FI, FII, FIDC, ...)")
	searchCmd.Flags().StringVar(&gestor, "gestor", "", "Parte do nome do gestor")
	searchCmd.Flags().StringVar(&anbima, "anbima", "", "Classificação ANBIMA de alguma das classes")
	searchCmd.Flags().StringVar(&publico, "publico", "", "Público-alvo (geral, qualificado, profissional)")
	searchCmd.Flags().StringVar(&plMinimo, "pl-minimo", "", "Patrimônio líquido mínimo")

	rootCmd.AddCommand(searchCmd)
}
