package main

import (
	"fmt"
	"os"

	"github.com/consolida/consolida/consolidator"
	"github.com/consolida/consolida/fetch"
	"github.com/spf13/cobra"
)

func init() {
	var force bool

	// updateCmd represents the update command
	updateCmd := &cobra.Command{
		Use:     "update",
		Aliases: []string{"get"},
		Short:   "Baixa o cadastro da CVM e atualiza o banco de dados",
		Long: `Baixa os arquivos de cadastro do site da CVM, consolida fundos,
classes e subclasses e grava o resultado junto com o histórico de
alterações.`,
		Run: func(cmd *cobra.Command, args []string) {
			log := newLogger()
			db, err := openStore(log)
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}
			defer db.Close()

			dir, err := dataDir()
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}
			sources, err := fetch.LoadSources(sourcesFile(dir))
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}

			fetcher := fetch.New(dir, fetch.WithLogger(log))
			for _, src := range sources {
				if when, err := fetcher.RemoteFreshness(src); err == nil {
					log.Info().Str("fonte", src.Name).
						Str("publicado", when.Format("2006-01-02 15:04")).
						Msg("dados disponíveis no servidor")
				}
			}

			fmt.Println("[√] Coletando dados ===========")
			c := consolidator.New(fetcher, db, log)
			sum, err := c.Run(sources, force)
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}

			fmt.Printf("[√] Consolidação %s concluída: %d fundos, %d classes, %d alterações\n",
				sum.RunID, sum.Funds, sum.Classes, sum.Events)
		},
	}

	updateCmd.Flags().BoolVarP(&force, "force", "f", false, "Ignora o cache e baixa os arquivos novamente")

	rootCmd.AddCommand(updateCmd)
}
