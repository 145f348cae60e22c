package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/consolida/consolida/fetch"
	"github.com/spf13/cobra"
)

func init() {
	var discover bool

	// sourcesCmd represents the sources command
	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "Mostra as fontes de dados configuradas",
		Long: `Mostra as fontes de dados configuradas e, com --discover, os
arquivos que o diretório de dados abertos da CVM publica de fato.`,
		Run: func(cmd *cobra.Command, args []string) {
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

			for _, src := range sources {
				fmt.Printf("%-10s %s\n", src.Name, src.URL)
				if len(src.Members) > 0 {
					fmt.Printf("%-10s membros: %s\n", "", strings.Join(src.Members, ", "))
				}
			}

			if !discover {
				return
			}
			base := sources[0].URL[:strings.LastIndex(sources[0].URL, "/")+1]
			fmt.Println("\nPublicados em", base)
			files, err := fetch.Discover(base)
			if err != nil {
				fmt.Println("[x]", err)
				os.Exit(1)
			}
			for _, f := range files {
				fmt.Println("  ", f)
			}
		},
	}

	sourcesCmd.Flags().BoolVar(&discover, "discover", false, "Lista os arquivos publicados no servidor da CVM")

	rootCmd.AddCommand(sourcesCmd)
}
