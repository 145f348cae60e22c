package main

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "consolida",
	Short: "Consolida o cadastro de fundos da CVM e acompanha suas alterações",
	Long: `Consolida baixa o cadastro de fundos de investimento da CVM
(registro de fundos, classes e subclasses), unifica tudo em um registro
por fundo e registra as alterações entre uma consolidação e a seguinte.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("[x]", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("dir", "d", "", "Diretório dos dados e do banco (padrão: ~/.consolida)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Mostra mensagens de depuração")
	_ = viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
}

// initConfig reads ~/.consolida.yml when present; flags win over the file.
func initConfig() {
	home, err := homedir.Dir()
	if err != nil {
		fmt.Println("[x]", err)
		os.Exit(1)
	}

	viper.SetConfigName(".consolida")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(home)
	viper.SetDefault("dir", home+"/.consolida")
	_ = viper.ReadInConfig()
}
