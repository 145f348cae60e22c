package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/consolida/consolida/store"
	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// dataDir returns the configured data directory, creating it if needed.
func dataDir() (string, error) {
	dir := viper.GetString("dir")
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	return dir, nil
}

// sourcesFile is the optional per-user source declaration.
func sourcesFile(dir string) string {
	return filepath.Join(dir, "fontes.yml")
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// openStore opens the snapshot database under the data directory.
func openStore(log zerolog.Logger) (*store.Store, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	return store.Open(filepath.Join(dir, "consolida.db"), log)
}

// promptUser presents a navigable list to be selected on CLI.
func promptUser(list []string, label string) (result string) {
	if label == "" {
		label = "Selecione o Fundo"
	}
	templates := &promptui.SelectTemplates{
		Help: `{{ "Use estas teclas para navegar:" | faint }} {{ .NextKey | faint }} ` +
			`{{ .PrevKey | faint }} {{ .PageDownKey | faint }} {{ .PageUpKey | faint }} ` +
			`{{ "e também a busca digitando o nome" | faint }}`,
	}

	prompt := promptui.Select{
		Label:             label,
		Items:             list,
		Size:              10,
		Templates:         templates,
		StartInSearchMode: true,
		Searcher: func(input string, index int) bool {
			item := strings.ToLower(list[index])
			return strings.Contains(item, strings.ToLower(input))
		},
	}

	_, result, err := prompt.Run()
	if err != nil {
		fmt.Println("[x]", err)
		os.Exit(1)
	}

	return
}
