package fetch

import (
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Source declares one CVM open-data file: a zip archive with named CSV
// members, or a plain CSV. The table key of a member is its filename
// without the extension.
type Source struct {
	Name    string   `yaml:"name"`
	URL     string   `yaml:"url"`
	Members []string `yaml:"members,omitempty"`
}

// DefaultSources covers the post-RCVM175 three-table registry plus the
// flat legacy registration.
func DefaultSources() []Source {
	return []Source{
		{
			Name: "registro",
			URL:  "https://dados.cvm.gov.br/dados/FI/CAD/DADOS/registro_fundo_classe.zip",
			Members: []string{
				"registro_fundo.csv",
				"registro_classe.csv",
				"registro_subclasse.csv",
			},
		},
		{
			Name: "cad_fi",
			URL:  "https://dados.cvm.gov.br/dados/FI/CAD/DADOS/cad_fi.csv",
		},
	}
}

// LoadSources reads the source declarations from a YAML file; a missing
// file falls back to the defaults so a fresh install needs no config.
func LoadSources(yamlFile string) ([]Source, error) {
	raw, err := os.ReadFile(yamlFile)
	if os.IsNotExist(err) {
		return DefaultSources(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "erro ao ler "+yamlFile)
	}

	var s struct {
		Sources []Source `yaml:"sources"`
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(err, "erro ao interpretar "+yamlFile)
	}
	if len(s.Sources) == 0 {
		return DefaultSources(), nil
	}
	return s.Sources, nil
}
