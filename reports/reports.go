// Package reports reads the consolidated snapshot back out: listing,
// searching, side-by-side comparison and file exports.
package reports

import (
	"github.com/consolida/consolida"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Reporter runs queries and exports against a snapshot store.
type Reporter struct {
	store consolida.FundStore
	log   zerolog.Logger
}

// New returns a Reporter over the given store.
func New(store consolida.FundStore, log zerolog.Logger) *Reporter {
	return &Reporter{store: store, log: log}
}

// Search applies a conjunction of filters over the snapshot.
func (r *Reporter) Search(f consolida.SearchFilters) ([]consolida.FundRecord, error) {
	return r.store.Search(f)
}

// Changes queries the change history.
func (r *Reporter) Changes(q consolida.ChangeQuery) ([]consolida.ChangeEvent, error) {
	return r.store.Changes(q)
}

// Comparison is one column of a side-by-side fund comparison. Funds absent
// from the snapshot keep Found false and a zeroed record, so the caller
// sees every requested CNPJ in the order it asked for.
type Comparison struct {
	CNPJ  string
	Found bool
	Fund  consolida.FundRecord
}

// Compare fetches the requested funds, preserving request order. Unknown
// CNPJs are marked, not dropped and not an error.
func (r *Reporter) Compare(cnpjs []string) ([]Comparison, error) {
	out := make([]Comparison, 0, len(cnpjs))
	for _, raw := range cnpjs {
		cnpj := consolida.NormalizeCNPJ(raw)
		c := Comparison{CNPJ: cnpj}
		f, err := r.store.Fund(cnpj)
		switch {
		case err == nil:
			c.Found = true
			c.Fund = *f
		case errors.Is(err, consolida.ErrNotFound):
			r.log.Warn().Str("cnpj", raw).Msg("fundo não encontrado")
		default:
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// List returns the funds whose name fuzzy-matches the pattern, sorted with
// Brazilian collation. An empty pattern lists everything.
func (r *Reporter) List(pattern string) ([]consolida.FundRecord, error) {
	funds, err := r.store.Funds()
	if err != nil {
		return nil, err
	}
	if pattern != "" {
		matched := funds[:0]
		for _, f := range funds {
			if fuzzy.MatchNormalizedFold(pattern, f.Name) {
				matched = append(matched, f)
			}
		}
		funds = matched
	}

	cl := collate.New(language.BrazilianPortuguese, collate.Loose)
	names := make([]string, len(funds))
	for i, f := range funds {
		names[i] = f.Name
	}
	byName := make(map[string][]consolida.FundRecord, len(funds))
	for _, f := range funds {
		byName[f.Name] = append(byName[f.Name], f)
	}
	cl.SortStrings(names)

	out := make([]consolida.FundRecord, 0, len(funds))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, byName[n]...)
	}
	return out, nil
}
