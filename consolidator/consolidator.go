// Package consolidator runs the full pipeline: fetch the CVM tables,
// parse them, merge the fund/class/subclass hierarchy, diff against the
// stored snapshot and commit snapshot plus change events in one go.
package consolidator

import (
	"io"

	"github.com/consolida/consolida"
	"github.com/consolida/consolida/fetch"
	"github.com/consolida/consolida/merger"
	"github.com/consolida/consolida/parsers"
	"github.com/consolida/consolida/tracker"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Table keys produced by the default sources.
const (
	TableFunds      = "registro_fundo"
	TableClasses    = "registro_classe"
	TableSubclasses = "registro_subclasse"
	TableLegacy     = "cad_fi"
)

// Consolidator wires the pipeline stages together.
type Consolidator struct {
	fetcher *fetch.Fetcher
	merger  *merger.Merger
	runner  *tracker.Runner
	log     zerolog.Logger
}

// New returns a Consolidator writing to the given store.
func New(fetcher *fetch.Fetcher, store consolida.FundStore, log zerolog.Logger) *Consolidator {
	return &Consolidator{
		fetcher: fetcher,
		merger:  merger.New(merger.WithLogger(log)),
		runner:  tracker.NewRunner(store, tracker.WithLogger(log)),
		log:     log,
	}
}

// Run downloads the sources (or reuses the cache) and consolidates them.
func (c *Consolidator) Run(sources []fetch.Source, force bool) (tracker.Summary, error) {
	snap, err := c.fetcher.Snapshot(sources, force)
	if err != nil {
		return tracker.Summary{}, err
	}

	tables := make(map[string]io.Reader)
	for key := range snap.Files {
		rc, err := snap.Open(key)
		if err != nil {
			return tracker.Summary{}, err
		}
		defer rc.Close()
		tables[key] = rc
	}

	return c.Consolidate(tables)
}

// Consolidate parses the given tables and runs merge, diff and commit.
// The fund table is mandatory; classes, subclasses and the legacy
// registration enrich the result when present.
func (c *Consolidator) Consolidate(tables map[string]io.Reader) (tracker.Summary, error) {
	r, ok := tables[TableFunds]
	if !ok {
		return tracker.Summary{}, errors.Wrap(consolida.ErrMissingTable, TableFunds)
	}
	funds, res, err := parsers.Funds(r, c.log)
	if err != nil {
		return tracker.Summary{}, err
	}
	c.logTable(TableFunds, res)

	var classes []consolida.ClassRecord
	if r, ok := tables[TableClasses]; ok {
		classes, res, err = parsers.Classes(r, c.log)
		if err != nil {
			return tracker.Summary{}, err
		}
		c.logTable(TableClasses, res)
	} else {
		c.log.Warn().Msg("tabela de classes ausente; atributos derivados ficarão desconhecidos")
	}

	var subs []consolida.SubclassRecord
	if r, ok := tables[TableSubclasses]; ok {
		subs, res, err = parsers.Subclasses(r, c.log)
		if err != nil {
			return tracker.Summary{}, err
		}
		c.logTable(TableSubclasses, res)
	}

	var legacy []consolida.LegacyRecord
	if r, ok := tables[TableLegacy]; ok {
		legacy, res, err = parsers.Legacy(r, c.log)
		if err != nil {
			return tracker.Summary{}, err
		}
		c.logTable(TableLegacy, res)
	}

	merged, mergedClasses, err := c.merger.Merge(funds, classes, subs, legacy)
	if err != nil {
		return tracker.Summary{}, err
	}

	return c.runner.Run(merged, mergedClasses)
}

func (c *Consolidator) logTable(table string, res parsers.Result) {
	c.log.Info().Str("tabela", table).Int("linhas", res.Lines).
		Int("ignoradas", res.Skipped).Msg("tabela processada")
}
