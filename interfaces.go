package consolida

import "time"

// SearchFilters is a conjunction of predicates over the consolidated
// snapshot. Zero values mean "filter not set".
type SearchFilters struct {
	Status   FundStatus
	Type     FundType
	Manager  string // substring, case insensitive
	Anbima   string // matches any of the fund's derived classifications
	Audience Audience
	// MinNetWorth keeps only funds with a known net worth >= the value.
	MinNetWorth Dec
}

// ChangeQuery selects change events from the history log. Zero times mean
// unbounded; Limit <= 0 means no limit.
type ChangeQuery struct {
	CNPJ  string
	Since time.Time
	Until time.Time
	Limit int
}

// FundStore is the snapshot store: one logical row per fund keyed by CNPJ,
// class rows addressable by fund CNPJ + class CNPJ, and the append-only
// change history. Single writer, one run at a time; the caller enforces
// that discipline.
type FundStore interface {
	// Fund returns the stored record or ErrNotFound.
	Fund(cnpj string) (*FundRecord, error)
	// Funds returns the full current snapshot.
	Funds() ([]FundRecord, error)
	// Classes returns the flattened class rows of the current snapshot.
	Classes() ([]ClassRecord, error)
	// Search applies a conjunction of filters. No match is an empty slice,
	// not an error.
	Search(f SearchFilters) ([]FundRecord, error)
	// Changes queries the history log.
	Changes(q ChangeQuery) ([]ChangeEvent, error)
	// Commit atomically replaces the snapshot and appends the run's change
	// events. Called exactly once per run, after the diff is complete.
	Commit(funds []FundRecord, classes []ClassRecord, events []ChangeEvent) error
}
