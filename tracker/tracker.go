// Package tracker turns consecutive snapshots into an append-only history
// of field-level changes. The diff runs entirely before the commit, so a
// failed run never leaves half a snapshot behind.
package tracker

import (
	"sort"
	"time"

	"github.com/consolida/consolida"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// trackedFields, in the order events are emitted for one fund.
var trackedFields = []string{
	consolida.FieldStatus,
	consolida.FieldManager,
	consolida.FieldAdministrator,
	consolida.FieldCustodian,
	consolida.FieldAdminFee,
	consolida.FieldPerformanceFee,
}

func categoryOf(field string) consolida.ChangeCategory {
	switch field {
	case consolida.FieldAdminFee, consolida.FieldPerformanceFee:
		return consolida.ChangeFee
	case consolida.FieldStatus:
		return consolida.ChangeStatus
	case consolida.FieldManager, consolida.FieldAdministrator, consolida.FieldCustodian:
		return consolida.ChangeParty
	}
	return consolida.ChangeMetadata
}

// value renders a tracked field for the change log. Unknown fees and blank
// names render as the absent sentinel so that "was never published" reads
// the same on new funds and on later transitions.
func value(f consolida.FundRecord, field string) string {
	switch field {
	case consolida.FieldStatus:
		return string(f.Status)
	case consolida.FieldManager:
		return orAbsent(f.Manager)
	case consolida.FieldAdministrator:
		return orAbsent(f.Administrator)
	case consolida.FieldCustodian:
		return orAbsent(f.Custodian)
	case consolida.FieldAdminFee:
		return decValue(f.Derived.AdminFee)
	case consolida.FieldPerformanceFee:
		return decValue(f.Derived.PerformanceFee)
	}
	return ""
}

func orAbsent(s string) string {
	if s == "" {
		return consolida.ValueAbsent
	}
	return s
}

func decValue(d consolida.Dec) string {
	if !d.Known {
		return consolida.ValueAbsent
	}
	return d.Value.String()
}

// populated reports whether a tracked field carries a real value, i.e.
// whether a brand-new fund should log it at all.
func populated(f consolida.FundRecord, field string) bool {
	switch field {
	case consolida.FieldStatus:
		return f.Status != consolida.StatusUnknown
	case consolida.FieldAdminFee:
		return f.Derived.AdminFee.Known
	case consolida.FieldPerformanceFee:
		return f.Derived.PerformanceFee.Known
	}
	return value(f, field) != consolida.ValueAbsent
}

// equal compares one tracked field between two snapshots of a fund. Fees
// compare by exact decimal value; unknown against unknown is no change.
func equal(old, curr consolida.FundRecord, field string) bool {
	switch field {
	case consolida.FieldAdminFee:
		return old.Derived.AdminFee.Equal(curr.Derived.AdminFee)
	case consolida.FieldPerformanceFee:
		return old.Derived.PerformanceFee.Equal(curr.Derived.PerformanceFee)
	}
	return value(old, field) == value(curr, field)
}

// Diff computes the change events between the stored snapshot and the
// incoming one. Identical snapshots produce no events. A fund absent from
// the incoming snapshot yields a single status event with the removed
// sentinel; its stored record is what disappears on commit.
func Diff(old map[string]consolida.FundRecord, curr []consolida.FundRecord, runID string, at time.Time) []consolida.ChangeEvent {
	var events []consolida.ChangeEvent
	seen := make(map[string]bool, len(curr))

	for _, f := range curr {
		seen[f.CNPJ] = true
		prev, ok := old[f.CNPJ]
		for _, field := range trackedFields {
			if !ok {
				if !populated(f, field) {
					continue
				}
				events = append(events, consolida.ChangeEvent{
					CNPJ: f.CNPJ, Field: field,
					Old: consolida.ValueAbsent, New: value(f, field),
					Category: categoryOf(field), RunID: runID, At: at,
				})
				continue
			}
			if equal(prev, f, field) {
				continue
			}
			events = append(events, consolida.ChangeEvent{
				CNPJ: f.CNPJ, Field: field,
				Old: value(prev, field), New: value(f, field),
				Category: categoryOf(field), RunID: runID, At: at,
			})
		}
	}

	var removed []string
	for cnpj := range old {
		if !seen[cnpj] {
			removed = append(removed, cnpj)
		}
	}
	sort.Strings(removed)
	for _, cnpj := range removed {
		events = append(events, consolida.ChangeEvent{
			CNPJ: cnpj, Field: consolida.FieldStatus,
			Old: string(old[cnpj].Status), New: consolida.ValueRemoved,
			Category: consolida.ChangeStatus, RunID: runID, At: at,
		})
	}
	return events
}

// Summary describes one consolidation run.
type Summary struct {
	RunID   string
	Funds   int
	Classes int
	Events  int
}

// Runner executes the diff-then-commit sequence against a store.
type Runner struct {
	store consolida.FundStore
	log   zerolog.Logger
	now   func() time.Time
	runID func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the run logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithClock overrides the event timestamp source. Tests use it.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner returns a Runner over the given store.
func NewRunner(store consolida.FundStore, opts ...Option) *Runner {
	r := &Runner{
		store: store,
		log:   zerolog.Nop(),
		now:   time.Now,
		runID: uuid.NewString,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run diffs the merged snapshot against the stored one, then commits the
// new snapshot and the change events in a single store transaction.
func (r *Runner) Run(funds []consolida.FundRecord, classes []consolida.ClassRecord) (Summary, error) {
	stored, err := r.store.Funds()
	if err != nil {
		return Summary{}, err
	}
	old := make(map[string]consolida.FundRecord, len(stored))
	for _, f := range stored {
		old[f.CNPJ] = f
	}

	runID := r.runID()
	events := Diff(old, funds, runID, r.now().UTC())

	if err := r.store.Commit(funds, classes, events); err != nil {
		return Summary{}, err
	}

	s := Summary{RunID: runID, Funds: len(funds), Classes: len(classes), Events: len(events)}
	r.log.Info().Str("run", s.RunID).Int("fundos", s.Funds).
		Int("classes", s.Classes).Int("alterações", s.Events).
		Msg("consolidação gravada")
	return s, nil
}
