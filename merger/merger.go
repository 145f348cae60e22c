// Package merger consolidates the three-level fund/class/subclass registry
// into one record per fund, deriving fund-level attributes from the owned
// classes. The merge is deterministic and idempotent: the same inputs, in
// any order, produce the same output.
package merger

import (
	"sort"

	"github.com/consolida/consolida"
	"github.com/rs/zerolog"
)

// Policy picks the representative class of a fund, the one whose fees and
// condominium form describe the fund as a whole. It receives at least one
// class.
type Policy func(classes []consolida.ClassRecord) consolida.ClassRecord

// LargestNetWorth is the default policy: the class with the largest known
// net worth represents the fund. Ties, and funds where no class publishes
// a net worth, fall back to the lexicographically smallest class CNPJ so
// that repeated merges never flip the pick.
func LargestNetWorth(classes []consolida.ClassRecord) consolida.ClassRecord {
	best := classes[0]
	for _, c := range classes[1:] {
		if decLess(best.NetWorth, c.NetWorth) {
			best = c
			continue
		}
		if c.NetWorth.Equal(best.NetWorth) && classKey(c) < classKey(best) {
			best = c
		}
	}
	return best
}

// decLess orders unknown below every known value.
func decLess(a, b consolida.Dec) bool {
	if !a.Known {
		return b.Known
	}
	if !b.Known {
		return false
	}
	return a.Value.LessThan(b.Value)
}

func classKey(c consolida.ClassRecord) string {
	if c.CNPJ != "" {
		return c.CNPJ
	}
	return c.RegistrationID
}

// Merger joins the registry tables and computes derived attributes.
type Merger struct {
	policy Policy
	log    zerolog.Logger
}

// Option configures a Merger.
type Option func(*Merger)

// WithPolicy overrides the representative-class policy.
func WithPolicy(p Policy) Option {
	return func(m *Merger) { m.policy = p }
}

// WithLogger sets the logger used to report referential gaps.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Merger) { m.log = log }
}

// New returns a Merger with the LargestNetWorth policy.
func New(opts ...Option) *Merger {
	m := &Merger{policy: LargestNetWorth, log: zerolog.Nop()}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Merge consolidates the parsed tables into the snapshot: one record per
// fund CNPJ plus the flattened class rows. Classes and subclasses whose
// parent key is missing are flagged and kept, never dropped silently. The
// legacy flat registration only backfills identity fields the three-table
// registry does not carry; it never feeds derived attributes.
func (m *Merger) Merge(
	funds []consolida.FundRecord,
	classes []consolida.ClassRecord,
	subs []consolida.SubclassRecord,
	legacy []consolida.LegacyRecord,
) ([]consolida.FundRecord, []consolida.ClassRecord, error) {

	// Subclass counts per owning class.
	subCount := make(map[string]int)
	classByID := make(map[string]bool, len(classes))
	for _, c := range classes {
		classByID[c.RegistrationID] = true
	}
	for _, s := range subs {
		if !classByID[s.ClassRegistrationID] {
			gap := &consolida.ReferentialGapError{
				Table: "registro_subclasse", Key: s.RegistrationID, Parent: s.ClassRegistrationID,
			}
			m.log.Warn().Msg(gap.Error())
			continue
		}
		subCount[s.ClassRegistrationID]++
	}

	fundByID := make(map[string]*consolida.FundRecord, len(funds))
	byCNPJ := make(map[string]*consolida.FundRecord, len(funds))
	out := make([]consolida.FundRecord, 0, len(funds))
	for _, f := range funds {
		if prev, ok := byCNPJ[f.CNPJ]; ok {
			m.log.Warn().Str("cnpj", f.CNPJ).
				Str("kept", prev.RegistrationID).Str("dropped", f.RegistrationID).
				Msg("CNPJ duplicado no registro de fundos")
			continue
		}
		out = append(out, f)
		p := &out[len(out)-1]
		byCNPJ[f.CNPJ] = p
		fundByID[f.RegistrationID] = p
	}

	// Annotate classes with their fund and group them.
	owned := make(map[string][]consolida.ClassRecord)
	outClasses := make([]consolida.ClassRecord, 0, len(classes))
	for _, c := range classes {
		c.SubclassCount = subCount[c.RegistrationID]
		f, ok := fundByID[c.FundRegistrationID]
		if !ok {
			c.Orphan = true
			gap := &consolida.ReferentialGapError{
				Table: "registro_classe", Key: c.RegistrationID, Parent: c.FundRegistrationID,
			}
			m.log.Warn().Msg(gap.Error())
		} else {
			c.FundCNPJ = f.CNPJ
			owned[f.RegistrationID] = append(owned[f.RegistrationID], c)
		}
		outClasses = append(outClasses, c)
	}

	for i := range out {
		out[i].Derived = m.derive(owned[out[i].RegistrationID])
	}

	m.backfill(byCNPJ, legacy)

	sort.Slice(out, func(i, j int) bool { return out[i].CNPJ < out[j].CNPJ })
	sort.Slice(outClasses, func(i, j int) bool {
		a, b := outClasses[i], outClasses[j]
		if a.FundCNPJ != b.FundCNPJ {
			return a.FundCNPJ < b.FundCNPJ
		}
		return a.RegistrationID < b.RegistrationID
	})
	return out, outClasses, nil
}

// derive computes the fund-level attributes from the owned classes. A fund
// with no classes keeps every derived attribute unknown.
func (m *Merger) derive(classes []consolida.ClassRecord) consolida.Derived {
	d := consolida.Derived{ClassCount: len(classes), Condominium: consolida.CondominiumUnknown}
	if len(classes) == 0 {
		return d
	}

	var anbima []string
	for _, c := range classes {
		anbima = append(anbima, c.Anbima)
		d.SubclassCount += c.SubclassCount

		switch c.ESG {
		case consolida.FlagYes:
			d.ESG = consolida.FlagYes
		case consolida.FlagNo:
			if d.ESG == consolida.FlagUnknown {
				d.ESG = consolida.FlagNo
			}
		}
		if c.Audience > d.Audience {
			d.Audience = c.Audience
		}
	}
	d.AnbimaClasses = consolida.SortAnbima(anbima)

	rep := m.policy(classes)
	d.AdminFee = rep.AdminFee
	d.PerformanceFee = rep.PerformanceFee
	d.Condominium = rep.Condominium
	return d
}

// backfill fills custodian, auditor and blank party names from the flat
// legacy registration. Fees, audience and the other derived attributes
// come from classes only.
func (m *Merger) backfill(byCNPJ map[string]*consolida.FundRecord, legacy []consolida.LegacyRecord) {
	for _, l := range legacy {
		f, ok := byCNPJ[l.CNPJ]
		if !ok {
			continue
		}
		if f.Custodian == "" {
			f.Custodian = l.Custodian
		}
		if f.Auditor == "" {
			f.Auditor = l.Auditor
		}
		if f.Manager == "" {
			f.Manager = l.Manager
			f.ManagerCNPJ = l.ManagerCNPJ
		}
		if f.Administrator == "" {
			f.Administrator = l.Administrator
			f.AdministratorCNPJ = l.AdministratorCNPJ
		}
	}
}
