package consolida

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FundType is the CVM fund category (Tipo_Fundo).
type FundType string

const (
	TypeFI     FundType = "FI"
	TypeFII    FundType = "FII"
	TypeFIP    FundType = "FIP"
	TypeFIDC   FundType = "FIDC"
	TypeFIAGRO FundType = "FIAGRO"
	TypeFIF    FundType = "FIF"
	TypeFITVM  FundType = "FITVM"
	TypeOther  FundType = "OUTROS"
)

// FundTypeFromSource maps the raw Tipo_Fundo / TP_FUNDO value to a FundType.
// Anything unrecognized falls into TypeOther.
func FundTypeFromSource(s string) FundType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FI", "FUNDO DE INVESTIMENTO":
		return TypeFI
	case "FII":
		return TypeFII
	case "FIP":
		return TypeFIP
	case "FIDC":
		return TypeFIDC
	case "FIAGRO":
		return TypeFIAGRO
	case "FIF":
		return TypeFIF
	case "FITVM":
		return TypeFITVM
	}
	return TypeOther
}

// FundStatus is the registration situation (Situacao / SIT).
type FundStatus string

const (
	StatusUnknown        FundStatus = "unknown"
	StatusActive         FundStatus = "active"
	StatusCanceled       FundStatus = "canceled"
	StatusPreOperational FundStatus = "pre-operational"
	StatusInLiquidation  FundStatus = "in-liquidation"
	StatusUnderAnalysis  FundStatus = "under-analysis"
	StatusSpecial        FundStatus = "special-situation"
	StatusIncorporated   FundStatus = "being-incorporated"
)

// StatusFromSource maps the raw Situacao value to a FundStatus.
func StatusFromSource(s string) FundStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EM FUNCIONAMENTO NORMAL":
		return StatusActive
	case "CANCELADA", "CANCELADO":
		return StatusCanceled
	case "FASE PRÉ-OPERACIONAL", "FASE PRE-OPERACIONAL":
		return StatusPreOperational
	case "LIQUIDAÇÃO", "LIQUIDACAO", "EM LIQUIDAÇÃO", "EM LIQUIDACAO":
		return StatusInLiquidation
	case "EM ANÁLISE", "EM ANALISE":
		return StatusUnderAnalysis
	case "EM SITUAÇÃO ESPECIAL", "EM SITUACAO ESPECIAL":
		return StatusSpecial
	case "INCORPORAÇÃO", "INCORPORACAO":
		return StatusIncorporated
	}
	return StatusUnknown
}

// Audience is the target-audience tier (Publico_Alvo), ordered from least
// to most restrictive. AudienceUnknown means the source published no value,
// which is not the same as the lowest tier.
type Audience int

const (
	AudienceUnknown Audience = iota
	AudienceGeneral
	AudienceQualified
	AudienceProfessional
)

func (a Audience) String() string {
	switch a {
	case AudienceGeneral:
		return "general"
	case AudienceQualified:
		return "qualified"
	case AudienceProfessional:
		return "professional"
	}
	return "unknown"
}

// AudienceFromSource maps the raw Publico_Alvo value.
func AudienceFromSource(s string) Audience {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PÚBLICO GERAL", "PUBLICO GERAL", "PÚBLICO EM GERAL", "PUBLICO EM GERAL", "GERAL":
		return AudienceGeneral
	case "QUALIFICADO", "INVESTIDOR QUALIFICADO":
		return AudienceQualified
	case "PROFISSIONAL", "INVESTIDOR PROFISSIONAL":
		return AudienceProfessional
	}
	return AudienceUnknown
}

// Condominium is the fund form (Forma_Condominio / CONDOM).
type Condominium string

const (
	CondominiumUnknown Condominium = "unknown"
	CondominiumOpen    Condominium = "open"
	CondominiumClosed  Condominium = "closed"
)

// CondominiumFromSource maps the raw Forma_Condominio value.
func CondominiumFromSource(s string) Condominium {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ABERTO":
		return CondominiumOpen
	case "FECHADO":
		return CondominiumClosed
	}
	return CondominiumUnknown
}

// Flag is a tri-state boolean for source fields where an absent value must
// stay distinguishable from "no" (e.g. Classe_ESG).
type Flag int

const (
	FlagUnknown Flag = iota
	FlagNo
	FlagYes
)

func (f Flag) String() string {
	switch f {
	case FlagYes:
		return "yes"
	case FlagNo:
		return "no"
	}
	return "unknown"
}

// FlagFromSource maps the CVM S/N convention. Empty stays unknown.
func FlagFromSource(s string) Flag {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "S":
		return FlagYes
	case "N":
		return FlagNo
	}
	return FlagUnknown
}

// Dec is a decimal value with an explicit unknown state. The zero value is
// unknown. Fees and net worth use it so that a missing fee is never read
// as a zero fee.
type Dec struct {
	Value decimal.Decimal
	Known bool
}

// DecOf wraps a known decimal.
func DecOf(v decimal.Decimal) Dec {
	return Dec{Value: v, Known: true}
}

// DecFromFloat wraps a known float value.
func DecFromFloat(f float64) Dec {
	return DecOf(decimal.NewFromFloat(f))
}

// Equal reports value equality. Unknown equals unknown; unknown never
// equals a known value.
func (d Dec) Equal(o Dec) bool {
	if !d.Known || !o.Known {
		return d.Known == o.Known
	}
	return d.Value.Equal(o.Value)
}

func (d Dec) String() string {
	if !d.Known {
		return "unknown"
	}
	return d.Value.String()
}

// Float returns the value as float64 and whether it is known.
func (d Dec) Float() (float64, bool) {
	if !d.Known {
		return 0, false
	}
	f, _ := d.Value.Float64()
	return f, true
}

// Derived holds the fund-level attributes computed from the fund's classes.
// Populated only by the merger, never from raw source fields.
type Derived struct {
	// Distinct ANBIMA classifications across classes, sorted.
	AnbimaClasses []string
	// FlagYes if any owned class is ESG-designated.
	ESG Flag
	// Most restrictive tier among the fund's classes.
	Audience Audience
	// Representative values taken from the class picked by the merge policy.
	AdminFee       Dec
	PerformanceFee Dec
	Condominium    Condominium

	ClassCount    int
	SubclassCount int
}

// FundRecord is one row of the consolidated dataset, keyed by the fund's
// normalized 14-digit CNPJ. RegistrationID is the internal key that joins
// the fund to its classes (a fund and its classes have distinct CNPJs).
type FundRecord struct {
	CNPJ           string
	RegistrationID string
	Name           string
	Type           FundType
	Status         FundStatus

	Manager           string
	ManagerCNPJ       string
	Administrator     string
	AdministratorCNPJ string
	Custodian         string
	Auditor           string

	NetWorth     Dec
	NetWorthDate string // YYYY-MM-DD, empty when not published

	Derived Derived
}

// ClassRecord is one share class. FundCNPJ is annotated by the merger for
// the flattened export; it stays empty on orphans.
type ClassRecord struct {
	RegistrationID     string
	FundRegistrationID string
	FundCNPJ           string
	CNPJ               string
	Name               string

	Anbima      string
	ESG         Flag
	Audience    Audience
	Condominium Condominium
	Custodian   string

	AdminFee       Dec
	PerformanceFee Dec
	NetWorth       Dec

	// Orphan marks a class whose fund registration key is absent from the
	// fund table.
	Orphan bool

	SubclassCount int
}

// SubclassRecord is an investor-segment subdivision of a class. The merge
// consumes its existence only; segment attributes ride along for export.
type SubclassRecord struct {
	RegistrationID      string
	ClassRegistrationID string
	Name                string
	Audience            Audience
}

// LegacyRecord is one row of the flat pre-RCVM175 registration (cad_fi.csv).
// It carries custodian/auditor data the three-table registry does not, so
// the merger uses it to backfill those identity fields.
type LegacyRecord struct {
	CNPJ string
	Name string
	Type FundType

	Status            FundStatus
	Manager           string
	ManagerCNPJ       string
	Administrator     string
	AdministratorCNPJ string
	Custodian         string
	Auditor           string

	Anbima      string
	Audience    Audience
	Condominium Condominium

	AdminFee       Dec
	PerformanceFee Dec
	NetWorth       Dec
	NetWorthDate   string
}

// ChangeCategory classifies a ChangeEvent.
type ChangeCategory string

const (
	ChangeFee      ChangeCategory = "fee-change"
	ChangeStatus   ChangeCategory = "status-change"
	ChangeParty    ChangeCategory = "party-change"
	ChangeMetadata ChangeCategory = "metadata-change"
)

// Tracked field names, as persisted in the change log.
const (
	FieldAdminFee       = "admin_fee"
	FieldPerformanceFee = "performance_fee"
	FieldStatus         = "status"
	FieldManager        = "manager"
	FieldAdministrator  = "administrator"
	FieldCustodian      = "custodian"
)

// Old/new sentinel values used by the tracker.
const (
	ValueAbsent  = "absent"
	ValueRemoved = "removed"
)

// ChangeEvent is one field-level difference between consecutive snapshots
// for one fund. Events are append-only and never mutated.
type ChangeEvent struct {
	CNPJ     string
	Field    string
	Old      string
	New      string
	Category ChangeCategory
	RunID    string
	At       time.Time
}

// SortAnbima sorts and deduplicates an ANBIMA classification list in place,
// returning the result. Keeps derived output deterministic.
func SortAnbima(classes []string) []string {
	sort.Strings(classes)
	out := classes[:0]
	var prev string
	for i, c := range classes {
		if c == "" || (i > 0 && c == prev) {
			continue
		}
		out = append(out, c)
		prev = c
	}
	return out
}
