// Package store persists the consolidated snapshot and its change history
// in SQLite. One logical row per fund, the flattened class rows, and the
// append-only change log live in a single database file; every run
// replaces the snapshot and appends its events in one transaction.
package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/consolida/consolida"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Store implements consolida.FundStore on SQLite.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

var _ consolida.FundStore = (*Store)(nil)

// Open opens (or creates) the database at path and prepares the schema.
// Tables stored with an older schema version are wiped and rebuilt.
func Open(path string, log zerolog.Logger) (*Store, error) {
	connStr := "file:" + path + "?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, &consolida.StoreUnavailableError{Op: "open", Err: err}
	}
	// sqlite locks the whole file on write anyway
	db.SetMaxOpenConns(1)

	if err := createAllTables(db); err != nil {
		db.Close()
		return nil, &consolida.StoreUnavailableError{Op: "open", Err: err}
	}

	return &Store{db: db, log: log}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

const fundCols = `cnpj, registration_id, name, type, status,
	manager, manager_cnpj, administrator, administrator_cnpj, custodian, auditor,
	net_worth, net_worth_date,
	anbima_classes, esg, audience, admin_fee, performance_fee, condominium,
	class_count, subclass_count`

const classCols = `registration_id, fund_registration_id, fund_cnpj, cnpj, name,
	anbima, esg, audience, condominium, custodian,
	admin_fee, performance_fee, net_worth, orphan, subclass_count`

// Fund returns the stored record or consolida.ErrNotFound.
func (s *Store) Fund(cnpj string) (*consolida.FundRecord, error) {
	row := s.db.QueryRow(`SELECT `+fundCols+` FROM funds WHERE cnpj = ?`, cnpj)
	f, err := scanFund(row)
	if err == sql.ErrNoRows {
		return nil, consolida.ErrNotFound
	}
	if err != nil {
		return nil, &consolida.StoreUnavailableError{Op: "fund", Err: err}
	}
	return &f, nil
}

// Funds returns the full snapshot ordered by CNPJ.
func (s *Store) Funds() ([]consolida.FundRecord, error) {
	return s.queryFunds(`SELECT `+fundCols+` FROM funds ORDER BY cnpj`, nil)
}

// Search applies a conjunction of filters over the snapshot.
func (s *Store) Search(f consolida.SearchFilters) ([]consolida.FundRecord, error) {
	where := []string{}
	args := []interface{}{}

	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Manager != "" {
		where = append(where, "manager LIKE ?")
		args = append(args, "%"+f.Manager+"%")
	}
	if f.Anbima != "" {
		// anbima_classes is a ;-joined list
		where = append(where, "';'||anbima_classes||';' LIKE '%;'||?||';%'")
		args = append(args, f.Anbima)
	}
	if f.Audience != consolida.AudienceUnknown {
		where = append(where, "audience = ?")
		args = append(args, f.Audience.String())
	}
	if f.MinNetWorth.Known {
		v, _ := f.MinNetWorth.Float()
		where = append(where, "net_worth IS NOT NULL AND net_worth >= ?")
		args = append(args, v)
	}

	stmt := `SELECT ` + fundCols + ` FROM funds`
	if len(where) > 0 {
		stmt += ` WHERE ` + strings.Join(where, " AND ")
	}
	stmt += ` ORDER BY cnpj`
	return s.queryFunds(stmt, args)
}

func (s *Store) queryFunds(stmt string, args []interface{}) ([]consolida.FundRecord, error) {
	rows, err := s.db.Query(stmt, args...)
	if err != nil {
		return nil, &consolida.StoreUnavailableError{Op: "funds", Err: err}
	}
	defer rows.Close()

	funds := []consolida.FundRecord{}
	for rows.Next() {
		f, err := scanFund(rows)
		if err != nil {
			return nil, &consolida.StoreUnavailableError{Op: "funds", Err: err}
		}
		funds = append(funds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, &consolida.StoreUnavailableError{Op: "funds", Err: err}
	}
	return funds, nil
}

// Classes returns the flattened class rows of the snapshot.
func (s *Store) Classes() ([]consolida.ClassRecord, error) {
	rows, err := s.db.Query(`SELECT ` + classCols + ` FROM classes ORDER BY fund_cnpj, registration_id`)
	if err != nil {
		return nil, &consolida.StoreUnavailableError{Op: "classes", Err: err}
	}
	defer rows.Close()

	classes := []consolida.ClassRecord{}
	for rows.Next() {
		var c consolida.ClassRecord
		var esg, audience, condominium string
		var adminFee, perfFee sql.NullString
		var netWorth sql.NullFloat64
		var orphan int
		err := rows.Scan(&c.RegistrationID, &c.FundRegistrationID, &c.FundCNPJ, &c.CNPJ, &c.Name,
			&c.Anbima, &esg, &audience, &condominium, &c.Custodian,
			&adminFee, &perfFee, &netWorth, &orphan, &c.SubclassCount)
		if err != nil {
			return nil, &consolida.StoreUnavailableError{Op: "classes", Err: err}
		}
		c.ESG = flagFromString(esg)
		c.Audience = audienceFromString(audience)
		c.Condominium = condominiumFromString(condominium)
		c.AdminFee = decFromNull(adminFee)
		c.PerformanceFee = decFromNull(perfFee)
		c.NetWorth = floatDec(netWorth)
		c.Orphan = orphan != 0
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &consolida.StoreUnavailableError{Op: "classes", Err: err}
	}
	return classes, nil
}

// Changes queries the history log, most recent first.
func (s *Store) Changes(q consolida.ChangeQuery) ([]consolida.ChangeEvent, error) {
	where := []string{}
	args := []interface{}{}
	if q.CNPJ != "" {
		where = append(where, "cnpj = ?")
		args = append(args, q.CNPJ)
	}
	if !q.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, q.Since.UTC().Format(time.RFC3339))
	}
	if !q.Until.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, q.Until.UTC().Format(time.RFC3339))
	}

	stmt := `SELECT cnpj, field, old_value, new_value, category, run_id, created_at FROM change_log`
	if len(where) > 0 {
		stmt += ` WHERE ` + strings.Join(where, " AND ")
	}
	stmt += ` ORDER BY id DESC`
	if q.Limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.Query(stmt, args...)
	if err != nil {
		return nil, &consolida.StoreUnavailableError{Op: "changes", Err: err}
	}
	defer rows.Close()

	events := []consolida.ChangeEvent{}
	for rows.Next() {
		var e consolida.ChangeEvent
		var category, at string
		err := rows.Scan(&e.CNPJ, &e.Field, &e.Old, &e.New, &category, &e.RunID, &at)
		if err != nil {
			return nil, &consolida.StoreUnavailableError{Op: "changes", Err: err}
		}
		e.Category = consolida.ChangeCategory(category)
		e.At, _ = time.Parse(time.RFC3339, at)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &consolida.StoreUnavailableError{Op: "changes", Err: err}
	}
	return events, nil
}

// Commit replaces the snapshot with the given one and appends the run's
// change events, all in one transaction. A failure rolls everything back
// and keeps the previous snapshot intact.
func (s *Store) Commit(funds []consolida.FundRecord, classes []consolida.ClassRecord, events []consolida.ChangeEvent) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &consolida.StoreUnavailableError{Op: "commit", Err: err}
	}

	err = s.commit(tx, funds, classes, events)
	if err != nil {
		tx.Rollback()
		return &consolida.StoreUnavailableError{Op: "commit", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &consolida.StoreUnavailableError{Op: "commit", Err: err}
	}

	s.log.Debug().Int("fundos", len(funds)).Int("classes", len(classes)).
		Int("alterações", len(events)).Msg("snapshot gravado")
	return nil
}

func (s *Store) commit(tx *sql.Tx, funds []consolida.FundRecord, classes []consolida.ClassRecord, events []consolida.ChangeEvent) error {
	for _, t := range []string{"funds", "classes"} {
		if _, err := tx.Exec("DELETE FROM " + t); err != nil {
			return errors.Wrap(err, "erro ao limpar tabela "+t)
		}
	}

	insFund, err := tx.Prepare(`INSERT INTO funds (` + fundCols + `) VALUES
		(?,?,?,?,?, ?,?,?,?,?,?, ?,?, ?,?,?,?,?,?, ?,?)`)
	if err != nil {
		return errors.Wrap(err, "erro ao preparar insert de fundos")
	}
	defer insFund.Close()
	for _, f := range funds {
		d := f.Derived
		_, err := insFund.Exec(f.CNPJ, f.RegistrationID, f.Name, string(f.Type), string(f.Status),
			f.Manager, f.ManagerCNPJ, f.Administrator, f.AdministratorCNPJ, f.Custodian, f.Auditor,
			nullFloat(f.NetWorth), f.NetWorthDate,
			strings.Join(d.AnbimaClasses, ";"), d.ESG.String(), d.Audience.String(),
			nullDec(d.AdminFee), nullDec(d.PerformanceFee), string(d.Condominium),
			d.ClassCount, d.SubclassCount)
		if err != nil {
			return errors.Wrap(err, "erro ao gravar fundo "+f.CNPJ)
		}
	}

	insClass, err := tx.Prepare(`INSERT INTO classes (` + classCols + `) VALUES
		(?,?,?,?,?, ?,?,?,?,?, ?,?,?,?,?)`)
	if err != nil {
		return errors.Wrap(err, "erro ao preparar insert de classes")
	}
	defer insClass.Close()
	for _, c := range classes {
		_, err := insClass.Exec(c.RegistrationID, c.FundRegistrationID, c.FundCNPJ, c.CNPJ, c.Name,
			c.Anbima, c.ESG.String(), c.Audience.String(), string(c.Condominium), c.Custodian,
			nullDec(c.AdminFee), nullDec(c.PerformanceFee), nullFloat(c.NetWorth),
			boolInt(c.Orphan), c.SubclassCount)
		if err != nil {
			return errors.Wrap(err, "erro ao gravar classe "+c.RegistrationID)
		}
	}

	insEvent, err := tx.Prepare(`INSERT INTO change_log
		(cnpj, field, old_value, new_value, category, run_id, created_at)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return errors.Wrap(err, "erro ao preparar insert do histórico")
	}
	defer insEvent.Close()
	for _, e := range events {
		_, err := insEvent.Exec(e.CNPJ, e.Field, e.Old, e.New, string(e.Category),
			e.RunID, e.At.UTC().Format(time.RFC3339))
		if err != nil {
			return errors.Wrap(err, "erro ao gravar alteração de "+e.CNPJ)
		}
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFund(row scanner) (consolida.FundRecord, error) {
	var f consolida.FundRecord
	var typ, status, anbima, esg, audience, condominium string
	var adminFee, perfFee sql.NullString
	var netWorth sql.NullFloat64

	err := row.Scan(&f.CNPJ, &f.RegistrationID, &f.Name, &typ, &status,
		&f.Manager, &f.ManagerCNPJ, &f.Administrator, &f.AdministratorCNPJ, &f.Custodian, &f.Auditor,
		&netWorth, &f.NetWorthDate,
		&anbima, &esg, &audience, &adminFee, &perfFee, &condominium,
		&f.Derived.ClassCount, &f.Derived.SubclassCount)
	if err != nil {
		return f, err
	}

	f.Type = consolida.FundType(typ)
	f.Status = consolida.FundStatus(status)
	f.NetWorth = floatDec(netWorth)
	if anbima != "" {
		f.Derived.AnbimaClasses = strings.Split(anbima, ";")
	}
	f.Derived.ESG = flagFromString(esg)
	f.Derived.Audience = audienceFromString(audience)
	f.Derived.AdminFee = decFromNull(adminFee)
	f.Derived.PerformanceFee = decFromNull(perfFee)
	f.Derived.Condominium = condominiumFromString(condominium)
	return f, nil
}

func nullDec(d consolida.Dec) sql.NullString {
	if !d.Known {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Value.String(), Valid: true}
}

func decFromNull(ns sql.NullString) consolida.Dec {
	if !ns.Valid {
		return consolida.Dec{}
	}
	return consolida.ParseDec(ns.String)
}

func nullFloat(d consolida.Dec) sql.NullFloat64 {
	v, ok := d.Float()
	if !ok {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatDec(nf sql.NullFloat64) consolida.Dec {
	if !nf.Valid {
		return consolida.Dec{}
	}
	return consolida.DecFromFloat(nf.Float64)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func flagFromString(s string) consolida.Flag {
	switch s {
	case "yes":
		return consolida.FlagYes
	case "no":
		return consolida.FlagNo
	}
	return consolida.FlagUnknown
}

func audienceFromString(s string) consolida.Audience {
	switch s {
	case "general":
		return consolida.AudienceGeneral
	case "qualified":
		return consolida.AudienceQualified
	case "professional":
		return consolida.AudienceProfessional
	}
	return consolida.AudienceUnknown
}

func condominiumFromString(s string) consolida.Condominium {
	switch s {
	case "open":
		return consolida.CondominiumOpen
	case "closed":
		return consolida.CondominiumClosed
	}
	return consolida.CondominiumUnknown
}
