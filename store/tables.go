package store

import (
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
)

// Bump when the schema changes; a mismatched table is wiped and rebuilt on
// open, forcing a fresh consolidation run.
const currentDbVersion = 260815

var createTableMap = map[string]string{
	"funds": `CREATE TABLE IF NOT EXISTS funds
	(
		cnpj varchar(14) NOT NULL PRIMARY KEY,
		registration_id TEXT,
		name varchar(200),
		type varchar(10),
		status varchar(20),

		manager varchar(200),
		manager_cnpj varchar(14),
		administrator varchar(200),
		administrator_cnpj varchar(14),
		custodian varchar(200),
		auditor varchar(200),

		net_worth real,
		net_worth_date varchar(10),

		anbima_classes TEXT,
		esg varchar(7),
		audience varchar(12),
		admin_fee TEXT,
		performance_fee TEXT,
		condominium varchar(7),
		class_count integer,
		subclass_count integer
	);`,

	"classes": `CREATE TABLE IF NOT EXISTS classes
	(
		registration_id TEXT NOT NULL PRIMARY KEY,
		fund_registration_id TEXT,
		fund_cnpj varchar(14),
		cnpj varchar(14),
		name varchar(200),

		anbima varchar(100),
		esg varchar(7),
		audience varchar(12),
		condominium varchar(7),
		custodian varchar(200),

		admin_fee TEXT,
		performance_fee TEXT,
		net_worth real,

		orphan integer,
		subclass_count integer
	);`,

	"change_log": `CREATE TABLE IF NOT EXISTS change_log
	(
		id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		cnpj varchar(14) NOT NULL,
		field varchar(20) NOT NULL,
		old_value TEXT,
		new_value TEXT,
		category varchar(20),
		run_id varchar(36),
		created_at varchar(25)
	);`,

	"status": `CREATE TABLE IF NOT EXISTS status
	(
		table_name TEXT NOT NULL PRIMARY KEY,
		version integer
	);`,
}

// Fees are TEXT on purpose: the change log compares them by exact decimal
// value, which a float column would break. Net worth stays real for the
// range filter.

func allTables() []string {
	return []string{"funds", "classes", "change_log"}
}

func createTable(db *sql.DB, table string) (err error) {
	stmt, ok := createTableMap[table]
	if !ok {
		return errors.Errorf("tabela inexistente: %s", table)
	}

	_, err = db.Exec(stmt)
	if err != nil {
		return errors.Wrap(err, "erro ao criar tabela "+table)
	}

	err = createIndexes(db, table)
	if err != nil {
		return errors.Wrap(err, "erro ao criar índice para tabela "+table)
	}

	if table == "status" {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf(`INSERT OR REPLACE INTO status (table_name, version) VALUES ("%s",%d)`, table, currentDbVersion))
	if err != nil {
		return errors.Wrap(err, "erro ao atualizar versão da tabela "+table)
	}

	return nil
}

// createAllTables builds the schema, wiping any table stored with an older
// version first.
func createAllTables(db *sql.DB) (err error) {
	if err := createTable(db, "status"); err != nil {
		return err
	}
	for _, t := range allTables() {
		if hasTable(db, t) && dbVersion(db, t) != currentDbVersion {
			if err := wipeTable(db, t); err != nil {
				return err
			}
		}
		if err := createTable(db, t); err != nil {
			return err
		}
	}
	return nil
}

func createIndexes(db *sql.DB, table string) error {
	indexes := []string{}

	switch table {
	case "classes":
		indexes = []string{
			"CREATE INDEX IF NOT EXISTS classes_fund ON classes (fund_cnpj, cnpj);",
		}
	case "change_log":
		indexes = []string{
			"CREATE INDEX IF NOT EXISTS change_log_cnpj ON change_log (cnpj, id);",
			"CREATE INDEX IF NOT EXISTS change_log_date ON change_log (created_at);",
		}
	}

	for _, idx := range indexes {
		_, err := db.Exec(idx)
		if err != nil {
			return errors.Wrap(err, "erro ao criar índice")
		}
	}

	return nil
}

// dbVersion returns the version stored for a table, or 0.
func dbVersion(db *sql.DB, table string) (v int) {
	sqlStmt := `SELECT version FROM status WHERE table_name = ?`
	_ = db.QueryRow(sqlStmt, table).Scan(&v)
	return
}

// wipeTable drops the table! Use with care.
func wipeTable(db *sql.DB, table string) (err error) {
	_, err = db.Exec("DROP TABLE IF EXISTS " + table)
	if err != nil {
		return errors.Wrap(err, "erro ao apagar tabela")
	}
	return
}

// hasTable checks if the table exists.
func hasTable(db *sql.DB, tableName string) bool {
	sqlStmt := `SELECT name FROM sqlite_master WHERE type='table' AND name=?;`
	var n string
	err := db.QueryRow(sqlStmt, tableName).Scan(&n)
	if err != nil {
		return false
	}
	return n == tableName
}
