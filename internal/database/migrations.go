package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration is one forward-only schema step. Applies reports whether the
// database is in the shape the step expects; when it is not the step is
// recorded as done without running Up.
type Migration struct {
	Version int
	Name    string
	Applies func(tx *Tx) (bool, error)
	Up      func(tx *Tx) error

	// DisableForeignKeys suspends FK enforcement on the migration's
	// connection while it runs (table rebuilds on SQLite).
	DisableForeignKeys bool
}

// Migrations is the ordered list applied by RunMigrations. The children
// reshaping steps must precede the create-if-absent schema step, which would
// otherwise leave a legacy table untouched.
var Migrations = []Migration{
	{
		Version:            1,
		Name:               "children_drop_birth_date",
		Applies:            childrenHasLegacyBirthDate,
		Up:                 rebuildChildrenWithoutBirthDate,
		DisableForeignKeys: true,
	},
	{
		Version: 2,
		Name:    "children_birth_year_month",
		Applies: childrenLacksBirthYearMonth,
		Up:      addChildrenBirthYearMonth,
	},
	{
		Version: 3,
		Name:    "create_schema",
		Applies: always,
		Up:      createSchema,
	},
	{
		Version: 4,
		Name:    "reading_records_font_id",
		Applies: readingRecordsLacksFontID,
		Up:      addReadingRecordsFontID,
	},
}

// RunMigrations applies every migration in Migrations that has not been
// recorded yet.
func (db *DB) RunMigrations(ctx context.Context) error {
	return db.runMigrations(ctx, Migrations)
}

func (db *DB) runMigrations(ctx context.Context, migrations []Migration) error {
	if _, err := db.Exec(db.Dialect.CreateMigrationsTableQuery()); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		done, err := db.hasMigrationRun(m.Version)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if done {
			continue
		}

		applied, err := db.applyMigration(ctx, m)
		if err != nil {
			return fmt.Errorf("migration %04d_%s failed: %w", m.Version, m.Name, err)
		}

		if applied {
			slog.Info("migration applied", "version", m.Version, "name", m.Name)
		} else {
			slog.Debug("migration not needed", "version", m.Version, "name", m.Name)
		}
	}

	return nil
}

// applyMigration runs one migration on a pinned connection so per-connection
// settings such as SQLite's foreign_keys pragma cover the whole transaction.
func (db *DB) applyMigration(ctx context.Context, m Migration) (applied bool, err error) {
	conn, err := db.DB.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if m.DisableForeignKeys && db.Dialect.ForeignKeysOff() != "" {
		if _, err := conn.ExecContext(ctx, db.Dialect.ForeignKeysOff()); err != nil {
			return false, fmt.Errorf("failed to disable foreign keys: %w", err)
		}
		defer func() {
			if _, onErr := conn.ExecContext(ctx, db.Dialect.ForeignKeysOn()); onErr != nil && err == nil {
				err = fmt.Errorf("failed to re-enable foreign keys: %w", onErr)
			}
		}()
	}

	sqlTx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	tx := &Tx{Tx: sqlTx, dialect: db.Dialect}

	err = runTx(tx, func(tx *Tx) error {
		ok, err := m.Applies(tx)
		if err != nil {
			return fmt.Errorf("precondition: %w", err)
		}
		if ok {
			if err := m.Up(tx); err != nil {
				return err
			}
		}
		applied = ok
		_, err = tx.Exec("INSERT INTO schema_migrations (version, name, applied) VALUES (?, ?, ?)",
			m.Version, m.Name, ok)
		return err
	})
	return applied, err
}

// hasMigrationRun checks if a migration has already been recorded
func (db *DB) hasMigrationRun(version int) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AppliedMigrations returns the versions recorded in schema_migrations, in order
func (db *DB) AppliedMigrations() ([]int, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// querier is satisfied by *DB and *Tx
type querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
	GetDialect() Dialect
}

// TableColumns returns the set of column names of table. An empty set means
// the table does not exist.
func TableColumns(q querier, table string) (map[string]bool, error) {
	rows, err := q.Query(q.GetDialect().TableColumnsQuery(), table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func always(*Tx) (bool, error) { return true, nil }

func childrenHasLegacyBirthDate(tx *Tx) (bool, error) {
	cols, err := TableColumns(tx, "children")
	if err != nil {
		return false, err
	}
	return cols["birth_date"] && !cols["enrollment_year"], nil
}

// rebuildChildrenWithoutBirthDate moves children to the current shape. Legacy
// birth dates are free text and are not carried over.
func rebuildChildrenWithoutBirthDate(tx *Tx) error {
	if tx.GetDialect().Name() != "sqlite" {
		stmts := []string{
			"ALTER TABLE children DROP COLUMN birth_date",
			"ALTER TABLE children ADD COLUMN birth_year INTEGER",
			"ALTER TABLE children ADD COLUMN birth_month INTEGER",
			"ALTER TABLE children ADD COLUMN enrollment_year INTEGER",
			"ALTER TABLE children ADD COLUMN enrollment_month INTEGER",
		}
		return execAll(tx, stmts)
	}

	stmts := []string{
		"DROP TABLE IF EXISTS children_new",
		tx.GetDialect().ChildrenTableDDL("children_new"),
		`INSERT INTO children_new (id, name, grade, notes, created_at)
			SELECT id, name, grade, notes, created_at FROM children`,
		"DROP TABLE children",
		"ALTER TABLE children_new RENAME TO children",
	}
	return execAll(tx, stmts)
}

func childrenLacksBirthYearMonth(tx *Tx) (bool, error) {
	cols, err := TableColumns(tx, "children")
	if err != nil {
		return false, err
	}
	return cols["enrollment_year"] && !cols["birth_year"], nil
}

func addChildrenBirthYearMonth(tx *Tx) error {
	return execAll(tx, []string{
		"ALTER TABLE children ADD COLUMN birth_year INTEGER",
		"ALTER TABLE children ADD COLUMN birth_month INTEGER",
	})
}

func createSchema(tx *Tx) error {
	return execAll(tx, tx.GetDialect().SchemaStatements())
}

func readingRecordsLacksFontID(tx *Tx) (bool, error) {
	cols, err := TableColumns(tx, "reading_records")
	if err != nil {
		return false, err
	}
	return len(cols) > 0 && !cols["font_id"], nil
}

func addReadingRecordsFontID(tx *Tx) error {
	_, err := tx.Exec("ALTER TABLE reading_records ADD COLUMN font_id INTEGER REFERENCES fonts(id) ON DELETE SET NULL")
	return err
}

func execAll(tx *Tx, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	for i, r := range stmt {
		if r == '\n' {
			return stmt[:i]
		}
	}
	return stmt
}
