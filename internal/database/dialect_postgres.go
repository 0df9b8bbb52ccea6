package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) Name() string {
	return "postgres"
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	// PostgreSQL uses $1, $2, etc. instead of ?
	return rewritePlaceholdersToNumbered(query)
}

func (d *PostgresDialect) SupportsLastInsertId() bool {
	// PostgreSQL doesn't support LastInsertId(), needs RETURNING clause
	return false
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// PostgreSQL has foreign keys enabled by default, no pragma needed
	return nil
}

func (d *PostgresDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied BOOLEAN NOT NULL DEFAULT TRUE,
			executed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *PostgresDialect) TableColumnsQuery() string {
	return `SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ?`
}

func (d *PostgresDialect) ChildrenTableDDL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			grade TEXT,
			birth_year INTEGER,
			birth_month INTEGER,
			enrollment_year INTEGER,
			enrollment_month INTEGER,
			notes TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, table)
}

func (d *PostgresDialect) SchemaStatements() []string {
	return []string{
		d.ChildrenTableDDL("children"),
		`CREATE TABLE IF NOT EXISTS word_lists (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS words (
			id SERIAL PRIMARY KEY,
			word_list_id INTEGER NOT NULL REFERENCES word_lists(id) ON DELETE CASCADE,
			word_text TEXT NOT NULL,
			display_order INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS fonts (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			font_family TEXT NOT NULL,
			font_type TEXT NOT NULL CHECK (font_type IN ('system', 'webfont', 'custom')),
			file_path TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS reading_records (
			id SERIAL PRIMARY KEY,
			child_id INTEGER NOT NULL REFERENCES children(id) ON DELETE CASCADE,
			word_id INTEGER NOT NULL REFERENCES words(id) ON DELETE CASCADE,
			test_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			could_read INTEGER NOT NULL,
			reading_time_seconds REAL,
			misread_as TEXT,
			notes TEXT,
			font_id INTEGER REFERENCES fonts(id) ON DELETE SET NULL
		)`,
		"CREATE INDEX IF NOT EXISTS idx_words_list_order ON words(word_list_id, display_order)",
		"CREATE INDEX IF NOT EXISTS idx_reading_records_child ON reading_records(child_id)",
		"CREATE INDEX IF NOT EXISTS idx_reading_records_word ON reading_records(word_id)",
		"CREATE INDEX IF NOT EXISTS idx_reading_records_date ON reading_records(test_date)",
	}
}

func (d *PostgresDialect) ForeignKeysOff() string {
	return ""
}

func (d *PostgresDialect) ForeignKeysOn() string {
	return ""
}
