package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) Name() string {
	return "sqlite"
}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

// DSN enables foreign keys and WAL through connection parameters so that every
// pooled connection enforces cascades, not only the first one.
func (d *SQLiteDialect) DSN(config DialectConfig) string {
	path := config.Path
	if strings.HasPrefix(path, "file:") || strings.Contains(path, "?") {
		return path
	}
	return "file:" + path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	// SQLite uses ? placeholders, no rewrite needed
	return query
}

func (d *SQLiteDialect) SupportsLastInsertId() bool {
	return true
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *SQLiteDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied BOOLEAN NOT NULL DEFAULT 1,
			executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *SQLiteDialect) TableColumnsQuery() string {
	return "SELECT name FROM pragma_table_info(?)"
}

func (d *SQLiteDialect) ChildrenTableDDL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			grade TEXT,
			birth_year INTEGER,
			birth_month INTEGER,
			enrollment_year INTEGER,
			enrollment_month INTEGER,
			notes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, table)
}

func (d *SQLiteDialect) SchemaStatements() []string {
	return []string{
		d.ChildrenTableDDL("children"),
		`CREATE TABLE IF NOT EXISTS word_lists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS words (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			word_list_id INTEGER NOT NULL,
			word_text TEXT NOT NULL,
			display_order INTEGER,
			FOREIGN KEY (word_list_id) REFERENCES word_lists(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS fonts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			font_family TEXT NOT NULL,
			font_type TEXT NOT NULL CHECK (font_type IN ('system', 'webfont', 'custom')),
			file_path TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS reading_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			child_id INTEGER NOT NULL,
			word_id INTEGER NOT NULL,
			test_date DATETIME DEFAULT CURRENT_TIMESTAMP,
			could_read INTEGER NOT NULL,
			reading_time_seconds REAL,
			misread_as TEXT,
			notes TEXT,
			font_id INTEGER,
			FOREIGN KEY (child_id) REFERENCES children(id) ON DELETE CASCADE,
			FOREIGN KEY (word_id) REFERENCES words(id) ON DELETE CASCADE,
			FOREIGN KEY (font_id) REFERENCES fonts(id) ON DELETE SET NULL
		)`,
		"CREATE INDEX IF NOT EXISTS idx_words_list_order ON words(word_list_id, display_order)",
		"CREATE INDEX IF NOT EXISTS idx_reading_records_child ON reading_records(child_id)",
		"CREATE INDEX IF NOT EXISTS idx_reading_records_word ON reading_records(word_id)",
		"CREATE INDEX IF NOT EXISTS idx_reading_records_date ON reading_records(test_date)",
	}
}

func (d *SQLiteDialect) ForeignKeysOff() string {
	return "PRAGMA foreign_keys = OFF"
}

func (d *SQLiteDialect) ForeignKeysOn() string {
	return "PRAGMA foreign_keys = ON"
}
