package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) Name() string {
	return "mysql"
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN makes sure DATETIME columns scan into time.Time and that UPDATE reports
// matched rows rather than changed rows.
func (d *MySQLDialect) DSN(config DialectConfig) string {
	dsn := config.URL
	for _, param := range []string{"parseTime=true", "clientFoundRows=true"} {
		key := param[:strings.Index(param, "=")+1]
		if strings.Contains(dsn, key) {
			continue
		}
		if strings.Contains(dsn, "?") {
			dsn += "&" + param
		} else {
			dsn += "?" + param
		}
	}
	return dsn
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (d *MySQLDialect) SupportsLastInsertId() bool {
	return true
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied BOOLEAN NOT NULL DEFAULT TRUE,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

func (d *MySQLDialect) TableColumnsQuery() string {
	return `SELECT column_name FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?`
}

func (d *MySQLDialect) ChildrenTableDDL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			grade VARCHAR(64),
			birth_year INT,
			birth_month INT,
			enrollment_year INT,
			enrollment_month INT,
			notes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		) CHARACTER SET utf8mb4
	`, table)
}

// SchemaStatements declares indexes inline; MySQL has no CREATE INDEX IF NOT EXISTS.
func (d *MySQLDialect) SchemaStatements() []string {
	return []string{
		d.ChildrenTableDDL("children"),
		`CREATE TABLE IF NOT EXISTS word_lists (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		) CHARACTER SET utf8mb4`,
		`CREATE TABLE IF NOT EXISTS words (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			word_list_id BIGINT NOT NULL,
			word_text VARCHAR(255) NOT NULL,
			display_order INT,
			INDEX idx_words_list_order (word_list_id, display_order),
			FOREIGN KEY (word_list_id) REFERENCES word_lists(id) ON DELETE CASCADE
		) CHARACTER SET utf8mb4`,
		`CREATE TABLE IF NOT EXISTS fonts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			font_family VARCHAR(255) NOT NULL,
			font_type VARCHAR(16) NOT NULL,
			file_path VARCHAR(512),
			is_active INT NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			CHECK (font_type IN ('system', 'webfont', 'custom'))
		) CHARACTER SET utf8mb4`,
		`CREATE TABLE IF NOT EXISTS reading_records (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			child_id BIGINT NOT NULL,
			word_id BIGINT NOT NULL,
			test_date DATETIME DEFAULT CURRENT_TIMESTAMP,
			could_read INT NOT NULL,
			reading_time_seconds DOUBLE,
			misread_as VARCHAR(255),
			notes TEXT,
			font_id BIGINT,
			INDEX idx_reading_records_child (child_id),
			INDEX idx_reading_records_word (word_id),
			INDEX idx_reading_records_date (test_date),
			FOREIGN KEY (child_id) REFERENCES children(id) ON DELETE CASCADE,
			FOREIGN KEY (word_id) REFERENCES words(id) ON DELETE CASCADE,
			FOREIGN KEY (font_id) REFERENCES fonts(id) ON DELETE SET NULL
		) CHARACTER SET utf8mb4`,
	}
}

func (d *MySQLDialect) ForeignKeysOff() string {
	return "SET FOREIGN_KEY_CHECKS = 0"
}

func (d *MySQLDialect) ForeignKeysOn() string {
	return "SET FOREIGN_KEY_CHECKS = 1"
}
