package database

import (
	"strings"
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "sqlite3" {
			t.Errorf("DriverName() = %v, want sqlite3", got)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("DSN enables foreign keys", func(t *testing.T) {
		dsn := dialect.DSN(DialectConfig{Path: "reading.db"})
		if !strings.HasPrefix(dsn, "file:reading.db?") || !strings.Contains(dsn, "_foreign_keys=on") {
			t.Errorf("DSN() = %v, want file URI with _foreign_keys=on", dsn)
		}
	})

	t.Run("DSN keeps explicit URI", func(t *testing.T) {
		in := "file::memory:?cache=shared"
		if got := dialect.DSN(DialectConfig{Path: in}); got != in {
			t.Errorf("DSN() = %v, want %v", got, in)
		}
	})

	t.Run("ForeignKeyToggles", func(t *testing.T) {
		if dialect.ForeignKeysOff() == "" || dialect.ForeignKeysOn() == "" {
			t.Error("SQLite should expose foreign key pragmas")
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "postgres" {
			t.Errorf("DriverName() = %v, want postgres", got)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("ForeignKeyToggles", func(t *testing.T) {
		if dialect.ForeignKeysOff() != "" {
			t.Error("PostgreSQL has no per-connection foreign key switch")
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "mysql" {
			t.Errorf("DriverName() = %v, want mysql", got)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for MySQL")
		}
	})

	t.Run("DSN", func(t *testing.T) {
		tests := []struct {
			in, want string
		}{
			{"u:p@tcp(db:3306)/reading", "u:p@tcp(db:3306)/reading?parseTime=true&clientFoundRows=true"},
			{"u:p@tcp(db:3306)/reading?charset=utf8mb4", "u:p@tcp(db:3306)/reading?charset=utf8mb4&parseTime=true&clientFoundRows=true"},
			{"u:p@tcp(db:3306)/reading?parseTime=false", "u:p@tcp(db:3306)/reading?parseTime=false&clientFoundRows=true"},
		}
		for _, tt := range tests {
			if got := dialect.DSN(DialectConfig{URL: tt.in}); got != tt.want {
				t.Errorf("DSN(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM children WHERE id = ?",
			expected: "SELECT * FROM children WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM children WHERE id = ?",
			expected: "SELECT * FROM children WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO words (word_list_id, word_text, display_order) VALUES (?, ?, ?)",
			expected: "INSERT INTO words (word_list_id, word_text, display_order) VALUES ($1, $2, $3)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE fonts SET is_active = ? WHERE id = ?",
			expected: "UPDATE fonts SET is_active = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSchemaStatementsOrder(t *testing.T) {
	for _, d := range []Dialect{NewSQLiteDialect(), NewPostgresDialect(), NewMySQLDialect()} {
		t.Run(d.Name(), func(t *testing.T) {
			stmts := d.SchemaStatements()
			pos := func(table string) int {
				for i, s := range stmts {
					if strings.Contains(s, "CREATE TABLE IF NOT EXISTS "+table+" ") {
						return i
					}
				}
				t.Fatalf("no CREATE TABLE for %s", table)
				return -1
			}
			if !(pos("word_lists") < pos("words") && pos("fonts") < pos("reading_records") && pos("children") < pos("reading_records")) {
				t.Error("referenced tables must be created before the tables referencing them")
			}
		})
	}
}
