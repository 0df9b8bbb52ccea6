package database

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustExec(t *testing.T, db *DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func TestRunMigrationsFreshDatabase(t *testing.T) {
	db := newTestDB(t)

	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	for _, table := range []string{"children", "word_lists", "words", "fonts", "reading_records"} {
		cols, err := TableColumns(db, table)
		if err != nil {
			t.Fatalf("TableColumns(%s) error = %v", table, err)
		}
		if len(cols) == 0 {
			t.Errorf("table %s was not created", table)
		}
	}

	versions, err := db.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations() error = %v", err)
	}
	if want := []int{1, 2, 3, 4}; !reflect.DeepEqual(versions, want) {
		t.Errorf("AppliedMigrations() = %v, want %v", versions, want)
	}

	// Second run is a no-op
	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}
}

func TestRunMigrationsLegacyChildren(t *testing.T) {
	db := newTestDB(t)

	mustExec(t, db, `CREATE TABLE children (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		grade TEXT,
		birth_date TEXT,
		notes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	mustExec(t, db, `CREATE TABLE word_lists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	mustExec(t, db, `CREATE TABLE words (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		word_list_id INTEGER NOT NULL,
		word_text TEXT NOT NULL,
		display_order INTEGER,
		FOREIGN KEY (word_list_id) REFERENCES word_lists(id) ON DELETE CASCADE
	)`)
	mustExec(t, db, `CREATE TABLE reading_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		child_id INTEGER NOT NULL,
		word_id INTEGER NOT NULL,
		test_date DATETIME DEFAULT CURRENT_TIMESTAMP,
		could_read INTEGER NOT NULL,
		reading_time_seconds REAL,
		misread_as TEXT,
		notes TEXT,
		FOREIGN KEY (child_id) REFERENCES children(id) ON DELETE CASCADE,
		FOREIGN KEY (word_id) REFERENCES words(id) ON DELETE CASCADE
	)`)
	mustExec(t, db, "INSERT INTO children (id, name, grade, birth_date, notes) VALUES (7, 'Hana', '2', '2017-04-01', 'left-handed')")
	mustExec(t, db, "INSERT INTO word_lists (id, name) VALUES (1, 'basics')")
	mustExec(t, db, "INSERT INTO words (id, word_list_id, word_text, display_order) VALUES (1, 1, 'あめ', 1)")
	mustExec(t, db, "INSERT INTO reading_records (child_id, word_id, could_read) VALUES (7, 1, 1)")

	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	cols, err := TableColumns(db, "children")
	if err != nil {
		t.Fatalf("TableColumns() error = %v", err)
	}
	if cols["birth_date"] {
		t.Error("birth_date column should have been removed")
	}
	for _, c := range []string{"birth_year", "birth_month", "enrollment_year", "enrollment_month"} {
		if !cols[c] {
			t.Errorf("column %s missing after migration", c)
		}
	}

	var name, grade, notes string
	err = db.QueryRow("SELECT name, grade, notes FROM children WHERE id = 7").Scan(&name, &grade, &notes)
	if err != nil {
		t.Fatalf("legacy child lost: %v", err)
	}
	if name != "Hana" || grade != "2" || notes != "left-handed" {
		t.Errorf("child = (%q, %q, %q), want preserved values", name, grade, notes)
	}

	var records int
	if err := db.QueryRow("SELECT COUNT(*) FROM reading_records WHERE child_id = 7").Scan(&records); err != nil {
		t.Fatal(err)
	}
	if records != 1 {
		t.Errorf("reading records after rebuild = %d, want 1", records)
	}

	rrCols, err := TableColumns(db, "reading_records")
	if err != nil {
		t.Fatal(err)
	}
	if !rrCols["font_id"] {
		t.Error("reading_records.font_id should have been added")
	}

	// Foreign keys are enforced again once the rebuild is done
	mustExec(t, db, "DELETE FROM children WHERE id = 7")
	if err := db.QueryRow("SELECT COUNT(*) FROM reading_records").Scan(&records); err != nil {
		t.Fatal(err)
	}
	if records != 0 {
		t.Errorf("reading records after child delete = %d, want 0", records)
	}
}

func TestRunMigrationsStopsOnFailure(t *testing.T) {
	db := newTestDB(t)
	boom := errors.New("boom")

	migrations := []Migration{
		{Version: 1, Name: "ok", Applies: always, Up: func(tx *Tx) error {
			_, err := tx.Exec("CREATE TABLE first (id INTEGER)")
			return err
		}},
		{Version: 2, Name: "broken", Applies: always, Up: func(tx *Tx) error {
			if _, err := tx.Exec("CREATE TABLE second (id INTEGER)"); err != nil {
				return err
			}
			return boom
		}},
		{Version: 3, Name: "never", Applies: always, Up: func(tx *Tx) error {
			t.Error("migration after a failure must not run")
			return nil
		}},
	}

	err := db.runMigrations(context.Background(), migrations)
	if !errors.Is(err, boom) {
		t.Fatalf("runMigrations() error = %v, want %v", err, boom)
	}

	versions, err := db.AppliedMigrations()
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{1}; !reflect.DeepEqual(versions, want) {
		t.Errorf("AppliedMigrations() = %v, want %v", versions, want)
	}

	cols, err := TableColumns(db, "second")
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 0 {
		t.Error("failed migration should have been rolled back")
	}
}
