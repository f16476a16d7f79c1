package migrations

import (
	"io/fs"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	input := `
-- header comment
CREATE TABLE a (x UInt8) ENGINE = Memory;

CREATE TABLE b (y UInt8)
ENGINE = Memory;
`
	stmts := splitStatements(input)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (x UInt8) ENGINE = Memory" {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	if err := validateNoSemicolonInStrings(`SELECT 'a''b'; SELECT 1;`); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := validateNoSemicolonInStrings(`SELECT 'a;b'`); err == nil {
		t.Error("expected error for semicolon inside string literal")
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://localhost:9000/prediction")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != "prediction" {
		t.Errorf("expected prediction, got %s", db)
	}
	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	for name, fsys := range map[string]fs.FS{"postgres": PostgresFS, "clickhouse": ClickhouseFS} {
		entries, err := fs.ReadDir(fsys, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(entries) == 0 {
			t.Errorf("no embedded %s migrations", name)
		}
	}
}

func TestEmbeddedClickhouseMigrationsSplit(t *testing.T) {
	data, err := fs.ReadFile(ClickhouseFS, "clickhouse/001_settlement_events.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if err := validateNoSemicolonInStrings(string(data)); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := len(splitStatements(string(data))); got != 1 {
		t.Errorf("expected 1 statement, got %d", got)
	}
}
