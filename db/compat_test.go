package db

import (
	"database/sql"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

// ---------------------------------------------------------------------------
// rewritePlaceholders
// ---------------------------------------------------------------------------

func TestRewritePlaceholders_Empty(t *testing.T) {
	if got := rewritePlaceholders(""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestRewritePlaceholders_NoPlaceholders(t *testing.T) {
	in := "SELECT 1"
	if got := rewritePlaceholders(in); got != in {
		t.Errorf("got %q, want %q", got, in)
	}
}

func TestRewritePlaceholders_Single(t *testing.T) {
	got := rewritePlaceholders("SELECT * FROM videos WHERE id = ?")
	want := "SELECT * FROM videos WHERE id = $1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewritePlaceholders_Multiple(t *testing.T) {
	got := rewritePlaceholders("INSERT INTO videos (id, title, owner_id) VALUES (?, ?, ?)")
	want := "INSERT INTO videos (id, title, owner_id) VALUES ($1, $2, $3)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewritePlaceholders_QuestionInStringLiteral(t *testing.T) {
	// ? inside a quoted string must not be rewritten.
	got := rewritePlaceholders("SELECT '?' AS q FROM videos WHERE id = ?")
	want := "SELECT '?' AS q FROM videos WHERE id = $1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewritePlaceholders_EscapedQuote(t *testing.T) {
	// '' inside a string is an escaped single-quote; the ? after closing ' is a placeholder.
	got := rewritePlaceholders("SELECT 'it''s' WHERE x = ?")
	want := "SELECT 'it''s' WHERE x = $1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewritePlaceholders_MultipleStringsAndPlaceholders(t *testing.T) {
	got := rewritePlaceholders("SELECT 'a?b' WHERE c = ? AND d = ?")
	want := "SELECT 'a?b' WHERE c = $1 AND d = $2"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// Dialect helpers -- CompatDB with nil DB is safe; these methods only inspect
// d.Dialect and build SQL strings.
// ---------------------------------------------------------------------------

func sqliteDB() *CompatDB { return &CompatDB{Dialect: DialectSQLite} }
func pgDB() *CompatDB     { return &CompatDB{Dialect: DialectPostgres} }

func TestIsPostgres(t *testing.T) {
	if sqliteDB().IsPostgres() {
		t.Error("SQLite CompatDB.IsPostgres() should be false")
	}
	if !pgDB().IsPostgres() {
		t.Error("Postgres CompatDB.IsPostgres() should be true")
	}
}

func TestClose(t *testing.T) {
	raw, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	cdb := NewCompatDB(raw, DialectSQLite)
	if err := cdb.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := raw.Ping(); err == nil {
		t.Error("underlying DB still usable after Close")
	}
}

func TestNowUTC(t *testing.T) {
	if got := sqliteDB().NowUTC(); !strings.Contains(got, "strftime") {
		t.Errorf("SQLite NowUTC = %q: expected strftime", got)
	}
	if got := pgDB().NowUTC(); !strings.Contains(got, "now()") {
		t.Errorf("Postgres NowUTC = %q: expected now()", got)
	}
}
