package main

import (
	"os"
	"testing"

	"vidshare/db"
)

func TestGetEnv(t *testing.T) {
	os.Setenv("VIDSHARE_TEST_KEY", "set")
	defer os.Unsetenv("VIDSHARE_TEST_KEY")
	if got := getEnv("VIDSHARE_TEST_KEY", "fallback"); got != "set" {
		t.Errorf("getEnv = %q, want set", got)
	}
	if got := getEnv("VIDSHARE_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnv = %q, want fallback", got)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := loadConfig()
	if cfg.DBDialect != "sqlite" {
		t.Errorf("DBDialect = %q, want sqlite", cfg.DBDialect)
	}
	if cfg.StorageMarker != "/storage/" {
		t.Errorf("StorageMarker = %q", cfg.StorageMarker)
	}
	if cfg.Port == "" {
		t.Error("Port must have a default")
	}
}

func TestOpenDatabase_SQLiteAndMigrations(t *testing.T) {
	cfg := loadConfig()
	cfg.DBPath = ":memory:"

	rawDB, dialect, err := openDatabase(cfg)
	if err != nil {
		t.Fatalf("openDatabase: %v", err)
	}
	defer rawDB.Close()

	if dialect != db.DialectSQLite {
		t.Fatalf("dialect = %q, want sqlite", dialect)
	}
	if err := db.RunMigrations(rawDB, dialect); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	// Re-running is a no-op.
	if err := db.RunMigrations(rawDB, dialect); err != nil {
		t.Fatalf("second migration run: %v", err)
	}

	var n int
	if err := rawDB.QueryRow("SELECT COUNT(*) FROM videos").Scan(&n); err != nil {
		t.Fatalf("videos table missing: %v", err)
	}
}
