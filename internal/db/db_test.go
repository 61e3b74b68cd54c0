package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amanex/amanex/internal/config"
	"github.com/amanex/amanex/internal/models"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}

	gdb, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	for _, model := range AllModels() {
		if !gdb.Migrator().HasTable(model) {
			t.Errorf("table for %T was not created", model)
		}
	}
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "postgres"})
	if err == nil {
		t.Fatal("unknown driver should fail")
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		User: "amanex",
		Host: "db.internal",
		Port: 3307,
		Name: "marketplace",
	})
	for _, want := range []string{"amanex@", "db.internal:3307", "/marketplace", "parseTime=true"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}
}

func TestBackupFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "amanex.db")
	if err := os.WriteFile(src, []byte("database bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	now := time.Date(2025, 8, 14, 9, 30, 0, 0, time.UTC)
	path, err := BackupFile(src, now)
	if err != nil {
		t.Fatalf("BackupFile: %v", err)
	}
	if path != src+".bak.20250814-093000" {
		t.Errorf("backup path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(data) != "database bytes" {
		t.Errorf("backup content = %q", data)
	}
}

func TestBackupFileMissingSource(t *testing.T) {
	if _, err := BackupFile(filepath.Join(t.TempDir(), "nope.db"), time.Now()); err == nil {
		t.Fatal("missing source should fail")
	}
}

func TestBackupRejectsMySQL(t *testing.T) {
	if _, err := Backup(config.DatabaseConfig{Driver: "mysql"}); err == nil {
		t.Fatal("mysql backup should be rejected")
	}
}

func TestAllModelsCoverSchema(t *testing.T) {
	all := AllModels()
	if len(all) != 5 {
		t.Fatalf("AllModels() has %d entries, want 5", len(all))
	}
	// Spot-check the sequence model is first so counters exist before use.
	if _, ok := all[0].(*models.Sequence); !ok {
		t.Errorf("AllModels()[0] = %T, want *models.Sequence", all[0])
	}
}
