package database

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/webtrainer-in/ExpenseTracker/internal/config"
	"github.com/webtrainer-in/ExpenseTracker/internal/logger"
)

func init() {
	logger.Init("test")
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	if len(ups) == 0 {
		t.Fatal("expected at least one migration")
	}
	for v := range ups {
		if !downs[v] {
			t.Errorf("migration %s has no down file", v)
		}
	}
}

func TestSQLiteManagerAutoMigrates(t *testing.T) {
	cfg := &config.Config{
		DBDriver:   DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "household.db"),
	}

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("failed to open sqlite manager: %v", err)
	}
	defer func() { _ = m.Close() }()

	if err := m.RunMigrations(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	for _, table := range []string{"users", "categories", "expenses", "wallet_balances", "wallet_transactions", "reserve_wallet", "reserve_transactions", "audit_logs"} {
		if !m.DB().Migrator().HasTable(table) {
			t.Errorf("expected table %q to exist", table)
		}
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := NewManager(&config.Config{DBDriver: "mysql"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
