package database

import (
	"context"
	"embed"
	"testing"
)

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

// useTestMigrations points the package at the device_shadow fixture and
// restores the previous registration when the test finishes.
func useTestMigrations(t *testing.T) {
	t.Helper()

	prevFS, prevDir := MigrationsFS, MigrationsDir
	MigrationsFS = testMigrationsFS
	MigrationsDir = "testdata"
	t.Cleanup(func() {
		MigrationsFS, MigrationsDir = prevFS, prevDir
	})
}

func TestMigrate(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// The fixture table must exist and accept the rows the schema describes.
	if _, err := db.ExecContext(ctx,
		"INSERT INTO device_shadow (device_id, tenant_id) VALUES (?, ?)",
		"dev-1", "acme",
	); err != nil {
		t.Fatalf("inserting into migrated table: %v", err)
	}

	var status string
	if err := db.QueryRowContext(ctx,
		"SELECT status FROM device_shadow WHERE device_id = ?", "dev-1",
	).Scan(&status); err != nil {
		t.Fatalf("reading migrated table: %v", err)
	}
	if status != "pending" {
		t.Errorf("default status = %q, want %q", status, "pending")
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 1 {
		t.Errorf("applied migrations = %d, want 1", len(applied))
	}
	if len(pending) != 0 {
		t.Errorf("pending migrations = %d, want 0", len(pending))
	}
	if len(applied) == 1 && applied[0].Version != "20260315_100000" {
		t.Errorf("applied version = %q, want %q", applied[0].Version, "20260315_100000")
	}
}

func TestMigrate_Rerun(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations",
	).Scan(&count); err != nil {
		t.Fatalf("counting schema_migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("schema_migrations rows = %d, want 1 after rerun", count)
	}
}

func TestMigrateDown(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	// Table gone, bookkeeping cleared.
	if _, err := db.ExecContext(ctx, "SELECT 1 FROM device_shadow"); err == nil {
		t.Error("device_shadow still exists after rollback")
	}
	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("applied migrations = %d, want 0 after rollback", len(applied))
	}
	if len(pending) != 1 {
		t.Errorf("pending migrations = %d, want 1 after rollback", len(pending))
	}
}

func TestMigrateDown_NothingApplied(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.ensureMigrationsTable(ctx); err != nil {
		t.Fatalf("ensureMigrationsTable() error = %v", err)
	}
	if err := db.MigrateDown(ctx); err != nil {
		t.Errorf("MigrateDown() with empty history error = %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{
			name:        "up migration",
			filename:    "20260315_100000_initial_schema.up.sql",
			wantVersion: "20260315_100000",
			wantUp:      true,
			wantOK:      true,
		},
		{
			name:        "down migration",
			filename:    "20260315_100000_initial_schema.down.sql",
			wantVersion: "20260315_100000",
			wantUp:      false,
			wantOK:      true,
		},
		{
			name:     "no direction suffix",
			filename: "20260315_100000_initial_schema.sql",
			wantOK:   false,
		},
		{
			name:     "not sql",
			filename: "README.md",
			wantOK:   false,
		},
		{
			name:     "missing timestamp",
			filename: "schema.up.sql",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("parseMigrationFilename(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if isUp != tt.wantUp {
				t.Errorf("isUp = %v, want %v", isUp, tt.wantUp)
			}
		})
	}
}

func TestMigrationName(t *testing.T) {
	if got := migrationName("20260315_100000_create_device_shadow.up.sql"); got != "create_device_shadow" {
		t.Errorf("migrationName() = %q, want %q", got, "create_device_shadow")
	}
}
