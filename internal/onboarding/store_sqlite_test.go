package onboarding

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the onboarding schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE devices (
			device_id        TEXT PRIMARY KEY,
			hardware_id      TEXT NOT NULL,
			tenant_id        TEXT NOT NULL,
			ip_address       TEXT NOT NULL,
			os               TEXT NOT NULL,
			arch             TEXT NOT NULL,
			mac              TEXT NOT NULL,
			status           TEXT NOT NULL DEFAULT 'pending',
			channel_address  TEXT,
			registered_at    TEXT NOT NULL,
			updated_at       TEXT NOT NULL,
			approved_at      TEXT,
			rejected_at      TEXT,
			rejection_reason TEXT,
			UNIQUE (tenant_id, hardware_id)
		) STRICT;
		CREATE INDEX idx_devices_status ON devices(status);
		CREATE TABLE registration_logs (
			log_id      TEXT PRIMARY KEY,
			hardware_id TEXT NOT NULL,
			tenant_id   TEXT NOT NULL,
			action      TEXT NOT NULL,
			ip_address  TEXT NOT NULL,
			timestamp   TEXT NOT NULL,
			details     TEXT
		) STRICT;
		CREATE INDEX idx_registration_logs_identity
			ON registration_logs(tenant_id, hardware_id, timestamp);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func testDevice(hardwareID, tenantID string) *Device {
	return &Device{
		DeviceID:   GenerateDeviceID(),
		HardwareID: hardwareID,
		TenantID:   tenantID,
		IPAddress:  "203.0.113.9",
		SystemInfo: SystemInfo{OS: "linux", Arch: "arm64", MAC: "aa:bb:cc:dd:ee:ff"},
		Status:     StatusPending,
	}
}

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	device := testDevice("HW-4411", "acme")
	if err := store.CreateDevice(ctx, device); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	if device.RegisteredAt.IsZero() || device.UpdatedAt.IsZero() {
		t.Error("CreateDevice() did not set timestamps")
	}

	byID, err := store.GetByID(ctx, device.DeviceID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID.HardwareID != "HW-4411" || byID.TenantID != "acme" {
		t.Errorf("GetByID() = %s/%s, want HW-4411/acme", byID.HardwareID, byID.TenantID)
	}
	if byID.SystemInfo.MAC != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("SystemInfo.MAC = %q, want %q", byID.SystemInfo.MAC, "aa:bb:cc:dd:ee:ff")
	}
	if byID.Status != StatusPending {
		t.Errorf("Status = %q, want %q", byID.Status, StatusPending)
	}
	if byID.ChannelAddress != nil || byID.ApprovedAt != nil || byID.RejectedAt != nil {
		t.Error("fresh device has non-nil decision fields")
	}

	byIdentity, err := store.GetByIdentity(ctx, "acme", "HW-4411")
	if err != nil {
		t.Fatalf("GetByIdentity() error = %v", err)
	}
	if byIdentity.DeviceID != device.DeviceID {
		t.Errorf("GetByIdentity() device_id = %q, want %q", byIdentity.DeviceID, device.DeviceID)
	}
}

func TestSQLiteStore_CreateDuplicateIdentity(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	if err := store.CreateDevice(ctx, testDevice("HW-4411", "acme")); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}

	// Same identity, different device ID: the unique constraint decides.
	err := store.CreateDevice(ctx, testDevice("HW-4411", "acme"))
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("duplicate CreateDevice() error = %v, want ErrAlreadyRegistered", err)
	}
}

func TestSQLiteStore_IdentityScopedByTenant(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	if err := store.CreateDevice(ctx, testDevice("HW-4411", "acme")); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	if err := store.CreateDevice(ctx, testDevice("HW-4411", "globex")); err != nil {
		t.Errorf("CreateDevice() same hardware in other tenant: error = %v", err)
	}
}

func TestSQLiteStore_GetNotFound(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	if _, err := store.GetByID(ctx, "dev-missing"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID() error = %v, want ErrDeviceNotFound", err)
	}
	if _, err := store.GetByIdentity(ctx, "acme", "ghost"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByIdentity() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteStore_UpdateStatus(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	device := testDevice("HW-4411", "acme")
	if err := store.CreateDevice(ctx, device); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}

	address := "channel.device_HW-4411_acme"
	now := time.Now().UTC()
	update := StatusUpdate{
		Status:         StatusApproved,
		ChannelAddress: &address,
		ApprovedAt:     &now,
	}
	if err := store.UpdateStatus(ctx, device.DeviceID, StatusPending, update); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	stored, err := store.GetByID(ctx, device.DeviceID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != StatusApproved {
		t.Errorf("Status = %q, want %q", stored.Status, StatusApproved)
	}
	if stored.ChannelAddress == nil || *stored.ChannelAddress != address {
		t.Error("channel address not persisted")
	}
	if stored.ApprovedAt == nil {
		t.Error("approved_at not persisted")
	}
}

func TestSQLiteStore_UpdateStatusConflict(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	device := testDevice("HW-4411", "acme")
	if err := store.CreateDevice(ctx, device); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}

	reason := "failed intake review"
	now := time.Now().UTC()
	reject := StatusUpdate{Status: StatusRejected, RejectedAt: &now, RejectionReason: &reason}
	if err := store.UpdateStatus(ctx, device.DeviceID, StatusPending, reject); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	// Second decision finds the status predicate no longer satisfied.
	address := "channel.device_HW-4411_acme"
	approve := StatusUpdate{Status: StatusApproved, ChannelAddress: &address, ApprovedAt: &now}
	err := store.UpdateStatus(ctx, device.DeviceID, StatusPending, approve)
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("UpdateStatus() error = %v, want ErrStatusConflict", err)
	}

	// The first decision must be intact.
	stored, err := store.GetByID(ctx, device.DeviceID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != StatusRejected {
		t.Errorf("Status = %q, want %q", stored.Status, StatusRejected)
	}
	if stored.RejectionReason == nil || *stored.RejectionReason != reason {
		t.Error("rejection reason lost after conflicting update")
	}
}

func TestSQLiteStore_UpdateStatusNotFound(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))

	err := store.UpdateStatus(context.Background(), "dev-missing", StatusPending, StatusUpdate{Status: StatusApproved})
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("UpdateStatus() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteStore_ListByStatus(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	oldest := testDevice("HW-0001", "acme")
	oldest.RegisteredAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	newest := testDevice("HW-0002", "acme")
	newest.RegisteredAt = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	decided := testDevice("HW-0003", "acme")

	for _, d := range []*Device{newest, oldest, decided} {
		if err := store.CreateDevice(ctx, d); err != nil {
			t.Fatalf("CreateDevice() error = %v", err)
		}
	}

	reason := "failed intake review"
	now := time.Now().UTC()
	update := StatusUpdate{Status: StatusRejected, RejectedAt: &now, RejectionReason: &reason}
	if err := store.UpdateStatus(ctx, decided.DeviceID, StatusPending, update); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	pending, err := store.ListByStatus(ctx, StatusPending)
	if err != nil {
		t.Fatalf("ListByStatus() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("ListByStatus() returned %d devices, want 2", len(pending))
	}
	if pending[0].HardwareID != "HW-0001" || pending[1].HardwareID != "HW-0002" {
		t.Errorf("ListByStatus() order = %s, %s; want oldest first", pending[0].HardwareID, pending[1].HardwareID)
	}
}

func TestSQLiteStore_Logs(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []RegistrationLog{
		{HardwareID: "HW-4411", TenantID: "acme", Action: ActionRegister, IPAddress: "203.0.113.9", Timestamp: base},
		{HardwareID: "HW-4411", TenantID: "acme", Action: ActionStatusCheck, IPAddress: "203.0.113.9", Timestamp: base.Add(time.Minute)},
		{HardwareID: "HW-4411", TenantID: "acme", Action: ActionApprove, IPAddress: "203.0.113.9", Timestamp: base.Add(2 * time.Minute),
			Details: map[string]any{"channel_address": "channel.device_HW-4411_acme"}},
		{HardwareID: "HW-9999", TenantID: "acme", Action: ActionRegister, IPAddress: "198.51.100.1", Timestamp: base},
	}
	for i := range entries {
		if err := store.AppendLog(ctx, &entries[i]); err != nil {
			t.Fatalf("AppendLog() error = %v", err)
		}
		if entries[i].LogID == "" {
			t.Fatal("AppendLog() did not generate a log ID")
		}
	}

	logs, err := store.ListLogsByIdentity(ctx, "acme", "HW-4411")
	if err != nil {
		t.Fatalf("ListLogsByIdentity() error = %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("ListLogsByIdentity() returned %d entries, want 3", len(logs))
	}
	if logs[0].Action != ActionApprove || logs[2].Action != ActionRegister {
		t.Errorf("logs not newest first: got %s ... %s", logs[0].Action, logs[2].Action)
	}
	if got, ok := logs[0].Details["channel_address"].(string); !ok || got == "" {
		t.Error("approve log details not round-tripped")
	}

	empty, err := store.ListLogsByIdentity(ctx, "acme", "ghost")
	if err != nil {
		t.Fatalf("ListLogsByIdentity() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown identity returned %d entries, want 0", len(empty))
	}
}
