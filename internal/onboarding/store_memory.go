package onboarding

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory maps. It is used in tests
// and is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]*Device
	identity map[identityKey]string // (tenant, hardware) -> device_id
	logs     []RegistrationLog
}

type identityKey struct {
	tenantID   string
	hardwareID string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*Device),
		identity: make(map[identityKey]string),
	}
}

// CreateDevice inserts a new device record.
func (s *MemoryStore) CreateDevice(_ context.Context, device *Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identityKey{tenantID: device.TenantID, hardwareID: device.HardwareID}
	if _, exists := s.identity[key]; exists {
		return ErrAlreadyRegistered
	}

	now := time.Now().UTC()
	if device.RegisteredAt.IsZero() {
		device.RegisteredAt = now
	}
	device.UpdatedAt = now

	s.byID[device.DeviceID] = device.DeepCopy()
	s.identity[key] = device.DeviceID
	return nil
}

// GetByIdentity retrieves a device by its (tenant, hardware) identity.
func (s *MemoryStore) GetByIdentity(_ context.Context, tenantID, hardwareID string) (*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.identity[identityKey{tenantID: tenantID, hardwareID: hardwareID}]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return s.byID[id].DeepCopy(), nil
}

// GetByID retrieves a device by its server-generated ID.
func (s *MemoryStore) GetByID(_ context.Context, deviceID string) (*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	device, ok := s.byID[deviceID]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return device.DeepCopy(), nil
}

// UpdateStatus applies a lifecycle transition only if the device is
// currently in the expected status.
func (s *MemoryStore) UpdateStatus(_ context.Context, deviceID string, expected Status, update StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.byID[deviceID]
	if !ok {
		return ErrDeviceNotFound
	}
	if device.Status != expected {
		return ErrStatusConflict
	}

	device.Status = update.Status
	device.ChannelAddress = update.ChannelAddress
	device.ApprovedAt = update.ApprovedAt
	device.RejectedAt = update.RejectedAt
	device.RejectionReason = update.RejectionReason
	device.UpdatedAt = time.Now().UTC()
	return nil
}

// ListByStatus retrieves all devices in the given status, oldest first.
func (s *MemoryStore) ListByStatus(_ context.Context, status Status) ([]Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := []Device{}
	for _, device := range s.byID {
		if device.Status == status {
			devices = append(devices, *device.DeepCopy())
		}
	}
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].RegisteredAt.Equal(devices[j].RegisteredAt) {
			return devices[i].DeviceID < devices[j].DeviceID
		}
		return devices[i].RegisteredAt.Before(devices[j].RegisteredAt)
	})
	return devices, nil
}

// AppendLog inserts an audit trail entry.
func (s *MemoryStore) AppendLog(_ context.Context, log *RegistrationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.LogID == "" {
		log.LogID = GenerateLogID()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	s.logs = append(s.logs, *log)
	return nil
}

// ListLogsByIdentity retrieves the audit trail for an identity, newest first.
func (s *MemoryStore) ListLogsByIdentity(_ context.Context, tenantID, hardwareID string) ([]RegistrationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := []RegistrationLog{}
	for _, log := range s.logs {
		if log.TenantID == tenantID && log.HardwareID == hardwareID {
			logs = append(logs, log)
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].Timestamp.Equal(logs[j].Timestamp) {
			return logs[i].LogID > logs[j].LogID
		}
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
	return logs, nil
}
