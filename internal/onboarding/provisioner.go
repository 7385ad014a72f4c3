package onboarding

import (
	"context"
	"sync"
)

// Provisioner creates and removes dedicated device message channels.
// The production implementation is backed by NATS JetStream.
type Provisioner interface {
	// CreateChannel provisions a durable channel under the given name and
	// returns its address. Creating an already-provisioned channel is not
	// an error: the existing channel's address is returned.
	CreateChannel(ctx context.Context, name string) (string, error)

	// DeleteChannel removes a previously provisioned channel. Deleting a
	// channel that does not exist is not an error.
	DeleteChannel(ctx context.Context, address string) error
}

// MemoryProvisioner implements Provisioner in memory. It is used in tests
// and records every create and delete for assertions. Error injection via
// CreateErr/DeleteErr simulates messaging-layer failures.
type MemoryProvisioner struct {
	mu        sync.Mutex
	channels  map[string]string // name -> address
	CreateErr error
	DeleteErr error
	Created   []string // channel names, in creation order
	Deleted   []string // channel addresses, in deletion order
}

// NewMemoryProvisioner creates an empty in-memory provisioner.
func NewMemoryProvisioner() *MemoryProvisioner {
	return &MemoryProvisioner{channels: make(map[string]string)}
}

// CreateChannel provisions an in-memory channel.
func (p *MemoryProvisioner) CreateChannel(_ context.Context, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.CreateErr != nil {
		return "", p.CreateErr
	}
	if address, exists := p.channels[name]; exists {
		return address, nil
	}
	address := "mem://" + name
	p.channels[name] = address
	p.Created = append(p.Created, name)
	return address, nil
}

// DeleteChannel removes an in-memory channel.
func (p *MemoryProvisioner) DeleteChannel(_ context.Context, address string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.DeleteErr != nil {
		return p.DeleteErr
	}
	for name, addr := range p.channels {
		if addr == address {
			delete(p.channels, name)
			break
		}
	}
	p.Deleted = append(p.Deleted, address)
	return nil
}

// Has reports whether a channel with the given name currently exists.
func (p *MemoryProvisioner) Has(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.channels[name]
	return ok
}
