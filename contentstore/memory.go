package contentstore

import (
	"bytes"
	"context"
	"sync"
)

// Memory is an in-memory content-addressed store.
//
// Objects are stored immutably and keyed strictly by Address. All methods are
// safe for concurrent use. Intended for tests and single-process pipelines.
type Memory struct {
	mu      sync.RWMutex
	objects map[Address][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[Address][]byte)}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Put(ctx context.Context, data []byte) (Address, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	addr, err := AddressFor(data)
	if err != nil {
		return "", err
	}
	if !addr.Defined() {
		return "", ErrInvalidAddress
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.objects[addr]; ok {
		// An address collision with different bytes is an immutability violation.
		if !bytes.Equal(existing, data) {
			return "", ErrImmutable
		}
		return addr, nil
	}
	m.objects[addr] = append([]byte(nil), data...)
	return addr, nil
}

func (m *Memory) Get(ctx context.Context, addr Address) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !addr.Defined() {
		return nil, ErrInvalidAddress
	}
	m.mu.RLock()
	b, ok := m.objects[addr]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) Has(ctx context.Context, addr Address) bool {
	if ctx.Err() != nil || !addr.Defined() {
		return false
	}
	m.mu.RLock()
	_, ok := m.objects[addr]
	m.mu.RUnlock()
	return ok
}

// Len returns the number of distinct objects stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
