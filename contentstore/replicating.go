package contentstore

import (
	"context"
	"fmt"
)

// NamedStore associates a Store with a stable backend name.
//
// Used for multi-backend orchestration where callers need per-backend
// reporting (e.g. which mirror returned which address).
type NamedStore struct {
	Name  string
	Store Store
}

// Replicating writes to all configured backends.
//
// Reads fall back in order. Writes go to every backend and require all
// returned addresses to match (otherwise ErrAddressMismatch is returned).
//
// Use PutAll when you need the per-backend address mapping.
type Replicating struct {
	Backends []NamedStore
}

var _ Store = Replicating{}

// PutAll writes the same bytes to all backends.
//
// It returns the canonical address (computed from the bytes) and a map of
// backend name -> returned address. If any backend returns a different
// address, ErrAddressMismatch is returned.
func (r Replicating) PutAll(ctx context.Context, data []byte) (Address, map[string]Address, error) {
	want, err := AddressFor(data)
	if err != nil {
		return "", nil, err
	}
	if !want.Defined() {
		return "", nil, ErrInvalidAddress
	}
	if len(r.Backends) == 0 {
		return "", nil, fmt.Errorf("contentstore: Replicating has no backends")
	}

	out := make(map[string]Address, len(r.Backends))
	for _, b := range r.Backends {
		if b.Store == nil {
			return "", nil, fmt.Errorf("contentstore: nil Store for backend %q", b.Name)
		}
		got, err := b.Store.Put(ctx, data)
		if err != nil {
			return "", nil, fmt.Errorf("contentstore: backend %q: %w", b.Name, err)
		}
		out[b.Name] = got
		if got != want {
			return "", out, ErrAddressMismatch
		}
	}
	return want, out, nil
}

func (r Replicating) Put(ctx context.Context, data []byte) (Address, error) {
	addr, _, err := r.PutAll(ctx, data)
	return addr, err
}

func (r Replicating) Get(ctx context.Context, addr Address) ([]byte, error) {
	for _, b := range r.Backends {
		if b.Store == nil {
			continue
		}
		out, err := b.Store.Get(ctx, addr)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (r Replicating) Has(ctx context.Context, addr Address) bool {
	for _, b := range r.Backends {
		if b.Store != nil && b.Store.Has(ctx, addr) {
			return true
		}
	}
	return false
}
