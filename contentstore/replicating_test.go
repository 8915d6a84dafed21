package contentstore

import (
	"context"
	"errors"
	"testing"
)

// wrongAddressStore always returns a fixed, incorrect address.
type wrongAddressStore struct{ addr Address }

func (s wrongAddressStore) Put(context.Context, []byte) (Address, error) { return s.addr, nil }
func (s wrongAddressStore) Get(context.Context, Address) ([]byte, error) { return nil, ErrNotFound }
func (s wrongAddressStore) Has(context.Context, Address) bool            { return false }

func TestReplicatingPutAll(t *testing.T) {
	ctx := context.Background()
	primary := NewMemory()
	mirror := NewMemory()
	rep := Replicating{Backends: []NamedStore{
		{Name: "primary", Store: primary},
		{Name: "mirror", Store: mirror},
	}}

	data := []byte("replicated content")
	addr, perBackend, err := rep.PutAll(ctx, data)
	if err != nil {
		t.Fatalf("PutAll failed: %v", err)
	}
	want, err := AddressFor(data)
	if err != nil {
		t.Fatalf("AddressFor failed: %v", err)
	}
	if addr != want {
		t.Fatalf("PutAll address = %s, want %s", addr, want)
	}
	for _, name := range []string{"primary", "mirror"} {
		if perBackend[name] != want {
			t.Fatalf("backend %q address = %s, want %s", name, perBackend[name], want)
		}
	}
	if !primary.Has(ctx, addr) || !mirror.Has(ctx, addr) {
		t.Fatalf("PutAll did not reach all backends")
	}
}

func TestReplicatingAddressMismatch(t *testing.T) {
	ctx := context.Background()
	bogus, err := AddressFor([]byte("some other content"))
	if err != nil {
		t.Fatalf("AddressFor failed: %v", err)
	}
	rep := Replicating{Backends: []NamedStore{
		{Name: "good", Store: NewMemory()},
		{Name: "bad", Store: wrongAddressStore{addr: bogus}},
	}}

	if _, err := rep.Put(ctx, []byte("payload")); !errors.Is(err, ErrAddressMismatch) {
		t.Fatalf("Put with disagreeing backend: got %v, want ErrAddressMismatch", err)
	}
}

func TestReplicatingGetFallsBack(t *testing.T) {
	ctx := context.Background()
	empty := NewMemory()
	full := NewMemory()
	data := []byte("only on the second backend")
	addr, err := full.Put(ctx, data)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	rep := Replicating{Backends: []NamedStore{
		{Name: "empty", Store: empty},
		{Name: "full", Store: full},
	}}
	got, err := rep.Get(ctx, addr)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("Get bytes mismatch")
	}
	if !rep.Has(ctx, addr) {
		t.Fatalf("Has returned false for present address")
	}
}
