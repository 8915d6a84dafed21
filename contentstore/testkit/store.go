// Package testkit provides a conformance suite for contentstore.Store
// implementations.
package testkit

import (
	"bytes"
	"context"
	"testing"

	"github.com/docanchor/docanchor/contentstore"
)

// NewStore constructs a fresh, empty Store instance for a test.
// The returned Store MUST be isolated from other tests.
type NewStore func(t *testing.T) contentstore.Store

// RunStoreConformance exercises the Store contract: put/get round trips,
// idempotent puts, and the content-addressing invariant (identical bytes
// derive the identical address).
func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		store := newStore(t)
		want := []byte("hello, docanchor storage")

		addr, err := store.Put(ctx, want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !addr.Defined() {
			t.Fatalf("Put returned undefined address")
		}
		if addr.Verifiable() {
			wantAddr, err := contentstore.AddressFor(want)
			if err != nil {
				t.Fatalf("AddressFor failed: %v", err)
			}
			if addr != wantAddr {
				t.Fatalf("Put address mismatch: got %s want %s", addr, wantAddr)
			}
		}

		got, err := store.Get(ctx, addr)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		store := newStore(t)
		b := []byte("same bytes")

		addr1, err := store.Put(ctx, b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		addr2, err := store.Put(ctx, b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if addr1 != addr2 {
			t.Fatalf("Put not idempotent: %s vs %s", addr1, addr2)
		}
	})

	t.Run("DistinctBytesDistinctAddresses", func(t *testing.T) {
		store := newStore(t)

		a, err := store.Put(ctx, []byte("content a"))
		if err != nil {
			t.Fatalf("Put(a) failed: %v", err)
		}
		b, err := store.Put(ctx, []byte("content b"))
		if err != nil {
			t.Fatalf("Put(b) failed: %v", err)
		}
		if a == b {
			t.Fatalf("distinct bytes produced the same address %s", a)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		store := newStore(t)
		missing, err := contentstore.AddressFor([]byte("never stored"))
		if err != nil {
			t.Fatalf("AddressFor failed: %v", err)
		}

		if store.Has(ctx, missing) {
			t.Fatalf("Has returned true for missing address")
		}
		if _, err := store.Get(ctx, missing); !contentstore.IsNotFound(err) {
			t.Fatalf("Get of missing address: got %v, want ErrNotFound", err)
		}

		stored, err := store.Put(ctx, []byte("present"))
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !store.Has(ctx, stored) {
			t.Fatalf("Has returned false for stored address")
		}
	})
}
