package httpipfs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/docanchor/docanchor/contentstore"
	"github.com/docanchor/docanchor/contentstore/testkit"
)

// fakeNode serves a minimal Kubo-compatible surface: /api/v0/add on the RPC
// side and /ipfs/<addr> on the gateway side, backed by one object map.
type fakeNode struct {
	mu      sync.Mutex
	objects map[contentstore.Address][]byte
}

func newFakeNode() *fakeNode {
	return &fakeNode{objects: make(map[contentstore.Address][]byte)}
}

func (n *fakeNode) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/add", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Query().Get("pin") != "true" {
			t.Errorf("add request missing pin=true, got query %q", r.URL.RawQuery)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		addr, err := contentstore.AddressFor(data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		n.mu.Lock()
		n.objects[addr] = data
		n.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"Hash": addr.String()})
	})
	mux.HandleFunc("/ipfs/", func(w http.ResponseWriter, r *http.Request) {
		addr := contentstore.Address(r.URL.Path[len("/ipfs/"):])
		n.mu.Lock()
		data, ok := n.objects[addr]
		n.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	})
	return mux
}

func TestClientConformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) contentstore.Store {
		srv := httptest.NewServer(newFakeNode().handler(t))
		t.Cleanup(srv.Close)
		c, err := New(Options{RPCBase: srv.URL})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return c
	})
}

func TestPutStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"ServerErrorIsUnavailable", http.StatusInternalServerError, contentstore.ErrUnavailable},
		{"BadGatewayIsUnavailable", http.StatusBadGateway, contentstore.ErrUnavailable},
		{"ClientErrorIsRejected", http.StatusBadRequest, contentstore.ErrRejected},
		{"TooLargeIsRejected", http.StatusRequestEntityTooLarge, contentstore.ErrRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer srv.Close()
			c, err := New(Options{RPCBase: srv.URL})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			_, err = c.Put(context.Background(), []byte("payload"))
			if !errors.Is(err, tc.want) {
				t.Fatalf("Put with status %d: got %v, want %v", tc.status, err, tc.want)
			}
		})
	}
}

func TestPutTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // refuse all connections

	c, err := New(Options{RPCBase: srv.URL})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, err = c.Put(context.Background(), []byte("payload"))
	if !errors.Is(err, contentstore.ErrUnavailable) {
		t.Fatalf("Put against closed server: got %v, want ErrUnavailable", err)
	}
	if !contentstore.IsRetryable(err) {
		t.Fatalf("transport failure not reported retryable")
	}
}

func TestPutRejectsMismatchedAddress(t *testing.T) {
	// The node replies with a verifiable (raw sha2-256) address that does not
	// match the uploaded bytes.
	wrong, err := contentstore.AddressFor([]byte("entirely different bytes"))
	if err != nil {
		t.Fatalf("AddressFor failed: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"Hash": wrong.String()})
	}))
	defer srv.Close()

	c, err := New(Options{RPCBase: srv.URL})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, err = c.Put(context.Background(), []byte("payload"))
	if !errors.Is(err, contentstore.ErrAddressMismatch) {
		t.Fatalf("Put with lying node: got %v, want ErrAddressMismatch", err)
	}
}

func TestCidResponseField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		addr, _ := contentstore.AddressFor(data)
		_ = json.NewEncoder(w).Encode(map[string]string{"cid": addr.String()})
	}))
	defer srv.Close()

	c, err := New(Options{RPCBase: srv.URL})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	data := []byte("gateway that answers with a cid field")
	addr, err := c.Put(context.Background(), data)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	want, _ := contentstore.AddressFor(data)
	if addr != want {
		t.Fatalf("Put address = %s, want %s", addr, want)
	}
}
