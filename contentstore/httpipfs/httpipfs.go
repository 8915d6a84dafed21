// Package httpipfs implements contentstore.Store against a Kubo-compatible
// IPFS node: writes go through the RPC API's add endpoint with pinning, reads
// go through the public gateway.
//
// This is an adapter package. The core pipeline remains storage-provider
// agnostic; any external store can integrate by implementing
// contentstore.Store.
//
// Warning: this adapter is not authoritative. Transport reachability is not
// validity; where the returned address is verifiable against the plain bytes
// it is checked, otherwise the node's chunker owns the address form.
package httpipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/docanchor/docanchor/contentstore"
)

type Options struct {
	// RPCBase is the RPC API base URL, e.g. "http://127.0.0.1:5001".
	RPCBase string
	// GatewayBase is the public read base URL, e.g. "https://ipfs.io".
	// If empty, reads and existence checks are answered via the RPC base.
	GatewayBase string
	// HTTPClient overrides http.DefaultClient when non-nil.
	HTTPClient *http.Client
	// Timeout applies per request when non-zero.
	Timeout time.Duration
}

type Client struct {
	rpcBase     string
	gatewayBase string
	http        *http.Client
	timeout     time.Duration
}

func New(opts Options) (*Client, error) {
	if opts.RPCBase == "" {
		return nil, errors.New("httpipfs: RPC base URL is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	gw := opts.GatewayBase
	if gw == "" {
		gw = opts.RPCBase
	}
	return &Client{
		rpcBase:     strings.TrimRight(opts.RPCBase, "/"),
		gatewayBase: strings.TrimRight(gw, "/"),
		http:        hc,
		timeout:     opts.Timeout,
	}, nil
}

var _ contentstore.Store = (*Client)(nil)

// addResponse covers both response shapes seen in the wild: stock Kubo
// returns "Hash", some pinning gateways return "Cid".
type addResponse struct {
	Cid  string `json:"cid"`
	Hash string `json:"Hash"`
}

func (c *Client) Put(ctx context.Context, data []byte) (contentstore.Address, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", "blob")
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcBase+"/api/v0/add?pin=true", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contentstore.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return "", err
	}

	var out addResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("httpipfs: unexpected add response: %w", err)
	}
	s := out.Cid
	if s == "" {
		s = out.Hash
	}
	addr, err := contentstore.ParseAddress(s)
	if err != nil {
		return "", fmt.Errorf("httpipfs: add returned no usable address: %w", err)
	}
	if addr.Verifiable() {
		want, err := contentstore.AddressFor(data)
		if err != nil {
			return "", err
		}
		if addr != want {
			return "", contentstore.ErrAddressMismatch
		}
	}
	return addr, nil
}

func (c *Client) Get(ctx context.Context, addr contentstore.Address) ([]byte, error) {
	if !addr.Defined() {
		return nil, contentstore.ErrInvalidAddress
	}
	ctx, cancel := c.bound(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentstore.ResolveURL(c.gatewayBase, addr), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contentstore.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, contentstore.ErrNotFound
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contentstore.ErrUnavailable, err)
	}
	if addr.Verifiable() {
		got, err := contentstore.AddressFor(b)
		if err != nil {
			return nil, err
		}
		if got != addr {
			return nil, contentstore.ErrAddressMismatch
		}
	}
	return b, nil
}

func (c *Client) Has(ctx context.Context, addr contentstore.Address) bool {
	if !addr.Defined() {
		return false
	}
	ctx, cancel := c.bound(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, contentstore.ResolveURL(c.gatewayBase, addr), nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// statusError maps an HTTP failure status to the store error taxonomy:
// 5xx is transient, everything else non-2xx is a rejection.
func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s: %s", contentstore.ErrUnavailable, resp.Status, strings.TrimSpace(string(snippet)))
	}
	return fmt.Errorf("%w: %s: %s", contentstore.ErrRejected, resp.Status, strings.TrimSpace(string(snippet)))
}
