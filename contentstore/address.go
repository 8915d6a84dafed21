package contentstore

import (
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Address is a content address: an identifier derived deterministically from
// the bytes it names. Identical bytes always derive the identical Address.
//
// Canonical addresses produced in-process are CIDv1 using the "raw"
// multicodec and a sha2-256 multihash. External stores may hand back other
// CID forms (a chunked DAG has a dag-pb root); those still parse and resolve,
// but cannot be re-derived from the plain bytes.
type Address string

func (a Address) String() string { return string(a) }

// Defined reports whether a parses as a valid CID.
func (a Address) Defined() bool {
	if a == "" {
		return false
	}
	id, err := cid.Decode(string(a))
	return err == nil && id.Defined()
}

// Verifiable reports whether a names plain bytes directly (raw codec,
// sha2-256), i.e. whether AddressFor of the content must reproduce a.
func (a Address) Verifiable() bool {
	id, err := cid.Decode(string(a))
	if err != nil || !id.Defined() {
		return false
	}
	p := id.Prefix()
	return p.Codec == cid.Raw && p.MhType == multihash.SHA2_256
}

// AddressFor derives the canonical Address for data.
func AddressFor(data []byte) (Address, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return Address(cid.NewCidV1(cid.Raw, sum).String()), nil
}

// ParseAddress validates s and returns it as an Address.
func ParseAddress(s string) (Address, error) {
	id, err := cid.Decode(strings.TrimSpace(s))
	if err != nil || !id.Defined() {
		return "", ErrInvalidAddress
	}
	return Address(id.String()), nil
}

// ResolveURL returns the public read URL for addr under a gateway base,
// e.g. ResolveURL("https://gw.example", a) -> "https://gw.example/ipfs/<a>".
func ResolveURL(gatewayBase string, addr Address) string {
	return strings.TrimRight(gatewayBase, "/") + "/ipfs/" + string(addr)
}
