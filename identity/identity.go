// Package identity resolves the active signing identity and answers the
// authorization question "may this identity issue documents?".
package identity

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Identity is a ledger account identity in 0x-prefixed hex form.
type Identity string

func (id Identity) String() string { return string(id) }

// Equal compares two identities ignoring hex case.
func (id Identity) Equal(other Identity) bool {
	return strings.EqualFold(string(id), string(other))
}

// ErrNoIdentity is returned when no active signing identity can be resolved.
var ErrNoIdentity = errors.New("identity: no signing identity available")

// Signer resolves the active signing identity and exposes the key backing it.
type Signer interface {
	// Identity returns the active signing identity, or ErrNoIdentity.
	Identity() (Identity, error)
	// PrivateKey returns the secp256k1 key backing Identity.
	PrivateKey() (*ecdsa.PrivateKey, error)
}

// Authorizer answers whether an identity is permitted to issue documents.
//
// Contract: side-effect free. Permission is revocable, so implementations
// MUST evaluate fresh state on every call; results are never cached.
type Authorizer interface {
	IsPermitted(ctx context.Context, id Identity) (bool, error)
}

// Allowlist is a fixed-membership Authorizer for tests and development.
type Allowlist []Identity

func (a Allowlist) IsPermitted(_ context.Context, id Identity) (bool, error) {
	for _, member := range a {
		if member.Equal(id) {
			return true, nil
		}
	}
	return false, nil
}

// StaticSigner holds an in-memory key. Intended for tests and ephemeral use;
// durable keys belong in a Keystore.
type StaticSigner struct {
	key *ecdsa.PrivateKey
}

func NewStaticSigner(key *ecdsa.PrivateKey) *StaticSigner {
	return &StaticSigner{key: key}
}

func (s *StaticSigner) Identity() (Identity, error) {
	if s == nil || s.key == nil {
		return "", ErrNoIdentity
	}
	return Identity(crypto.PubkeyToAddress(s.key.PublicKey).Hex()), nil
}

func (s *StaticSigner) PrivateKey() (*ecdsa.PrivateKey, error) {
	if s == nil || s.key == nil {
		return nil, ErrNoIdentity
	}
	return s.key, nil
}
