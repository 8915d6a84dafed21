package ethereum

import (
	"context"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"github.com/docanchor/docanchor/identity"
	"github.com/docanchor/docanchor/ledger"
)

// IssuerRole is the contract role checked before any anchor write.
const IssuerRole = "ISSUER_ROLE"

// RoleID derives the 32-byte role identifier the contract stores: the
// legacy-keccak256 of the role name.
func RoleID(name string) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	var id [32]byte
	copy(id[:], h.Sum(nil))
	return id
}

// RoleAuthorizer answers issuance permission with an on-chain role check.
//
// Each call issues a fresh hasRole read; permission is revocable and results
// are never cached.
type RoleAuthorizer struct {
	client *Client
	role   [32]byte
}

// RoleAuthorizer returns an Authorizer backed by this client's contract.
func (c *Client) RoleAuthorizer(roleName string) *RoleAuthorizer {
	return &RoleAuthorizer{client: c, role: RoleID(roleName)}
}

var _ identity.Authorizer = (*RoleAuthorizer)(nil)

func (a *RoleAuthorizer) IsPermitted(ctx context.Context, id identity.Identity) (bool, error) {
	data, err := a.client.abi.Pack("hasRole", a.role, common.HexToAddress(string(id)))
	if err != nil {
		return false, ledger.WrapError(ledger.KindInternal, "encode hasRole call", err)
	}
	out, err := a.client.eth.CallContract(ctx, goethereum.CallMsg{To: &a.client.contract, Data: data}, nil)
	if err != nil {
		return false, ledger.WrapError(ledger.KindUnavailable, "query issuer role", err)
	}
	values, err := a.client.abi.Unpack("hasRole", out)
	if err != nil || len(values) == 0 {
		return false, ledger.WrapError(ledger.KindInternal, "decode hasRole result", err)
	}
	permitted, ok := values[0].(bool)
	if !ok {
		return false, ledger.NewError(ledger.KindInternal, "hasRole returned a non-boolean value")
	}
	return permitted, nil
}
