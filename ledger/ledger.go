// Package ledger defines the anchor boundary: the durable, append-only
// record binding a recipient identity to a metadata content address under a
// signing identity.
package ledger

import (
	"context"
	"strings"

	"github.com/docanchor/docanchor/identity"
)

// AnchorRequest describes one anchor write.
type AnchorRequest struct {
	// Recipient is the identity the document is issued to.
	Recipient identity.Identity
	// MetadataURI is the resolvable URI of the canonical metadata record.
	MetadataURI string
	// Visible marks the anchor record publicly readable.
	Visible bool
}

// Receipt reports an included anchor transaction. Once issued, the anchor is
// immutable and resolvable by TxID forever.
type Receipt struct {
	TxID        string
	ChainID     string
	BlockNumber uint64
	// ExplorerURL is the verification reference for the anchor, derived
	// purely from TxID (see ExplorerTxURL).
	ExplorerURL string
}

// Anchorer submits anchor records to the ledger.
//
// Contract:
// - Anchor is NOT idempotent. A retry after an ambiguous failure may create a
//   duplicate anchor record; retry policy belongs to the caller.
// - Anchor returns only after inclusion is confirmed; the receipt's TxID is
//   final. An inclusion wait that runs out surfaces KindTimeout, never a
//   provisional receipt.
type Anchorer interface {
	Anchor(ctx context.Context, req AnchorRequest) (Receipt, error)
}

// Finder looks up an existing anchor for a recipient/metadata pair.
//
// Used to resolve an ambiguous submission timeout without double-anchoring:
// found means the timed-out submission was in fact included.
type Finder interface {
	FindAnchor(ctx context.Context, recipient identity.Identity, metadataURI string) (Receipt, bool, error)
}

// ExplorerTxURL derives the verification reference for a transaction:
// <explorer-base>/tx/<txID>. It is a pure function of txID and is never
// stored independently.
func ExplorerTxURL(explorerBase, txID string) string {
	return strings.TrimRight(explorerBase, "/") + "/tx/" + txID
}
