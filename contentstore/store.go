// Package contentstore defines the content-addressed storage boundary of the
// issuance pipeline, plus the in-process and replicating implementations.
package contentstore

import "context"

// Store is a minimal content-addressed storage interface.
//
// Contract:
// - Put MUST be idempotent: identical bytes yield the identical Address, and
//   re-uploading existing content is a no-op.
// - Stored objects MUST be immutable.
// - Get MUST return ErrNotFound when the address is absent.
// - Transient transport failures map to ErrUnavailable (retryable); permanent
//   rejections (oversized or malformed content) map to ErrRejected.
type Store interface {
	Put(ctx context.Context, data []byte) (Address, error)
	Get(ctx context.Context, addr Address) ([]byte, error)
	Has(ctx context.Context, addr Address) bool
}
