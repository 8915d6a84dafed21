// Package issuance sequences the document issuance pipeline: authorization,
// content-addressed storage of the document and its metadata, atomic ledger
// anchoring, and verification embedding.
package issuance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docanchor/docanchor/contentstore"
	"github.com/docanchor/docanchor/document"
	"github.com/docanchor/docanchor/identity"
	"github.com/docanchor/docanchor/ledger"
)

// Fields are the caller-supplied metadata inputs for one issuance.
type Fields struct {
	Title    string
	Issuer   string
	IssuedTo identity.Identity
}

// Embedder produces the signed output document from the original and a
// verification reference. Must be a pure transform.
type Embedder interface {
	Verification(original document.Document, issuer, verifyURL string) (document.Document, error)
}

// Deps are the pipeline's injected collaborators.
type Deps struct {
	Store      contentstore.Store
	Anchorer   ledger.Anchorer
	Authorizer identity.Authorizer
	Signer     identity.Signer

	// Finder resolves ambiguous submission timeouts by looking up an existing
	// anchor before any resubmission. Optional: without it a ledger timeout
	// surfaces as SubmissionStatusUnknown.
	Finder ledger.Finder

	// Embedder produces the signed output document (e.g. embed.Embedder).
	// Optional: only IssueAndEmbed requires it.
	Embedder Embedder
}

// Options configure a Pipeline.
type Options struct {
	// GatewayBase is the public content-store read base; the document
	// reference and the anchored metadata URI are formed as
	// <GatewayBase>/ipfs/<address>.
	GatewayBase string
	// ExplorerBase is the block-explorer base; the verification reference is
	// <ExplorerBase>/tx/<TxID>. Used when the anchor receipt carries no
	// explorer URL of its own.
	ExplorerBase string
	// StoreTimeout bounds each content-store call. Zero disables the bound.
	StoreTimeout time.Duration
	// AuthTimeout bounds the authorization check. Zero disables the bound.
	AuthTimeout time.Duration
	// Logger receives structured pipeline events. Nil means slog.Default().
	Logger *slog.Logger
}

// Pipeline is the issuance orchestrator.
//
// A Pipeline holds no mutable state: concurrent IssueDocument calls for
// different documents are independent. Concurrent calls for the same
// document and metadata are NOT deduplicated at the ledger layer — the
// anchor write is not idempotent — and that deduplication is the caller's
// responsibility.
type Pipeline struct {
	store    contentstore.Store
	anchorer ledger.Anchorer
	finder   ledger.Finder
	auth     identity.Authorizer
	signer   identity.Signer
	embedder Embedder
	opts     Options
	logger   *slog.Logger
}

func New(deps Deps, opts Options) (*Pipeline, error) {
	if deps.Store == nil {
		return nil, errors.New("issuance: content store is required")
	}
	if deps.Anchorer == nil {
		return nil, errors.New("issuance: ledger anchorer is required")
	}
	if deps.Authorizer == nil {
		return nil, errors.New("issuance: authorizer is required")
	}
	if deps.Signer == nil {
		return nil, errors.New("issuance: signer is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    deps.Store,
		anchorer: deps.Anchorer,
		finder:   deps.Finder,
		auth:     deps.Authorizer,
		signer:   deps.Signer,
		embedder: deps.Embedder,
		opts:     opts,
		logger:   logger,
	}, nil
}

// IssueDocument runs one issuance: resolve and authorize the signing
// identity, content-address the document and its metadata record, and anchor
// the provenance fact on the ledger. It returns the inclusion receipt.
//
// Ordering: the authorization check always precedes every state-changing
// call; an unauthorized identity causes zero store writes and zero ledger
// submissions.
func (p *Pipeline) IssueDocument(ctx context.Context, doc document.Document, fields Fields, visible bool) (ledger.Receipt, error) {
	log := p.logger.With(
		slog.String("issuance_id", uuid.NewString()),
		slog.String("document", doc.Name()),
	)

	// Step 1: resolve the active signing identity.
	signerID, err := p.signer.Identity()
	if err != nil {
		return ledger.Receipt{}, wrapError(KindIdentityUnresolved, "no active signing identity", err)
	}

	// Step 2: authorization, strictly before any upload or anchor. The check
	// is issued fresh for every call; permission is revocable.
	authCtx, cancel := bound(ctx, p.opts.AuthTimeout)
	permitted, err := p.auth.IsPermitted(authCtx, signerID)
	cancel()
	if err != nil {
		return ledger.Receipt{}, wrapError(KindInternal, "authorization check failed", err)
	}
	if !permitted {
		return ledger.Receipt{}, newError(KindUnauthorized,
			fmt.Sprintf("identity %s is not permitted to issue documents", signerID))
	}

	// Step 3: content-address the document bytes.
	docAddr, err := p.putBytes(ctx, doc.Bytes())
	if err != nil {
		return ledger.Receipt{}, storeError("store document content", err)
	}
	docRef := contentstore.ResolveURL(p.opts.GatewayBase, docAddr)

	// Step 4: assemble the metadata record, serialize canonically, store it.
	record := MetadataRecord{
		Name:     fields.Title,
		IssuedTo: fields.IssuedTo,
		Issuer:   fields.Issuer,
		Document: docRef,
	}
	meta, err := record.CanonicalBytes()
	if err != nil {
		return ledger.Receipt{}, wrapError(KindInternal, "serialize metadata record", err)
	}
	metaAddr, err := p.putBytes(ctx, meta)
	if err != nil {
		return ledger.Receipt{}, storeError("store metadata record", err)
	}
	metaURI := contentstore.ResolveURL(p.opts.GatewayBase, metaAddr)

	// Step 5: anchor on the ledger, signed by the active identity.
	receipt, err := p.anchor(ctx, ledger.AnchorRequest{
		Recipient:   fields.IssuedTo,
		MetadataURI: metaURI,
		Visible:     visible,
	}, log)
	if err != nil {
		return ledger.Receipt{}, err
	}

	log.Info("document issued",
		slog.String("tx_id", receipt.TxID),
		slog.String("document_address", docAddr.String()),
		slog.String("metadata_uri", metaURI),
		slog.Bool("visible", visible),
	)
	return receipt, nil
}

// IssueAndEmbed runs IssueDocument and then embeds the anchor's verification
// reference into the original document, returning both the receipt and the
// signed output document.
//
// If embedding fails, the receipt is still returned alongside the
// EmbedFailed error: the anchor is durable and must not be orphaned.
func (p *Pipeline) IssueAndEmbed(ctx context.Context, doc document.Document, fields Fields, visible bool) (ledger.Receipt, document.Document, error) {
	receipt, err := p.IssueDocument(ctx, doc, fields, visible)
	if err != nil {
		return ledger.Receipt{}, document.Document{}, err
	}

	verifyURL := receipt.ExplorerURL
	if verifyURL == "" {
		verifyURL = ledger.ExplorerTxURL(p.opts.ExplorerBase, receipt.TxID)
	}
	embedder := p.embedder
	if embedder == nil {
		return receipt, document.Document{}, newError(KindEmbedFailed, "no embedder configured")
	}
	signed, err := embedder.Verification(doc, fields.Issuer, verifyURL)
	if err != nil {
		return receipt, document.Document{}, wrapError(KindEmbedFailed, "embed verification overlay", err)
	}
	return receipt, signed, nil
}

// anchor submits the anchor request and owns the retry policy. A timeout is
// the one genuinely ambiguous outcome: the submission may or may not have
// been included, so it is resolved through the Finder — resubmitting blindly
// risks a duplicate anchor record.
func (p *Pipeline) anchor(ctx context.Context, req ledger.AnchorRequest, log *slog.Logger) (ledger.Receipt, error) {
	receipt, err := p.anchorer.Anchor(ctx, req)
	if err == nil {
		return receipt, nil
	}
	if !ledger.Ambiguous(err) {
		return ledger.Receipt{}, anchorError(err)
	}

	if p.finder == nil {
		return ledger.Receipt{}, wrapError(KindSubmissionStatusUnknown,
			"anchor submission status unknown and no anchor lookup is configured", err)
	}
	existing, found, lookupErr := p.finder.FindAnchor(ctx, req.Recipient, req.MetadataURI)
	if lookupErr != nil {
		return ledger.Receipt{}, wrapError(KindSubmissionStatusUnknown,
			"anchor submission status unknown and the anchor lookup failed", errors.Join(err, lookupErr))
	}
	if found {
		log.Warn("anchor was included despite submission timeout",
			slog.String("tx_id", existing.TxID))
		return existing, nil
	}

	log.Warn("anchor submission timed out with no matching record, resubmitting once")
	receipt, err = p.anchorer.Anchor(ctx, req)
	if err != nil {
		if ledger.Ambiguous(err) {
			return ledger.Receipt{}, wrapError(KindSubmissionStatusUnknown,
				"anchor resubmission status unknown", err)
		}
		return ledger.Receipt{}, anchorError(err)
	}
	return receipt, nil
}

func (p *Pipeline) putBytes(ctx context.Context, data []byte) (contentstore.Address, error) {
	putCtx, cancel := bound(ctx, p.opts.StoreTimeout)
	defer cancel()
	return p.store.Put(putCtx, data)
}

func bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// storeError folds a content-store failure into the pipeline taxonomy.
func storeError(msg string, err error) error {
	switch {
	case errors.Is(err, contentstore.ErrRejected),
		errors.Is(err, contentstore.ErrImmutable),
		errors.Is(err, contentstore.ErrAddressMismatch):
		return wrapError(KindStoreRejected, msg, err)
	case errors.Is(err, contentstore.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return wrapError(KindStoreUnavailable, msg, err)
	default:
		return wrapError(KindInternal, msg, err)
	}
}

// anchorError folds an unambiguous ledger failure into the pipeline taxonomy.
func anchorError(err error) error {
	switch {
	case ledger.IsKind(err, ledger.KindSignerRejected):
		return wrapError(KindSignerRejected, "ledger rejected the signing identity", err)
	case ledger.IsKind(err, ledger.KindReverted):
		return wrapError(KindReverted, "ledger rejected the anchor record", err)
	case ledger.IsKind(err, ledger.KindUnavailable):
		return wrapError(KindLedgerUnavailable, "ledger unreachable before submission", err)
	default:
		return wrapError(KindInternal, "anchor submission failed", err)
	}
}
