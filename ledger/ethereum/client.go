// Package ethereum anchors documents on an EVM chain through the issuance
// contract's safeMintDocument entry point.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/docanchor/docanchor/identity"
	"github.com/docanchor/docanchor/ledger"
)

// documentABI is the issuance contract surface this client uses.
const documentABI = `[
  {"type":"function","name":"safeMintDocument","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"metadataURI","type":"string"},{"name":"isPublic","type":"bool"}],"outputs":[]},
  {"type":"function","name":"hasRole","stateMutability":"view","inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"event","name":"DocumentIssued","inputs":[{"name":"to","type":"address","indexed":true},{"name":"metadataURI","type":"string","indexed":false}],"anonymous":false}
]`

// DefaultSubmitTimeout bounds the send plus inclusion wait of one anchor.
const DefaultSubmitTimeout = 2 * time.Minute

type Options struct {
	// RPCURL is the chain JSON-RPC endpoint.
	RPCURL string
	// ContractAddress is the deployed issuance contract, 0x-hex.
	ContractAddress string
	// ExplorerBase is the block-explorer base URL used for verification
	// references, e.g. "https://scan.example".
	ExplorerBase string
	// SubmitTimeout bounds submission plus inclusion wait. Zero means
	// DefaultSubmitTimeout.
	SubmitTimeout time.Duration
	// LookbackBlocks bounds FindAnchor's log scan. Zero scans from genesis.
	LookbackBlocks uint64
}

// Client implements ledger.Anchorer and ledger.Finder against one issuance
// contract. Safe for concurrent use; note that the ledger contract itself
// provides no deduplication of concurrent identical submissions.
type Client struct {
	eth           *ethclient.Client
	abi           abi.ABI
	contract      common.Address
	signer        identity.Signer
	chainID       *big.Int
	explorerBase  string
	submitTimeout time.Duration
	lookback      uint64
}

func Dial(ctx context.Context, signer identity.Signer, opts Options) (*Client, error) {
	if opts.RPCURL == "" {
		return nil, errors.New("ethereum: RPC URL is required")
	}
	if opts.ContractAddress == "" {
		return nil, errors.New("ethereum: contract address is required")
	}
	if signer == nil {
		return nil, errors.New("ethereum: signer is required")
	}
	parsed, err := abi.JSON(strings.NewReader(documentABI))
	if err != nil {
		return nil, fmt.Errorf("ethereum: parse contract ABI: %w", err)
	}
	ec, err := ethclient.DialContext(ctx, opts.RPCURL)
	if err != nil {
		return nil, ledger.WrapError(ledger.KindUnavailable, "dial chain RPC", err)
	}
	chainID, err := ec.ChainID(ctx)
	if err != nil {
		ec.Close()
		return nil, ledger.WrapError(ledger.KindUnavailable, "query chain id", err)
	}
	timeout := opts.SubmitTimeout
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return &Client{
		eth:           ec,
		abi:           parsed,
		contract:      common.HexToAddress(opts.ContractAddress),
		signer:        signer,
		chainID:       chainID,
		explorerBase:  opts.ExplorerBase,
		submitTimeout: timeout,
		lookback:      opts.LookbackBlocks,
	}, nil
}

func (c *Client) Close() {
	if c != nil && c.eth != nil {
		c.eth.Close()
	}
}

var (
	_ ledger.Anchorer = (*Client)(nil)
	_ ledger.Finder   = (*Client)(nil)
)

func (c *Client) Anchor(ctx context.Context, req ledger.AnchorRequest) (ledger.Receipt, error) {
	key, err := c.signer.PrivateKey()
	if err != nil {
		return ledger.Receipt{}, ledger.WrapError(ledger.KindSignerRejected, "resolve signing key", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	data, err := c.abi.Pack("safeMintDocument", common.HexToAddress(string(req.Recipient)), req.MetadataURI, req.Visible)
	if err != nil {
		return ledger.Receipt{}, ledger.WrapError(ledger.KindInternal, "encode safeMintDocument call", err)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return ledger.Receipt{}, ledger.WrapError(ledger.KindUnavailable, "query account nonce", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return ledger.Receipt{}, ledger.WrapError(ledger.KindUnavailable, "query gas price", err)
	}
	gasLimit, err := c.eth.EstimateGas(ctx, goethereum.CallMsg{From: from, To: &c.contract, Data: data})
	if err != nil {
		// Estimation executes the call; a failure here is the contract's own
		// policy rejecting the write before anything is submitted.
		return ledger.Receipt{}, ledger.WrapError(ledger.KindReverted, "anchor rejected during gas estimation", err)
	}

	// The issuance contract is driven with plain legacy (type 0x0)
	// transactions.
	tx := types.NewTransaction(nonce, c.contract, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), key)
	if err != nil {
		return ledger.Receipt{}, ledger.WrapError(ledger.KindSignerRejected, "sign anchor transaction", err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return ledger.Receipt{}, classifySendError(err)
	}

	// From here the submission is in flight: a caller cancellation must not
	// orphan a confirmed TxID, so the inclusion wait runs detached from the
	// caller's cancellation, bounded by the submit timeout alone.
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.submitTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, c.eth, signed)
	if err != nil {
		return ledger.Receipt{}, ledger.WrapError(ledger.KindTimeout,
			fmt.Sprintf("anchor %s submitted but inclusion unconfirmed", signed.Hash().Hex()), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return ledger.Receipt{}, ledger.NewError(ledger.KindReverted,
			fmt.Sprintf("anchor %s reverted in block %d", receipt.TxHash.Hex(), receipt.BlockNumber.Uint64()))
	}
	return c.receiptFor(receipt.TxHash, receipt.BlockNumber.Uint64()), nil
}

// FindAnchor scans the contract's DocumentIssued events for an anchor
// matching recipient and metadataURI, newest first.
func (c *Client) FindAnchor(ctx context.Context, recipient identity.Identity, metadataURI string) (ledger.Receipt, bool, error) {
	event, ok := c.abi.Events["DocumentIssued"]
	if !ok {
		return ledger.Receipt{}, false, ledger.NewError(ledger.KindInternal, "contract ABI missing DocumentIssued event")
	}

	query := goethereum.FilterQuery{
		Addresses: []common.Address{c.contract},
		Topics: [][]common.Hash{
			{event.ID},
			{common.HexToAddress(string(recipient)).Hash()},
		},
	}
	if c.lookback > 0 {
		head, err := c.eth.BlockNumber(ctx)
		if err != nil {
			return ledger.Receipt{}, false, ledger.WrapError(ledger.KindUnavailable, "query head block", err)
		}
		from := uint64(0)
		if head > c.lookback {
			from = head - c.lookback
		}
		query.FromBlock = new(big.Int).SetUint64(from)
	}

	logs, err := c.eth.FilterLogs(ctx, query)
	if err != nil {
		return ledger.Receipt{}, false, ledger.WrapError(ledger.KindUnavailable, "filter issuance logs", err)
	}
	for i := len(logs) - 1; i >= 0; i-- {
		values, err := c.abi.Unpack("DocumentIssued", logs[i].Data)
		if err != nil || len(values) == 0 {
			continue
		}
		uri, ok := values[0].(string)
		if !ok || uri != metadataURI {
			continue
		}
		return c.receiptFor(logs[i].TxHash, logs[i].BlockNumber), true, nil
	}
	return ledger.Receipt{}, false, nil
}

func (c *Client) receiptFor(txHash common.Hash, blockNumber uint64) ledger.Receipt {
	txID := txHash.Hex()
	return ledger.Receipt{
		TxID:        txID,
		ChainID:     c.chainID.String(),
		BlockNumber: blockNumber,
		ExplorerURL: ledger.ExplorerTxURL(c.explorerBase, txID),
	}
}

func classifySendError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		// The request may have reached the node before the deadline fired.
		return ledger.WrapError(ledger.KindTimeout, "anchor submission status unknown", err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "invalid sender") || strings.Contains(msg, "signature") {
		return ledger.WrapError(ledger.KindSignerRejected, "node rejected the signer", err)
	}
	return ledger.WrapError(ledger.KindUnavailable, "submit anchor transaction", err)
}
