package provider

import (
	"context"

	"github/safehost/go-provider/internal/flow"
	"github/safehost/go-provider/internal/gateway"
)

// WalletSDK is the capability set the provider depends on. It is the seam
// between the RPC dispatch logic and the human-facing flow adapter, and must
// stay stable so the provider can be tested against a mock implementation.
type WalletSDK interface {
	SignMessage(ctx context.Context, message string, app flow.AppInfo, method string) (*flow.SignResult, error)
	SignTypedMessage(ctx context.Context, typedData any, app flow.AppInfo, method string) (*flow.SignResult, error)
	Send(ctx context.Context, params flow.SendParams, app flow.AppInfo) (*flow.SendResult, error)
	GetBySafeTxHash(ctx context.Context, safeTxHash string) (*gateway.TransactionDetails, error)
	SwitchChain(ctx context.Context, hexChainID string, app flow.AppInfo) error
	ShowTxStatus(ctx context.Context, safeTxHash string) error
	SetSafeSettings(settings flow.SafeSettings) flow.SafeSettings
	GetCreateCallTransaction(data string) (*flow.TransactionParams, error)
	Proxy(ctx context.Context, method string, params []any) (any, error)
}

// SafeInfo is the embedding context of one provider instance. It is immutable
// for the instance's lifetime: a chain or account switch constructs a new
// provider, so cached pending-tx state never bleeds across sessions.
type SafeInfo struct {
	SafeAddress string `json:"safeAddress"`
	ChainID     uint64 `json:"chainId"`
}

// FakeTransaction is a synthesized placeholder mimicking the shape of a
// standard Ethereum transaction. A freshly submitted multisig proposal has no
// real on-chain transaction yet; serving this record keeps naive apps that
// poll eth_getTransactionByHash from erroring out before one exists.
type FakeTransaction struct {
	From             string  `json:"from"`
	Hash             string  `json:"hash"`
	Gas              uint64  `json:"gas"`
	GasPrice         string  `json:"gasPrice"`
	Nonce            uint64  `json:"nonce"`
	Input            string  `json:"input"`
	Value            string  `json:"value"`
	To               string  `json:"to"`
	BlockHash        *string `json:"blockHash"`
	BlockNumber      *uint64 `json:"blockNumber"`
	TransactionIndex *uint64 `json:"transactionIndex"`
}
