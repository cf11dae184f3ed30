package flow

import (
	"context"
	"time"

	"github/safehost/go-provider/internal/gateway"
)

// Kind identifies the confirmation flow opened for a request.
type Kind string

const (
	KindSignMessage      Kind = "sign_message"
	KindSignTypedMessage Kind = "sign_typed_message"
	KindSendTransaction  Kind = "send_transaction"
	KindSwitchChain      Kind = "switch_chain"
)

// AppInfo describes the embedded app a request originates from.
type AppInfo struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	IconURL string `json:"iconUrl,omitempty"`
}

// TransactionParams is one normalized transaction of a batch proposal.
type TransactionParams struct {
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
}

// SendParams is a batch of transactions submitted as a single multisig
// proposal. SafeTxGas is a gas hint forwarded from the embedded app, zero if
// the app did not provide one.
type SendParams struct {
	Txs       []TransactionParams `json:"txs"`
	SafeTxGas uint64              `json:"safeTxGas"`
}

// SendResult is the outcome of a confirmed proposal. TxHash is the on-chain
// execution hash and stays empty while the proposal is still collecting
// signatures.
type SendResult struct {
	SafeTxHash string `json:"safeTxHash"`
	TxHash     string `json:"txHash,omitempty"`
}

// SignResult is the outcome of a completed signature flow. Signature stays
// empty when the flow completed without producing an off-chain signature
// (on-chain signing mode), which is distinct from an explicit rejection.
type SignResult struct {
	Signature string `json:"signature,omitempty"`
}

// SafeSettings are the per-session preferences an embedded app may adjust.
type SafeSettings struct {
	OffChainSigning bool `json:"offChainSigning"`
}

// Service is the capability set the provider depends on. It bridges
// synchronous-looking RPC calls to human-in-the-loop confirmation flows.
type Service interface {
	// SignMessage opens a signature confirmation flow for a plain message and
	// blocks until a human completes or dismisses it.
	SignMessage(ctx context.Context, message string, app AppInfo, method string) (*SignResult, error)

	// SignTypedMessage opens a signature confirmation flow for EIP-712 typed
	// data and blocks until a human completes or dismisses it.
	SignTypedMessage(ctx context.Context, typedData any, app AppInfo, method string) (*SignResult, error)

	// Send opens a batched-transaction confirmation flow and blocks until the
	// proposal is submitted or the flow is dismissed.
	Send(ctx context.Context, params SendParams, app AppInfo) (*SendResult, error)

	// GetBySafeTxHash looks up the gateway detail record for a proposal.
	GetBySafeTxHash(ctx context.Context, safeTxHash string) (*gateway.TransactionDetails, error)

	// SwitchChain requests a switch to another chain. It resolves immediately;
	// the navigation itself only happens on explicit human confirmation.
	SwitchChain(ctx context.Context, hexChainID string, app AppInfo) error

	// ShowTxStatus notifies the user about the current status of a proposal.
	ShowTxStatus(ctx context.Context, safeTxHash string) error

	// SetSafeSettings merges the given settings into the session settings and
	// returns the result.
	SetSafeSettings(settings SafeSettings) SafeSettings

	// GetCreateCallTransaction wraps contract deployment data into a
	// ready-to-send CreateCall transaction.
	GetCreateCallTransaction(data string) (*TransactionParams, error)

	// Proxy forwards a raw method call to the read-only blockchain RPC.
	Proxy(ctx context.Context, method string, params []any) (any, error)

	// Close tears down the adapter's event subscriptions. The adapter must
	// not be used afterwards; a chain or account switch constructs a new one.
	Close()
}

// PendingFlow is one open confirmation flow awaiting human action.
type PendingFlow struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	App       AppInfo   `json:"app"`
	CreatedAt time.Time `json:"createdAt"`

	// Kind-specific payload, informational for the confirming human.
	Message       string              `json:"message,omitempty"`
	SignMethod    string              `json:"signMethod,omitempty"`
	OffChain      bool                `json:"offChain,omitempty"`
	TypedData     any                 `json:"typedData,omitempty"`
	Txs           []TransactionParams `json:"txs,omitempty"`
	SafeTxGas     uint64              `json:"safeTxGas,omitempty"`
	TargetChainID uint64              `json:"targetChainId,omitempty"`

	// onClose rejects the pending promise; invoked when the flow is dismissed
	// or replaced. Nil after the flow has settled.
	onClose func()

	// onConfirm completes the flow with the human-provided outcome.
	onConfirm func(ctx context.Context, outcome ConfirmOutcome) error
}

// ConfirmOutcome carries what the human-facing side produced when confirming
// a flow: a signature for signature flows, the proposal ids for send flows.
type ConfirmOutcome struct {
	Signature  string `json:"signature,omitempty"`
	TxID       string `json:"txId,omitempty"`
	SafeTxHash string `json:"safeTxHash,omitempty"`
}
