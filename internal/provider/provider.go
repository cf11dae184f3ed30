package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/safehost/go-provider/internal/flow"
	"github/safehost/go-provider/internal/rpc"
)

// handlerFunc handles one modeled RPC method. Returning a *rpc.Error surfaces
// that exact code; any other error is reported as a generic internal error.
type handlerFunc func(ctx context.Context, params []any) (any, error)

// SafeWalletProvider intercepts an embedded app's Ethereum JSON-RPC calls and
// adapts them to the multisig account: it enforces that only the Safe's own
// address acts as signer/sender, routes write operations into human
// confirmation flows, and papers over the gap between "a proposal was
// created" and "a transaction was mined".
type SafeWalletProvider struct {
	safe      SafeInfo
	sdk       WalletSDK
	app       flow.AppInfo
	submitted *txCache
	handlers  map[string]handlerFunc
	log       zerolog.Logger
}

// NewSafeWalletProvider creates a provider for one (chain, account, app)
// session.
func NewSafeWalletProvider(safe SafeInfo, sdk WalletSDK, app flow.AppInfo) *SafeWalletProvider {
	p := &SafeWalletProvider{
		safe:      safe,
		sdk:       sdk,
		app:       app,
		submitted: newTxCache(defaultTxCacheSize),
		log: log.With().
			Str("component", "provider").
			Uint64("chain_id", safe.ChainID).
			Str("safe", safe.SafeAddress).
			Logger(),
	}

	// Explicit registry instead of a switch so every modeled method is
	// enumerable; anything absent falls through to the read-only proxy.
	p.handlers = map[string]handlerFunc{
		"wallet_switchEthereumChain": p.handleSwitchChain,
		"eth_accounts":               p.handleAccounts,
		"net_version":                p.handleChainID,
		"eth_chainId":                p.handleChainID,
		"personal_sign":              p.handlePersonalSign,
		"eth_sign":                   p.handleSign,
		"eth_signTypedData":          p.signTypedDataHandler("eth_signTypedData"),
		"eth_signTypedData_v4":       p.signTypedDataHandler("eth_signTypedData_v4"),
		"eth_sendTransaction":        p.handleSendTransaction,
		"eth_getTransactionByHash":   p.handleGetTransactionByHash,
		"eth_getTransactionReceipt":  p.handleGetTransactionReceipt,
		"safe_setSettings":           p.handleSetSettings,
		"safe_showTxStatus":          p.handleShowTxStatus,
	}

	return p
}

// Safe returns the embedding context of this provider instance.
func (p *SafeWalletProvider) Safe() SafeInfo {
	return p.safe
}

// Request dispatches one JSON-RPC call. It never fails: every error path is
// converted into an error envelope, so a malformed request cannot crash the
// provider or leave the caller without a response.
func (p *SafeWalletProvider) Request(ctx context.Context, id int64, req rpc.Request) *rpc.Envelope {
	result, err := p.makeRequest(ctx, req)
	if err != nil {
		p.log.Debug().
			Str("method", req.Method).
			Err(err).
			Msg("RPC request failed")

		var rpcErr *rpc.Error
		if errors.As(err, &rpcErr) {
			return rpc.NewErrorEnvelope(id, rpcErr)
		}

		return rpc.NewErrorEnvelope(id, rpc.NewError(rpc.CodeInternal, err.Error()))
	}

	return rpc.NewResultEnvelope(id, result)
}

// makeRequest routes the call to its handler, defaulting to a verbatim
// passthrough to the read-only chain endpoint for unmodeled methods.
func (p *SafeWalletProvider) makeRequest(ctx context.Context, req rpc.Request) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic in %s handler: %v", req.Method, r)
		}
	}()

	params := req.Params
	if params == nil {
		params = []any{}
	}

	handler, ok := p.handlers[req.Method]
	if !ok {
		return p.sdk.Proxy(ctx, req.Method, params)
	}

	return handler(ctx, params)
}

func (p *SafeWalletProvider) handleSwitchChain(ctx context.Context, params []any) (any, error) {
	obj, err := objectParam(params, 0)
	if err != nil {
		return nil, err
	}

	chainID, ok := obj["chainId"].(string)
	if !ok {
		return nil, rpc.ErrInvalidParams("chainId is required")
	}

	if err := p.sdk.SwitchChain(ctx, chainID, p.app); err != nil {
		var rpcErr *rpc.Error
		if errors.As(err, &rpcErr) && rpcErr.Code == rpc.CodeInvalidParams {
			return nil, rpcErr
		}
		return nil, rpc.ErrUnsupportedChain()
	}

	return nil, nil
}

// handleAccounts always reports exactly one account: the Safe's own address,
// regardless of how many human signers stand behind it.
func (p *SafeWalletProvider) handleAccounts(_ context.Context, _ []any) (any, error) {
	return []string{p.safe.SafeAddress}, nil
}

func (p *SafeWalletProvider) handleChainID(_ context.Context, _ []any) (any, error) {
	return hexutil.EncodeUint64(p.safe.ChainID), nil
}

func (p *SafeWalletProvider) handlePersonalSign(ctx context.Context, params []any) (any, error) {
	message, err := stringParam(params, 0)
	if err != nil {
		return nil, err
	}
	address, err := stringParam(params, 1)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(address, p.safe.SafeAddress) {
		return nil, rpc.ErrInvalidParams("address does not match the Safe address")
	}

	resp, err := p.sdk.SignMessage(ctx, message, p.app, "personal_sign")
	if err != nil {
		return nil, err
	}

	return signatureOrEmpty(resp), nil
}

func (p *SafeWalletProvider) handleSign(ctx context.Context, params []any) (any, error) {
	address, err := stringParam(params, 0)
	if err != nil {
		return nil, err
	}
	messageHash, err := stringParam(params, 1)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(address, p.safe.SafeAddress) || !strings.HasPrefix(messageHash, "0x") {
		return nil, rpc.ErrInvalidParams("the address or message hash is invalid")
	}

	resp, err := p.sdk.SignMessage(ctx, messageHash, p.app, "eth_sign")
	if err != nil {
		return nil, err
	}

	return signatureOrEmpty(resp), nil
}

// signTypedDataHandler binds the dispatched method name into the handler so
// the confirmation flow shows the variant the app actually called.
func (p *SafeWalletProvider) signTypedDataHandler(method string) handlerFunc {
	return func(ctx context.Context, params []any) (any, error) {
		address, err := stringParam(params, 0)
		if err != nil {
			return nil, err
		}

		if len(params) < 2 {
			return nil, rpc.ErrInvalidParams("typed data is required")
		}

		typedData, err := parseTypedData(params[1])
		if err != nil {
			return nil, err
		}

		if !strings.EqualFold(address, p.safe.SafeAddress) {
			return nil, rpc.ErrInvalidParams("address does not match the Safe address")
		}

		resp, err := p.sdk.SignTypedMessage(ctx, typedData, p.app, method)
		if err != nil {
			return nil, err
		}

		return signatureOrEmpty(resp), nil
	}
}

func (p *SafeWalletProvider) handleSendTransaction(ctx context.Context, params []any) (any, error) {
	obj, err := objectParam(params, 0)
	if err != nil {
		return nil, err
	}

	tx := flow.TransactionParams{
		To:    stringField(obj, "to"),
		Value: stringField(obj, "value"),
		Data:  stringField(obj, "data"),
	}
	if tx.Value == "" {
		tx.Value = "0"
	}
	if tx.Data == "" {
		tx.Data = "0x"
	}

	// Apps send gas as either a hex string or a plain number.
	gas, err := parseGas(obj["gas"])
	if err != nil {
		return nil, err
	}

	// A transaction without a target is a contract deployment; the multisig
	// account deploys through its CreateCall helper contract.
	if tx.To == "" {
		createCall, ccErr := p.sdk.GetCreateCallTransaction(tx.Data)
		if ccErr != nil {
			return nil, ccErr
		}
		tx = *createCall
	}

	resp, err := p.sdk.Send(ctx, flow.SendParams{
		Txs:       []flow.TransactionParams{tx},
		SafeTxGas: gas,
	}, p.app)
	if err != nil {
		return nil, err
	}

	// The hash handed back to the app is the multisig proposal hash, not a
	// chain transaction hash. Cache a placeholder record under it so status
	// polling does not error out before the real transaction exists.
	p.submitted.Put(resp.SafeTxHash, &FakeTransaction{
		From:     p.safe.SafeAddress,
		Hash:     resp.SafeTxHash,
		GasPrice: "0x00",
		Input:    tx.Data,
		Value:    tx.Value,
		To:       tx.To,
	})

	return resp.SafeTxHash, nil
}

func (p *SafeWalletProvider) handleGetTransactionByHash(ctx context.Context, params []any) (any, error) {
	hash, err := stringParam(params, 0)
	if err != nil {
		return nil, err
	}

	// The passed value may be a safeTxHash, an already-real chain hash, or
	// unknown to the gateway entirely; failure to resolve is not an error.
	if details, lookupErr := p.sdk.GetBySafeTxHash(ctx, hash); lookupErr == nil && details.TxHash != "" {
		hash = details.TxHash
	}

	if tx, ok := p.submitted.Get(hash); ok {
		return tx, nil
	}

	return p.sdk.Proxy(ctx, "eth_getTransactionByHash", []any{hash})
}

func (p *SafeWalletProvider) handleGetTransactionReceipt(ctx context.Context, params []any) (any, error) {
	hash, err := stringParam(params, 0)
	if err != nil {
		return nil, err
	}

	// Resolution happens only for its tracking side effect. The proxy call
	// deliberately forwards the original, unresolved params: a receipt for a
	// not-yet-mined proposal legitimately does not exist, and the upstream's
	// natural not-found answer is the correct one.
	_, _ = p.sdk.GetBySafeTxHash(ctx, hash)

	return p.sdk.Proxy(ctx, "eth_getTransactionReceipt", params)
}

func (p *SafeWalletProvider) handleShowTxStatus(ctx context.Context, params []any) (any, error) {
	hash, err := stringParam(params, 0)
	if err != nil {
		return nil, err
	}

	if err := p.sdk.ShowTxStatus(ctx, hash); err != nil {
		return nil, err
	}

	return nil, nil
}

func (p *SafeWalletProvider) handleSetSettings(_ context.Context, params []any) (any, error) {
	obj, err := objectParam(params, 0)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, rpc.ErrInvalidParams("invalid settings object")
	}

	var settings flow.SafeSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, rpc.ErrInvalidParams("invalid settings object")
	}

	return p.sdk.SetSafeSettings(settings), nil
}

// signatureOrEmpty maps a flow completed without a signature (on-chain
// signing mode) to the "0x" no-op result, which is distinct from rejection.
func signatureOrEmpty(resp *flow.SignResult) string {
	if resp == nil || resp.Signature == "" {
		return "0x"
	}

	return resp.Signature
}

// parseTypedData accepts a typed-data payload given either as a decoded
// object or as a JSON-encoded string.
func parseTypedData(param any) (any, error) {
	raw, ok := param.(string)
	if !ok {
		return param, nil
	}

	var typedData any
	if err := json.Unmarshal([]byte(raw), &typedData); err != nil {
		return nil, rpc.ErrInvalidParams("typed data is not valid JSON")
	}

	return typedData, nil
}

// parseGas decodes a gas hint sent as a hex string or a JSON number.
func parseGas(raw any) (uint64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case string:
		s := strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X")
		n, ok := new(big.Int).SetString(s, 16)
		if !ok || !n.IsUint64() {
			return 0, rpc.ErrInvalidParams(fmt.Sprintf("invalid gas value %q", v))
		}
		return n.Uint64(), nil
	case float64:
		if v < 0 {
			return 0, rpc.ErrInvalidParams("gas must be non-negative")
		}
		return uint64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil || n < 0 {
			return 0, rpc.ErrInvalidParams(fmt.Sprintf("invalid gas value %q", v))
		}
		return uint64(n), nil
	default:
		return 0, rpc.ErrInvalidParams("invalid gas value")
	}
}

func stringParam(params []any, idx int) (string, error) {
	if idx >= len(params) {
		return "", rpc.ErrInvalidParams(fmt.Sprintf("missing param at index %d", idx))
	}

	s, ok := params[idx].(string)
	if !ok {
		return "", rpc.ErrInvalidParams(fmt.Sprintf("param at index %d must be a string", idx))
	}

	return s, nil
}

func objectParam(params []any, idx int) (map[string]any, error) {
	if idx >= len(params) {
		return nil, rpc.ErrInvalidParams(fmt.Sprintf("missing param at index %d", idx))
	}

	obj, ok := params[idx].(map[string]any)
	if !ok {
		return nil, rpc.ErrInvalidParams(fmt.Sprintf("param at index %d must be an object", idx))
	}

	return obj, nil
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
