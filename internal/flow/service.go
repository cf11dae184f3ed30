package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github/safehost/go-provider/internal/chains"
	"github/safehost/go-provider/internal/events"
	"github/safehost/go-provider/internal/gateway"
	"github/safehost/go-provider/internal/notify"
	"github/safehost/go-provider/internal/rpc"
)

// Config holds the immutable session context of one adapter instance.
// A chain or account switch requires constructing a new instance so that
// pending-tx state never bleeds across sessions.
type Config struct {
	ChainID         uint64
	SafeAddress     string
	SafeVersion     string
	OffChainSigning bool

	// ForceOnChainSigning pins the session to on-chain signing regardless of
	// chain features and user preference.
	ForceOnChainSigning bool

	// Navigate is invoked after a confirmed chain switch. Nil means a
	// confirmed switch only logs.
	Navigate func(chainID uint64)
}

// settlement is the single outcome of one pending request. Exactly one of
// sign/send/err is populated.
type settlement struct {
	sign *SignResult
	send *SendResult
	err  error
}

type service struct {
	chainID     uint64
	safeAddress string
	safeVersion string

	chains   *chains.Registry
	gateway  gateway.Service
	upstream rpc.Proxy
	bus      *events.Bus
	host     Host
	notifier notify.Service
	log      zerolog.Logger

	// resolvers correlates request ids with their pending settlement channel.
	// A single long-lived bus subscription fires the matching entry, so no
	// per-request listeners pile up.
	resolversMu sync.Mutex
	resolvers   map[string]chan settlement

	pendingTxs *PendingTxIndex

	settingsMu sync.Mutex
	settings   SafeSettings

	// forceOnChainSigning overrides the off-chain preference for chains where
	// the gateway cannot verify EIP-1271 preimage signatures.
	forceOnChainSigning bool

	// navigate is invoked after a confirmed chain switch. Injected by the
	// composition root; nil means a confirmed switch only logs.
	navigate func(chainID uint64)

	unsubscribe []events.Unsubscribe
}

// NewService creates a flow adapter for one (chain, account) session.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(
	cfg Config,
	registry *chains.Registry,
	gw gateway.Service,
	upstream rpc.Proxy,
	bus *events.Bus,
	host Host,
	notifier notify.Service,
) (Service, error) {
	if !common.IsHexAddress(cfg.SafeAddress) {
		return nil, errors.Errorf("invalid safe address %q", cfg.SafeAddress)
	}

	s := &service{
		chainID:     cfg.ChainID,
		safeAddress: common.HexToAddress(cfg.SafeAddress).Hex(),
		safeVersion: cfg.SafeVersion,
		chains:      registry,
		gateway:     gw,
		upstream:    upstream,
		bus:         bus,
		host:        host,
		notifier:    notifier,
		log: log.With().
			Str("component", "flow").
			Uint64("chain_id", cfg.ChainID).
			Str("safe", cfg.SafeAddress).
			Logger(),
		resolvers:           make(map[string]chan settlement),
		pendingTxs:          NewPendingTxIndex(),
		settings:            SafeSettings{OffChainSigning: cfg.OffChainSigning},
		forceOnChainSigning: cfg.ForceOnChainSigning,
		navigate:            cfg.Navigate,
	}

	// One long-lived subscription per topic for the adapter's lifetime.
	s.unsubscribe = append(s.unsubscribe,
		bus.Subscribe(events.TopicSignaturePrepared, s.onSignaturePrepared),
		bus.Subscribe(events.TopicTxProcessing, s.onTxProcessing),
	)

	return s, nil
}

// Close tears down the adapter's event subscriptions.
func (s *service) Close() {
	for _, unsub := range s.unsubscribe {
		unsub()
	}
}

// SignMessage opens a signature confirmation flow and blocks until it settles.
func (s *service) SignMessage(ctx context.Context, message string, app AppInfo, method string) (*SignResult, error) {
	requestID := uuid.NewString()
	offChain := s.useOffChainSigning()

	s.notifier.Notify(ctx, notify.Notification{
		Title:   "Signature request",
		Body:    fmt.Sprintf("%s wants you to sign a message. Open the app to continue.", appName(app)),
		AppName: app.Name,
		AppURL:  app.URL,
	})

	ch := s.register(requestID)
	s.host.Open(&PendingFlow{
		ID:         requestID,
		Kind:       KindSignMessage,
		App:        app,
		CreatedAt:  time.Now(),
		Message:    message,
		SignMethod: method,
		OffChain:   offChain,
		onClose:    func() { s.settleError(requestID, rpc.ErrUserRejected()) },
		onConfirm: func(_ context.Context, outcome ConfirmOutcome) error {
			s.bus.Publish(events.TopicSignaturePrepared, events.SignaturePreparedEvent{
				RequestID: requestID,
				Signature: outcome.Signature,
			})
			return nil
		},
	})

	return s.awaitSign(ctx, requestID, ch)
}

// SignTypedMessage opens a typed-data signature flow and blocks until it settles.
func (s *service) SignTypedMessage(ctx context.Context, typedData any, app AppInfo, method string) (*SignResult, error) {
	requestID := uuid.NewString()
	offChain := s.useOffChainSigning()

	s.notifier.Notify(ctx, notify.Notification{
		Title:   "Signature request",
		Body:    fmt.Sprintf("%s wants you to sign typed data. Open the app to continue.", appName(app)),
		AppName: app.Name,
		AppURL:  app.URL,
	})

	ch := s.register(requestID)
	s.host.Open(&PendingFlow{
		ID:         requestID,
		Kind:       KindSignTypedMessage,
		App:        app,
		CreatedAt:  time.Now(),
		SignMethod: method,
		OffChain:   offChain,
		Message:    marshalTypedData(typedData),
		TypedData:  typedData,
		onClose:    func() { s.settleError(requestID, rpc.ErrUserRejected()) },
		onConfirm: func(_ context.Context, outcome ConfirmOutcome) error {
			s.bus.Publish(events.TopicSignaturePrepared, events.SignaturePreparedEvent{
				RequestID: requestID,
				Signature: outcome.Signature,
			})
			return nil
		},
	})

	return s.awaitSign(ctx, requestID, ch)
}

// Send opens a batched-transaction confirmation flow and blocks until the
// proposal is submitted or dismissed.
func (s *service) Send(ctx context.Context, params SendParams, app AppInfo) (*SendResult, error) {
	txs, err := normalizeTxs(params.Txs)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()

	s.notifier.Notify(ctx, notify.Notification{
		Title:   "Transaction request",
		Body:    fmt.Sprintf("%s wants to submit a transaction. Open the app to continue.", appName(app)),
		AppName: app.Name,
		AppURL:  app.URL,
	})

	ch := s.register(requestID)
	s.host.Open(&PendingFlow{
		ID:        requestID,
		Kind:      KindSendTransaction,
		App:       app,
		CreatedAt: time.Now(),
		Txs:       txs,
		SafeTxGas: params.SafeTxGas,
		onClose:   func() { s.settleError(requestID, rpc.ErrUserRejected()) },
		onConfirm: func(_ context.Context, outcome ConfirmOutcome) error {
			return s.onSubmit(requestID, outcome.TxID, outcome.SafeTxHash)
		},
	})

	return s.awaitSend(ctx, requestID, ch)
}

// onSubmit resolves a send flow. The on-chain hash may already be known from
// the tx-processing event stream, or still pending at resolution time.
func (s *service) onSubmit(requestID, txID, safeTxHash string) error {
	if safeTxHash == "" {
		return errors.New("safeTxHash is required to submit a transaction flow")
	}

	txHash, _ := s.pendingTxs.Lookup(txID)
	s.settle(requestID, settlement{send: &SendResult{SafeTxHash: safeTxHash, TxHash: txHash}})

	return nil
}

// GetBySafeTxHash looks up the gateway detail record for a proposal.
func (s *service) GetBySafeTxHash(ctx context.Context, safeTxHash string) (*gateway.TransactionDetails, error) {
	details, err := s.gateway.GetTransactionDetails(ctx, s.chainID, safeTxHash)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get transaction details for %s", safeTxHash)
	}

	return details, nil
}

// SwitchChain requests a switch to another chain. Resolves immediately: the
// navigation itself only happens once a human confirms the prompt.
func (s *service) SwitchChain(ctx context.Context, hexChainID string, app AppInfo) error {
	targetChainID, err := parseChainID(hexChainID)
	if err != nil {
		return err
	}

	if targetChainID == s.chainID {
		return nil
	}

	shortName, err := s.chains.ShortName(targetChainID)
	if err != nil {
		return errors.Wrapf(err, "unknown chain %s", hexChainID)
	}

	s.notifier.Notify(ctx, notify.Notification{
		Title:   "Chain switch request",
		Body:    fmt.Sprintf("%s wants to switch to %s. Open the app to continue.", appName(app), shortName),
		AppName: app.Name,
		AppURL:  app.URL,
	})

	s.host.Open(&PendingFlow{
		ID:            uuid.NewString(),
		Kind:          KindSwitchChain,
		App:           app,
		CreatedAt:     time.Now(),
		TargetChainID: targetChainID,
		onConfirm: func(_ context.Context, _ ConfirmOutcome) error {
			s.log.Info().
				Uint64("target_chain_id", targetChainID).
				Str("short_name", shortName).
				Msg("Chain switch confirmed, navigating")

			if s.navigate != nil {
				s.navigate(targetChainID)
			}
			return nil
		},
	})

	return nil
}

// ShowTxStatus notifies the user about the current status of a proposal.
func (s *service) ShowTxStatus(ctx context.Context, safeTxHash string) error {
	details, err := s.GetBySafeTxHash(ctx, safeTxHash)
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, notify.Notification{
		Title: "Transaction status",
		Body:  fmt.Sprintf("Transaction %s is %s", safeTxHash, details.TxStatus),
	})

	return nil
}

// SetSafeSettings merges the given settings into the session settings.
func (s *service) SetSafeSettings(settings SafeSettings) SafeSettings {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	s.settings.OffChainSigning = settings.OffChainSigning

	return s.settings
}

// Proxy forwards a raw method call to the read-only blockchain RPC.
func (s *service) Proxy(ctx context.Context, method string, params []any) (any, error) {
	return s.upstream.Send(ctx, method, params)
}

// useOffChainSigning decides between gasless EIP-1271 preimage signing and
// on-chain signing for the current session.
func (s *service) useOffChainSigning() bool {
	if s.forceOnChainSigning {
		return false
	}

	chain, err := s.chains.Get(s.chainID)
	if err != nil || !chain.HasFeature(chains.FeatureEIP1271) {
		return false
	}

	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	return s.settings.OffChainSigning
}

// register creates the settlement channel correlated with a request id.
func (s *service) register(requestID string) chan settlement {
	ch := make(chan settlement, 1)

	s.resolversMu.Lock()
	s.resolvers[requestID] = ch
	s.resolversMu.Unlock()

	return ch
}

// settle fires the resolver for a request id exactly once: the entry is
// removed under lock before the outcome is delivered, so a racing close and
// event cannot both settle the same request.
func (s *service) settle(requestID string, outcome settlement) {
	s.resolversMu.Lock()
	ch, ok := s.resolvers[requestID]
	if ok {
		delete(s.resolvers, requestID)
	}
	s.resolversMu.Unlock()

	if !ok {
		return
	}

	ch <- outcome
	s.host.Clear(requestID)
}

func (s *service) settleError(requestID string, err error) {
	s.settle(requestID, settlement{err: err})
}

// onSignaturePrepared resolves the pending request matching the event's id.
func (s *service) onSignaturePrepared(event any) {
	e, ok := event.(events.SignaturePreparedEvent)
	if !ok {
		return
	}

	s.settle(e.RequestID, settlement{sign: &SignResult{Signature: e.Signature}})
}

// onTxProcessing records the on-chain hash assigned to a submitted proposal.
func (s *service) onTxProcessing(event any) {
	e, ok := event.(events.TxProcessingEvent)
	if !ok {
		return
	}

	s.pendingTxs.Record(e.TxID, e.TxHash)
}

func (s *service) awaitSign(ctx context.Context, requestID string, ch chan settlement) (*SignResult, error) {
	outcome, err := s.await(ctx, requestID, ch)
	if err != nil {
		return nil, err
	}

	return outcome.sign, nil
}

func (s *service) awaitSend(ctx context.Context, requestID string, ch chan settlement) (*SendResult, error) {
	outcome, err := s.await(ctx, requestID, ch)
	if err != nil {
		return nil, err
	}

	return outcome.send, nil
}

// await blocks until the request settles or the caller's context ends. There
// is no timeout of our own: a flow may stay open indefinitely.
func (s *service) await(ctx context.Context, requestID string, ch chan settlement) (settlement, error) {
	select {
	case outcome := <-ch:
		if outcome.err != nil {
			return settlement{}, outcome.err
		}
		return outcome, nil
	case <-ctx.Done():
		// Caller went away; drop the resolver so a late settle is a no-op.
		s.resolversMu.Lock()
		delete(s.resolvers, requestID)
		s.resolversMu.Unlock()
		s.host.Clear(requestID)

		return settlement{}, errors.Wrap(ctx.Err(), "request abandoned before the flow settled")
	}
}

// normalizeTxs checksums each target address and canonicalizes values to
// decimal wei strings, the form the proposal endpoint expects.
func normalizeTxs(txs []TransactionParams) ([]TransactionParams, error) {
	if len(txs) == 0 {
		return nil, rpc.ErrInvalidParams("at least one transaction is required")
	}

	normalized := make([]TransactionParams, 0, len(txs))
	for _, tx := range txs {
		if !common.IsHexAddress(tx.To) {
			return nil, rpc.ErrInvalidParams(fmt.Sprintf("invalid to address %q", tx.To))
		}

		value, err := normalizeValue(tx.Value)
		if err != nil {
			return nil, err
		}

		data := tx.Data
		if data == "" {
			data = "0x"
		}

		normalized = append(normalized, TransactionParams{
			To:    common.HexToAddress(tx.To).Hex(),
			Value: value,
			Data:  data,
		})
	}

	return normalized, nil
}

// normalizeValue canonicalizes a wei amount given as either a 0x-prefixed hex
// string or a decimal string into a decimal string.
func normalizeValue(value string) (string, error) {
	if value == "" {
		return "0", nil
	}

	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		n, ok := new(big.Int).SetString(value[2:], 16)
		if !ok {
			return "", rpc.ErrInvalidParams(fmt.Sprintf("invalid hex value %q", value))
		}
		return n.String(), nil
	}

	d, err := decimal.NewFromString(value)
	if err != nil || !d.IsInteger() || d.IsNegative() {
		return "", rpc.ErrInvalidParams(fmt.Sprintf("invalid value %q", value))
	}

	return d.BigInt().String(), nil
}

// parseChainID parses a 0x-prefixed or decimal chain id string.
func parseChainID(raw string) (uint64, error) {
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		n, ok := new(big.Int).SetString(raw[2:], 16)
		if !ok || !n.IsUint64() {
			return 0, rpc.ErrInvalidParams(fmt.Sprintf("invalid chain id %q", raw))
		}
		return n.Uint64(), nil
	}

	n, ok := new(big.Int).SetString(raw, 10)
	if !ok || !n.IsUint64() {
		return 0, rpc.ErrInvalidParams(fmt.Sprintf("invalid chain id %q", raw))
	}

	return n.Uint64(), nil
}

func appName(app AppInfo) string {
	if app.Name != "" {
		return app.Name
	}

	return "An app"
}

// marshalTypedData renders typed data for display in the confirmation flow.
func marshalTypedData(typedData any) string {
	b, err := json.Marshal(typedData)
	if err != nil {
		return ""
	}

	return string(b)
}
