package flow_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/safehost/go-provider/internal/chains"
	"github/safehost/go-provider/internal/events"
	"github/safehost/go-provider/internal/flow"
	"github/safehost/go-provider/internal/gateway"
	"github/safehost/go-provider/internal/metrics"
	"github/safehost/go-provider/internal/notify"
	"github/safehost/go-provider/internal/rpc"
)

const testSafeAddress = "0x57CB13cbef735FbDD65f5f2866638c546464E45F"

type fakeGateway struct {
	details *gateway.TransactionDetails
	err     error
}

func (g *fakeGateway) GetTransactionDetails(_ context.Context, _ uint64, _ string) (*gateway.TransactionDetails, error) {
	return g.details, g.err
}

type fakeProxy struct {
	result any
	err    error

	method string
	params []any
}

func (p *fakeProxy) Send(_ context.Context, method string, params []any) (any, error) {
	p.method = method
	p.params = params
	return p.result, p.err
}

type adapterFixture struct {
	svc  flow.Service
	host *flow.Controller
	bus  *events.Bus
	gw   *fakeGateway
}

func newAdapterFixture(t *testing.T, cfg flow.Config) *adapterFixture {
	t.Helper()

	if cfg.SafeAddress == "" {
		cfg.SafeAddress = testSafeAddress
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = 1
	}
	if cfg.SafeVersion == "" {
		cfg.SafeVersion = "1.3.0"
	}

	bus := events.NewBus()
	host := flow.NewController(bus, metrics.NewTestService())
	gw := &fakeGateway{}

	svc, err := flow.NewService(cfg, chains.NewDefaultRegistry(), gw, &fakeProxy{}, bus, host, notify.NewNopService())
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	return &adapterFixture{svc: svc, host: host, bus: bus, gw: gw}
}

// waitForFlow blocks until the host shows a live flow the given filter accepts.
func waitForFlow(t *testing.T, host *flow.Controller, accept func(f *flow.PendingFlow) bool) *flow.PendingFlow {
	t.Helper()

	var found *flow.PendingFlow
	require.Eventually(t, func() bool {
		for _, f := range host.List() {
			if accept == nil || accept(f) {
				found = f
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	return found
}

func TestNewServiceRejectsInvalidAddress(t *testing.T) {
	bus := events.NewBus()
	host := flow.NewController(bus, metrics.NewTestService())

	_, err := flow.NewService(flow.Config{ChainID: 1, SafeAddress: "not-an-address"},
		chains.NewDefaultRegistry(), &fakeGateway{}, &fakeProxy{}, bus, host, notify.NewNopService())
	require.Error(t, err)
}

func TestSignMessageConfirmed(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{OffChainSigning: true})

	type result struct {
		res *flow.SignResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := fix.svc.SignMessage(context.Background(), "hello", flow.AppInfo{Name: "App"}, "personal_sign")
		done <- result{res, err}
	}()

	f := waitForFlow(t, fix.host, nil)
	assert.Equal(t, flow.KindSignMessage, f.Kind)
	assert.Equal(t, "hello", f.Message)
	assert.True(t, f.OffChain)

	require.NoError(t, fix.host.Confirm(context.Background(), f.ID, flow.ConfirmOutcome{Signature: "0xsig"}))

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, "0xsig", r.res.Signature)

	// the flow is gone once settled
	assert.Empty(t, fix.host.List())
}

func TestSignMessageRejected(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{})

	done := make(chan error, 1)
	go func() {
		_, err := fix.svc.SignMessage(context.Background(), "hello", flow.AppInfo{}, "personal_sign")
		done <- err
	}()

	f := waitForFlow(t, fix.host, nil)
	require.NoError(t, fix.host.Reject(context.Background(), f.ID))

	err := <-done
	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, rpc.CodeUserRejected, rpcErr.Code)
}

func TestNewFlowRejectsPrevious(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{})

	first := make(chan error, 1)
	go func() {
		_, err := fix.svc.SignMessage(context.Background(), "first", flow.AppInfo{}, "personal_sign")
		first <- err
	}()

	waitForFlow(t, fix.host, func(f *flow.PendingFlow) bool { return f.Message == "first" })

	second := make(chan error, 1)
	go func() {
		_, err := fix.svc.SignMessage(context.Background(), "second", flow.AppInfo{}, "personal_sign")
		second <- err
	}()

	f := waitForFlow(t, fix.host, func(f *flow.PendingFlow) bool { return f.Message == "second" })

	// opening the second flow rejected the first request
	err := <-first
	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, rpc.CodeUserRejected, rpcErr.Code)

	require.NoError(t, fix.host.Confirm(context.Background(), f.ID, flow.ConfirmOutcome{Signature: "0xsig"}))
	require.NoError(t, <-second)
}

func TestSignTypedMessageCarriesDispatchedMethod(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{OffChainSigning: true})

	done := make(chan error, 1)
	go func() {
		_, err := fix.svc.SignTypedMessage(context.Background(),
			map[string]any{"domain": map[string]any{}}, flow.AppInfo{}, "eth_signTypedData_v4")
		done <- err
	}()

	f := waitForFlow(t, fix.host, nil)
	assert.Equal(t, flow.KindSignTypedMessage, f.Kind)
	assert.Equal(t, "eth_signTypedData_v4", f.SignMethod)

	require.NoError(t, fix.host.Confirm(context.Background(), f.ID, flow.ConfirmOutcome{Signature: "0xsig"}))
	require.NoError(t, <-done)
}

func TestSignatureEventSettlesPendingRequest(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{})

	type result struct {
		res *flow.SignResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := fix.svc.SignMessage(context.Background(), "hello", flow.AppInfo{}, "eth_sign")
		done <- result{res, err}
	}()

	f := waitForFlow(t, fix.host, nil)

	fix.bus.Publish(events.TopicSignaturePrepared, events.SignaturePreparedEvent{
		RequestID: f.ID,
		Signature: "0xeventsig",
	})

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, "0xeventsig", r.res.Signature)

	// settling through the event already cleared the flow; a late reject
	// cannot settle the request a second time
	require.Error(t, fix.host.Reject(context.Background(), f.ID))
}

func TestSendConfirmedResolvesKnownTxHash(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{})

	type result struct {
		res *flow.SendResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := fix.svc.Send(context.Background(), flow.SendParams{
			Txs: []flow.TransactionParams{{To: testSafeAddress, Value: "0x1", Data: "0x"}},
		}, flow.AppInfo{})
		done <- result{res, err}
	}()

	f := waitForFlow(t, fix.host, nil)
	assert.Equal(t, flow.KindSendTransaction, f.Kind)

	// the execution hash arrives from the watcher before the human confirms
	fix.bus.Publish(events.TopicTxProcessing, events.TxProcessingEvent{TxID: "multisig_0x1", TxHash: "0xchainhash"})

	require.NoError(t, fix.host.Confirm(context.Background(), f.ID, flow.ConfirmOutcome{
		TxID:       "multisig_0x1",
		SafeTxHash: "0xsafetxhash",
	}))

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, "0xsafetxhash", r.res.SafeTxHash)
	assert.Equal(t, "0xchainhash", r.res.TxHash)
}

func TestSendConfirmedWithoutKnownTxHash(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{})

	type result struct {
		res *flow.SendResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := fix.svc.Send(context.Background(), flow.SendParams{
			Txs: []flow.TransactionParams{{To: testSafeAddress}},
		}, flow.AppInfo{})
		done <- result{res, err}
	}()

	f := waitForFlow(t, fix.host, nil)
	require.NoError(t, fix.host.Confirm(context.Background(), f.ID, flow.ConfirmOutcome{
		TxID:       "multisig_0x2",
		SafeTxHash: "0xsafetxhash",
	}))

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, "0xsafetxhash", r.res.SafeTxHash)
	assert.Empty(t, r.res.TxHash)
}

func TestSendConfirmWithoutSafeTxHashKeepsRequestSettleable(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{})

	done := make(chan error, 1)
	go func() {
		_, err := fix.svc.Send(context.Background(), flow.SendParams{
			Txs: []flow.TransactionParams{{To: testSafeAddress}},
		}, flow.AppInfo{})
		done <- err
	}()

	f := waitForFlow(t, fix.host, nil)
	require.Error(t, fix.host.Confirm(context.Background(), f.ID, flow.ConfirmOutcome{TxID: "multisig_0x1"}))

	// the incomplete confirm did not unmount the flow; the pending request
	// can still be rejected and settles with USER_REJECTED
	require.Len(t, fix.host.List(), 1)
	require.NoError(t, fix.host.Reject(context.Background(), f.ID))

	err := <-done
	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, rpc.CodeUserRejected, rpcErr.Code)
}

func TestSendNormalizesTransactions(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{})

	done := make(chan error, 1)
	go func() {
		_, err := fix.svc.Send(context.Background(), flow.SendParams{
			Txs: []flow.TransactionParams{{
				To:    "0x57cb13cbef735fbdd65f5f2866638c546464e45f",
				Value: "0xde0b6b3a7640000",
			}},
		}, flow.AppInfo{})
		done <- err
	}()

	f := waitForFlow(t, fix.host, nil)
	require.Len(t, f.Txs, 1)
	assert.Equal(t, testSafeAddress, f.Txs[0].To)
	assert.Equal(t, "1000000000000000000", f.Txs[0].Value)
	assert.Equal(t, "0x", f.Txs[0].Data)

	require.NoError(t, fix.host.Confirm(context.Background(), f.ID, flow.ConfirmOutcome{SafeTxHash: "0xsafetxhash"}))
	require.NoError(t, <-done)
}

func TestSendInvalidParamsOpensNoFlow(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{})

	_, err := fix.svc.Send(context.Background(), flow.SendParams{
		Txs: []flow.TransactionParams{{To: "bogus"}},
	}, flow.AppInfo{})

	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, rpc.CodeInvalidParams, rpcErr.Code)
	assert.Empty(t, fix.host.List())

	_, err = fix.svc.Send(context.Background(), flow.SendParams{}, flow.AppInfo{})
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, rpc.CodeInvalidParams, rpcErr.Code)
}

func TestSwitchChainToSameChainIsNoop(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{ChainID: 1})

	require.NoError(t, fix.svc.SwitchChain(context.Background(), "0x1", flow.AppInfo{}))
	assert.Empty(t, fix.host.List())
}

func TestSwitchChainUnknownChain(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{ChainID: 1})

	err := fix.svc.SwitchChain(context.Background(), "0x12345678", flow.AppInfo{})
	require.Error(t, err)
	assert.Empty(t, fix.host.List())
}

func TestSwitchChainInvalidChainID(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{ChainID: 1})

	err := fix.svc.SwitchChain(context.Background(), "bogus", flow.AppInfo{})

	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, rpc.CodeInvalidParams, rpcErr.Code)
}

func TestSwitchChainResolvesBeforeConfirmation(t *testing.T) {
	var navigated uint64
	fix := newAdapterFixture(t, flow.Config{
		ChainID:  1,
		Navigate: func(chainID uint64) { navigated = chainID },
	})

	// resolves immediately, without waiting for the human
	require.NoError(t, fix.svc.SwitchChain(context.Background(), "0x64", flow.AppInfo{}))

	f := waitForFlow(t, fix.host, nil)
	assert.Equal(t, flow.KindSwitchChain, f.Kind)
	assert.Equal(t, uint64(100), f.TargetChainID)
	assert.Zero(t, navigated)

	require.NoError(t, fix.host.Confirm(context.Background(), f.ID, flow.ConfirmOutcome{}))
	assert.Equal(t, uint64(100), navigated)
}

func TestSetSafeSettings(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{OffChainSigning: true})

	settings := fix.svc.SetSafeSettings(flow.SafeSettings{OffChainSigning: false})
	assert.False(t, settings.OffChainSigning)

	settings = fix.svc.SetSafeSettings(flow.SafeSettings{OffChainSigning: true})
	assert.True(t, settings.OffChainSigning)
}

func TestOffChainSigningDisabledByForce(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{OffChainSigning: true, ForceOnChainSigning: true})

	go func() {
		_, _ = fix.svc.SignMessage(context.Background(), "hello", flow.AppInfo{}, "personal_sign")
	}()

	f := waitForFlow(t, fix.host, nil)
	assert.False(t, f.OffChain)
}

func TestOffChainSigningDisabledOnUnsupportedChain(t *testing.T) {
	// Aurora does not advertise EIP-1271 support
	fix := newAdapterFixture(t, flow.Config{ChainID: 1313161554, OffChainSigning: true})

	go func() {
		_, _ = fix.svc.SignMessage(context.Background(), "hello", flow.AppInfo{}, "personal_sign")
	}()

	f := waitForFlow(t, fix.host, nil)
	assert.False(t, f.OffChain)
}

func TestAwaitAbandonedOnContextCancel(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := fix.svc.SignMessage(ctx, "hello", flow.AppInfo{}, "personal_sign")
		done <- err
	}()

	f := waitForFlow(t, fix.host, nil)
	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)

	// the abandoned flow was unmounted; a late confirm settles nothing
	require.Eventually(t, func() bool {
		return fix.host.Confirm(context.Background(), f.ID, flow.ConfirmOutcome{Signature: "0x"}) != nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestShowTxStatusNotifies(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{})
	fix.gw.details = &gateway.TransactionDetails{TxStatus: gateway.TxStatusAwaitingConfirmations}

	require.NoError(t, fix.svc.ShowTxStatus(context.Background(), "0xsafetxhash"))
}

func TestGetBySafeTxHashWrapsGatewayError(t *testing.T) {
	fix := newAdapterFixture(t, flow.Config{})
	fix.gw.err = assert.AnError

	_, err := fix.svc.GetBySafeTxHash(context.Background(), "0xsafetxhash")
	require.ErrorIs(t, err, assert.AnError)
}
