package flow

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/safehost/go-provider/internal/events"
	"github/safehost/go-provider/internal/metrics"
)

func newTestController() (*Controller, *events.Bus) {
	bus := events.NewBus()
	return NewController(bus, metrics.NewTestService()), bus
}

func TestControllerOpenReplacesPreviousFlow(t *testing.T) {
	c, _ := newTestController()

	closed := 0
	c.Open(&PendingFlow{ID: "first", Kind: KindSignMessage, onClose: func() { closed++ }})
	c.Open(&PendingFlow{ID: "second", Kind: KindSignMessage})

	assert.Equal(t, 1, closed)

	flows := c.List()
	require.Len(t, flows, 1)
	assert.Equal(t, "second", flows[0].ID)
}

func TestControllerCloseFiresCallbackOnce(t *testing.T) {
	c, _ := newTestController()

	closed := 0
	f := &PendingFlow{ID: "first", Kind: KindSignMessage, onClose: func() { closed++ }}
	c.Open(f)

	require.NoError(t, c.Reject(context.Background(), "first"))
	c.close(f)

	assert.Equal(t, 1, closed)
}

func TestControllerOpenPublishesFlowClosedEvent(t *testing.T) {
	c, bus := newTestController()

	var closedIDs []string
	unsub := bus.Subscribe(events.TopicFlowClosed, func(event any) {
		if e, ok := event.(events.FlowClosedEvent); ok {
			closedIDs = append(closedIDs, e.RequestID)
		}
	})
	defer unsub()

	c.Open(&PendingFlow{ID: "first", Kind: KindSignMessage})
	c.Open(&PendingFlow{ID: "second", Kind: KindSignMessage})

	assert.Equal(t, []string{"first"}, closedIDs)
}

func TestControllerConfirmUnknownID(t *testing.T) {
	c, _ := newTestController()

	require.Error(t, c.Confirm(context.Background(), "missing", ConfirmOutcome{}))

	c.Open(&PendingFlow{ID: "live", Kind: KindSignMessage})
	require.Error(t, c.Confirm(context.Background(), "other", ConfirmOutcome{}))
}

func TestControllerConfirmPassesOutcome(t *testing.T) {
	c, _ := newTestController()

	var got ConfirmOutcome
	c.Open(&PendingFlow{
		ID:   "live",
		Kind: KindSendTransaction,
		onConfirm: func(_ context.Context, outcome ConfirmOutcome) error {
			got = outcome
			return nil
		},
	})

	require.NoError(t, c.Confirm(context.Background(), "live", ConfirmOutcome{SafeTxHash: "0xhash"}))
	assert.Equal(t, "0xhash", got.SafeTxHash)
	assert.Empty(t, c.List())
}

func TestControllerConfirmErrorKeepsFlowLive(t *testing.T) {
	c, _ := newTestController()

	closed := 0
	c.Open(&PendingFlow{
		ID:      "live",
		Kind:    KindSendTransaction,
		onClose: func() { closed++ },
		onConfirm: func(_ context.Context, outcome ConfirmOutcome) error {
			if outcome.SafeTxHash == "" {
				return errors.New("safeTxHash is required")
			}
			return nil
		},
	})

	require.Error(t, c.Confirm(context.Background(), "live", ConfirmOutcome{TxID: "multisig_0x1"}))

	// a failed confirm leaves the flow mounted so it can still be settled
	flows := c.List()
	require.Len(t, flows, 1)
	assert.Equal(t, "live", flows[0].ID)
	assert.Zero(t, closed)

	require.NoError(t, c.Confirm(context.Background(), "live", ConfirmOutcome{SafeTxHash: "0xhash"}))
	assert.Empty(t, c.List())
}

func TestControllerClearSkipsCloseCallback(t *testing.T) {
	c, _ := newTestController()

	closed := false
	c.Open(&PendingFlow{ID: "live", Kind: KindSignMessage, onClose: func() { closed = true }})

	c.Clear("other")
	require.Len(t, c.List(), 1)

	c.Clear("live")
	assert.Empty(t, c.List())
	assert.False(t, closed)
}
