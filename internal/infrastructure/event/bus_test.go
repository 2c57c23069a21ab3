package event

import (
	"context"
	"errors"
	"testing"

	"github.com/gasdist/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startedBus(t *testing.T) *InMemoryEventBus {
	t.Helper()
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	return bus
}

func TestInMemoryEventBus_DeliversByType(t *testing.T) {
	bus := startedBus(t)
	approvals := testutil.NewMockEventHandler("approval.approved", "approval.rejected")
	all := testutil.NewMockEventHandler()
	bus.Subscribe(approvals)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		testutil.NewTestEvent("approval.approved"),
		testutil.NewTestEvent("approval.submitted"),
		testutil.NewTestEvent("approval.rejected"),
	))

	assert.Equal(t, []string{"approval.approved", "approval.rejected"}, approvals.HandledTypes())
	assert.Equal(t, []string{"approval.approved", "approval.submitted", "approval.rejected"}, all.HandledTypes())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := startedBus(t)
	h := testutil.NewMockEventHandler("a")
	bus.Subscribe(h, "b")

	require.NoError(t, bus.Publish(context.Background(), testutil.NewTestEvent("a"), testutil.NewTestEvent("b")))
	assert.Equal(t, []string{"b"}, h.HandledTypes())
}

func TestInMemoryEventBus_FailuresDoNotStopDelivery(t *testing.T) {
	bus := startedBus(t)
	failing := testutil.NewMockEventHandler()
	failing.SetError(errors.New("webhook down"))
	panicking := testutil.NewMockEventHandler()
	panicking.SetPanic("boom")
	healthy := testutil.NewMockEventHandler()
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), testutil.NewTestEvent("x")))
	assert.Equal(t, []string{"x"}, healthy.HandledTypes())
	assert.Equal(t, int64(2), bus.Failures())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := startedBus(t)
	h := testutil.NewMockEventHandler()
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), testutil.NewTestEvent("x")))
	assert.Empty(t, h.HandledTypes())
}

func TestInMemoryEventBus_StoppedDropsEvents(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := testutil.NewMockEventHandler()
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), testutil.NewTestEvent("early")))
	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), testutil.NewTestEvent("live")))
	require.NoError(t, bus.Stop(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), testutil.NewTestEvent("late")))

	assert.Equal(t, []string{"live"}, h.HandledTypes())
}

func TestHandlerRegistry_RegisterTwiceExtendsTypes(t *testing.T) {
	r := NewHandlerRegistry()
	h := testutil.NewMockEventHandler()
	r.Register(h, "a")
	r.Register(h, "b")

	assert.Equal(t, 1, r.Len())
	assert.Len(t, r.HandlersFor("a"), 1)
	assert.Len(t, r.HandlersFor("b"), 1)
	assert.Empty(t, r.HandlersFor("c"))

	r.Register(h)
	assert.Len(t, r.HandlersFor("c"), 1, "wildcard registration widens to all events")
}
