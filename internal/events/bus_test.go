package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-cart/internal/events"
)

func TestEmitFansOutToAllNotifiers(t *testing.T) {
	var seen []events.Event
	record := events.NotifierFunc(func(_ context.Context, ev events.Event) error {
		seen = append(seen, ev)
		return nil
	})
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	bus := &events.Bus{
		Notifiers: []events.Notifier{record, record},
		Clock:     func() time.Time { return fixed },
	}

	err := bus.Emit(context.Background(), events.TopicOrderCreated, "order-1", map[string]string{"token": "abc"})
	require.NoError(t, err)
	require.Len(t, seen, 2)
	require.Equal(t, events.TopicOrderCreated, seen[0].Topic)
	require.Equal(t, "order-1", seen[0].AggregateID)
	require.JSONEq(t, `{"token":"abc"}`, string(seen[0].Payload))
	require.Equal(t, fixed, seen[0].OccurredAt)
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := events.NotifierFunc(func(context.Context, events.Event) error { return boom })
	called := false
	after := events.NotifierFunc(func(context.Context, events.Event) error {
		called = true
		return nil
	})
	bus := &events.Bus{Notifiers: []events.Notifier{failing, after}}

	err := bus.Emit(context.Background(), events.TopicOrderCreated, "order-1", nil)
	require.ErrorIs(t, err, boom)
	require.True(t, called, "later notifiers must still run")
}

func TestEmitValidatesTopicAndAggregate(t *testing.T) {
	bus := &events.Bus{}
	require.Error(t, bus.Emit(context.Background(), "  ", "order-1", nil))
	require.Error(t, bus.Emit(context.Background(), events.TopicOrderCreated, "", nil))
}

func TestNilBusIsNoop(t *testing.T) {
	var bus *events.Bus
	require.NoError(t, bus.Emit(context.Background(), events.TopicOrderCreated, "order-1", nil))
}
