package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Bus.Emit runs the handlers before it returns, so the Eventually polls below
// are satisfied on their first check.
const eventualWait = time.Second
const eventualTick = 5 * time.Millisecond

func TestBusDeliversInRegistrationOrder(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	var order []string
	bus.On(TaskStart, func(context.Context, Envelope) error {
		order = append(order, "first")
		return nil
	})
	bus.On(TaskStart, func(context.Context, Envelope) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, bus.Emit(TaskStart, TaskStartData{Task: "t"}))
	require.Eventually(t, func() bool { return len(order) == 2 }, eventualWait, eventualTick)
	require.Equal(t, []string{"first", "second"}, order)
}

func TestBusListenerErrorDoesNotBlockSiblingDelivery(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	var ran []string
	bus.On(TaskComplete, func(context.Context, Envelope) error {
		ran = append(ran, "a")
		return errors.New("listener a failed")
	})
	bus.On(TaskComplete, func(context.Context, Envelope) error {
		ran = append(ran, "b")
		return nil
	})

	require.NoError(t, bus.Emit(TaskComplete, TaskCompleteData{FinalAnswer: "x"}))
	require.Eventually(t, func() bool { return len(ran) == 2 }, eventualWait, eventualTick)
	require.Equal(t, []string{"a", "b"}, ran)
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	var count int
	sub := bus.On(PageNavigation, func(context.Context, Envelope) error {
		count++
		return nil
	})

	require.NoError(t, bus.Emit(PageNavigation, PageNavigationData{Title: "a", URL: "u"}))
	require.Eventually(t, func() bool { return count == 1 }, eventualWait, eventualTick)

	sub.Unsubscribe()
	require.NoError(t, bus.Emit(PageNavigation, PageNavigationData{Title: "b", URL: "u2"}))

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, count)
}

func TestBusOnAllSeesEveryTopic(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	var types []Type
	bus.OnAll(func(_ context.Context, env Envelope) error {
		types = append(types, env.Type)
		return nil
	})

	require.NoError(t, bus.Emit(TaskStart, TaskStartData{Task: "t"}))
	require.NoError(t, bus.Emit(PageNavigation, PageNavigationData{Title: "a", URL: "u"}))
	require.Eventually(t, func() bool { return len(types) == 2 }, eventualWait, eventualTick)
	require.Equal(t, []Type{TaskStart, PageNavigation}, types)
}

func TestBusEmitAfterCloseIsANoop(t *testing.T) {
	bus := NewBus(nil)
	bus.Close()

	require.NoError(t, bus.Emit(TaskStart, TaskStartData{Task: "t"}))
}
