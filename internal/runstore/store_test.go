package runstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nebolabs/webagent/internal/events"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateRunAndGetRunRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, "run-1", "find the wikipedia page"))

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, "run-1", run.ID)
	require.Equal(t, "find the wikipedia page", run.Task)
	require.Equal(t, StatusRunning, run.Status)
	require.Nil(t, run.EndedAt)
}

func TestSetPlanPersistsAgainstExistingRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, "run-1", "task"))
	require.NoError(t, store.SetPlan(ctx, "run-1", "1. do a thing"))

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, "1. do a thing", run.Plan)
}

func TestFinishMarksRunTerminalWithAnswer(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, "run-1", "task"))
	require.NoError(t, store.Finish(ctx, "run-1", StatusCompleted, "the answer", ""))

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, run.Status)
	require.Equal(t, "the answer", run.Answer)
	require.Empty(t, run.Error)
	require.NotNil(t, run.EndedAt)
}

func TestFinishRecordsErrorMessageOnFailure(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, "run-1", "task"))
	require.NoError(t, store.Finish(ctx, "run-1", StatusFailed, "", "llm call failed"))

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, StatusFailed, run.Status)
	require.Equal(t, "llm call failed", run.Error)
}

func TestAppendEventAndListEventsPreservesOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateRun(ctx, "run-1", "task"))

	require.NoError(t, store.AppendEvent(ctx, "run-1", events.Envelope{
		Type: events.TaskStart, Timestamp: 1, Data: events.TaskStartData{Task: "task"},
	}))
	require.NoError(t, store.AppendEvent(ctx, "run-1", events.Envelope{
		Type: events.TaskComplete, Timestamp: 2, Data: events.TaskCompleteData{FinalAnswer: "done"},
	}))

	recs, err := store.ListEvents(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, events.TaskStart, recs[0].Type)
	require.Equal(t, events.TaskComplete, recs[1].Type)
	require.JSONEq(t, `{"task":"task","explanation":"","plan":"","url":""}`, string(recs[0].Payload))
}

func TestSinkPersistsBusEventsAgainstRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateRun(ctx, "run-1", "task"))

	bus := events.NewBus(nil)
	defer bus.Close()
	store.Sink(ctx, bus, "run-1")

	require.NoError(t, bus.Emit(events.TaskStart, events.TaskStartData{Task: "task"}))

	require.Eventually(t, func() bool {
		recs, err := store.ListEvents(ctx, "run-1")
		return err == nil && len(recs) == 1
	}, time.Second, 5*time.Millisecond)
}
