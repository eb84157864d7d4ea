package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAndDrain(t *testing.T) {
	bus := NewBus(4)

	require.True(t, bus.Publish(Event{Kind: AnalysisError, Path: "/a.ts", Err: errors.New("boom")}))
	require.True(t, bus.Publish(Event{Kind: CurrentProject, Project: "web", Path: "/a.ts"}))

	got := bus.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, AnalysisError, got[0].Kind)
	assert.Equal(t, CurrentProject, got[1].Kind)
	assert.Equal(t, "web", got[1].Project)
	assert.Empty(t, bus.Drain())
}

func TestPublishDropsWhenFull(t *testing.T) {
	bus := NewBus(1)

	assert.True(t, bus.Publish(Event{Kind: AnalysisCompleted}))
	assert.False(t, bus.Publish(Event{Kind: AnalysisCompleted}))
	assert.Equal(t, 1, bus.Dropped())
}

func TestClose(t *testing.T) {
	bus := NewBus(0)
	bus.Publish(Event{Kind: AnalysisCompletedEmptyProblems})
	bus.Close()
	bus.Close()

	assert.False(t, bus.Publish(Event{Kind: AnalysisCompleted}))

	var kinds []Kind
	for ev := range bus.Events() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []Kind{AnalysisCompletedEmptyProblems}, kinds)
}

func TestNilBus(t *testing.T) {
	var bus *Bus
	assert.False(t, bus.Publish(Event{Kind: AnalysisError}))
	assert.Nil(t, bus.Drain())
	assert.Equal(t, 0, bus.Dropped())
	assert.NotPanics(t, bus.Close)

	_, ok := <-bus.Events()
	assert.False(t, ok, "a nil bus yields a closed channel")
}

func TestKindWireNames(t *testing.T) {
	assert.Equal(t, "Analysis_Error", string(AnalysisError))
	assert.Equal(t, "Analysis_Completed", string(AnalysisCompleted))
	assert.Equal(t, "Analysis_Completed_Empty_Problems", string(AnalysisCompletedEmptyProblems))
	assert.Equal(t, "CURRENT_PROJECT", string(CurrentProject))
}
