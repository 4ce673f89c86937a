package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSession_StepsAppendInOrder(t *testing.T) {
	s := New(zap.NewNop())

	s.AddStep("Orchestrator", "intent_start", map[string]any{"text": "sync"})
	s.AddStep("gmail", "executing_sync_eisenhauer", nil)
	s.AddStep("gmail", "result_ready", nil)

	steps := s.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, "intent_start", steps[0].Action)
	assert.Equal(t, "result_ready", steps[2].Action)
	assert.False(t, steps[1].Timestamp.Before(steps[0].Timestamp))
}

func TestSession_SummaryDeduplicatesAgents(t *testing.T) {
	s := New(zap.NewNop())

	s.AddStep("Orchestrator", "intent_start", nil)
	s.AddStep("gmail", "executing", nil)
	s.AddStep("gmail", "result_ready", nil)
	s.AddStep("ms_graph", "executing", nil)
	s.Complete(map[string]any{"text": "done"})

	sum := s.Summary()
	assert.NotEmpty(t, sum.SessionID)
	assert.Equal(t, 4, sum.Steps)
	assert.Equal(t, []string{"Orchestrator", "gmail", "ms_graph"}, sum.AgentsUsed)
	assert.NotEmpty(t, sum.Duration)
}

func TestSession_CompleteStoresFinalResponse(t *testing.T) {
	s := New(zap.NewNop())

	assert.Nil(t, s.Final())
	s.Complete("Hier ist dein Überblick.")
	assert.Equal(t, "Hier ist dein Überblick.", s.Final())
}

func TestSession_ConcurrentAppends(t *testing.T) {
	s := New(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.AddStep(fmt.Sprintf("agent-%d", n%4), "step", nil)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Summary().Steps)
}

func TestSession_UniqueIDs(t *testing.T) {
	a, b := New(zap.NewNop()), New(zap.NewNop())
	assert.NotEqual(t, a.ID(), b.ID())
}
