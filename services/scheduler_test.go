package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartEngineSchedulerRegistersAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	sched := StartEngineScheduler(ctx, &ChallengeService{}, &SkillService{})
	require.NotNil(t, sched)
	assert.Len(t, sched.Jobs(), 2)

	// Cancelling the context shuts the scheduler down through the watcher
	// goroutine; give it a beat to run before the test tears down.
	cancel()
	time.Sleep(50 * time.Millisecond)
}
