package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTicker struct {
	ticks []time.Time
}

func (f *fakeTicker) EnqueueTick(now time.Time) {
	f.ticks = append(f.ticks, now)
}

func TestScheduler_RegisterAll(t *testing.T) {
	s := NewScheduler(nil, time.UTC)
	require.NoError(t, s.RegisterAll())
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestScheduler_YearBoundaryNudgesAllTickers(t *testing.T) {
	a := &fakeTicker{}
	b := &fakeTicker{}
	s := NewScheduler([]Ticker{a, b}, time.UTC)

	s.yearBoundary()

	assert.Len(t, a.ticks, 1)
	assert.Len(t, b.ticks, 1)
}
