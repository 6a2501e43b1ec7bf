package persist

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solardelta/internal/model"
)

func TestSlug(t *testing.T) {
	assert.Equal(t, "pool_pump", Slug("Pool Pump"))
	assert.Equal(t, "wallbox_garage", Slug("  Wallbox (Garage) "))
	assert.Equal(t, "heater2", Slug("Heater2"))
	assert.Equal(t, "a_b_c", Slug("a--b__c"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "pool_pump:session", Key("pool_pump", model.AverageKey(model.ScopeSession, model.ModeUnaware)))
	assert.Equal(t, "pool_pump:year_aware", Key("pool_pump", model.AverageKey(model.ScopeYear, model.ModeAware)))
}

func TestMemoryStore_Roundtrip(t *testing.T) {
	s := NewMemoryStore()

	_, ok, err := s.Load("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	st := model.AccumulatorState{
		WeightedSum:   180000,
		ActiveSeconds: 3600,
		LastTimestamp: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Save("k", st))

	got, ok, err := s.Load("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st, got)
}

func TestSQLiteStore_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Load("pool_pump:session")
	require.NoError(t, err)
	assert.False(t, ok)

	ts := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	st := model.AccumulatorState{WeightedSum: 800, ActiveSeconds: 10, LastTimestamp: ts}
	require.NoError(t, s.Save("pool_pump:session", st))

	got, ok, err := s.Load("pool_pump:session")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 800, got.WeightedSum, 0.001)
	assert.InDelta(t, 10, got.ActiveSeconds, 0.001)
	assert.True(t, got.LastTimestamp.Equal(ts))

	// Overwrite keeps a single current row per key
	st.ActiveSeconds = 20
	require.NoError(t, s.Save("pool_pump:session", st))
	got, ok, err = s.Load("pool_pump:session")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 20, got.ActiveSeconds, 0.001)
}

func TestSQLiteStore_UnanchoredTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save("k", model.AccumulatorState{}))
	got, ok, err := s.Load("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.LastTimestamp.IsZero())
}
