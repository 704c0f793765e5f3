package ratelimit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStoreMissingFileIsFresh(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, NewState(), state)
}

func TestFileStoreRoundTripTruncatesTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := NewFileStore(path)
	ctx := context.Background()

	state := NewState()
	for i := 0; i < 600; i++ {
		state.Timestamps = append(state.Timestamps, float64(1_700_000_000+i))
	}
	state.PenaltyLevel = 3
	state.LastViolationTime = 1_700_000_500
	state.HourlyCount = 42
	state.HourlyReset = 1_700_003_600
	state.DailyCount = 99
	state.DailyReset = 1_700_086_400
	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Timestamps, maxPersistedTimestamps)
	require.Equal(t, float64(1_700_000_100), loaded.Timestamps[0])
	require.Equal(t, float64(1_700_000_599), loaded.Timestamps[len(loaded.Timestamps)-1])
	require.Equal(t, 3, loaded.PenaltyLevel)
	require.Equal(t, 42, loaded.HourlyCount)
	require.Equal(t, 99, loaded.DailyCount)
	require.Equal(t, float64(1_700_086_400), loaded.DailyReset)

	// The caller's copy is left untouched.
	require.Len(t, state.Timestamps, 600)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file should not be left behind")
}

func TestFileStoreWritesSnakeCaseFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, NewFileStore(path).Save(context.Background(), NewState()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{
		"version", "timestamps", "penalty_level", "last_violation_time",
		"last_request_time", "hourly_count", "hourly_reset", "daily_count", "daily_reset",
	} {
		require.Contains(t, doc, key)
	}
	require.Equal(t, float64(StateVersion), doc["version"])
}

func TestFileStoreCorruptFileReportsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"timestamps": "nope"`), 0o600))

	state, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode rate state")
	require.Equal(t, NewState(), state)
}

func TestFileStoreEmptyFileIsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	state, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, NewState(), state)
}

func TestFileStoreSanitizesOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"penalty_level": 99, "hourly_count": -4}`), 0o600))

	state, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateVersion, state.Version)
	require.Equal(t, MaxPenaltyLevel, state.PenaltyLevel)
	require.Zero(t, state.HourlyCount)
	require.NotNil(t, state.Timestamps)
}

func TestFileStoreDeleteMissingIsNoop(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, store.Delete(context.Background()))
}

func TestFileStoreUnconfiguredPath(t *testing.T) {
	store := NewFileStore("")
	state, err := store.Load(context.Background())
	require.Error(t, err)
	require.NotNil(t, state)
	require.Error(t, store.Save(context.Background(), NewState()))
}

func TestMemoryStoreIsolatesCopies(t *testing.T) {
	store := &MemoryStore{}
	ctx := context.Background()

	state := NewState()
	state.Timestamps = append(state.Timestamps, 1)
	require.NoError(t, store.Save(ctx, state))

	state.Timestamps[0] = 999
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []float64{1}, loaded.Timestamps)

	require.NoError(t, store.Delete(ctx))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, loaded.Timestamps)
}

func TestStateNormalizeRollsWindows(t *testing.T) {
	state := NewState()
	state.Timestamps = []float64{100, 3200, 3700}
	state.HourlyCount = 5
	state.HourlyReset = 3600
	state.DailyCount = 7
	state.DailyReset = 90000

	state.normalize(3700)
	require.Equal(t, []float64{3200, 3700}, state.Timestamps)
	require.Zero(t, state.HourlyCount)
	require.Equal(t, float64(7300), state.HourlyReset)
	require.Equal(t, 7, state.DailyCount)
	require.Equal(t, 1, state.countSince(3700, minuteWindow))
	require.Equal(t, 2, state.countSince(3700, tenMinuteWindow))
}
