package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/methmouth/Robot/pkg/intent"
	"github.com/methmouth/Robot/pkg/storage"
	sqliteStore "github.com/methmouth/Robot/pkg/storage/sqlite"
)

func setupSQLiteTest(t *testing.T) storage.SnapshotStore {
	t.Helper()
	store, err := sqliteStore.NewStore(&sqliteStore.Config{
		DBPath: filepath.Join(t.TempDir(), "atlas.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleSnapshot() *storage.Snapshot {
	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	return &storage.Snapshot{
		Version: storage.SnapshotVersion,
		SavedAt: at,
		LongTermMemory: []storage.MemoryRecord{
			{ID: 2, Timestamp: at, Kind: "command", Content: map[string]any{"input": "second"}, Importance: 7},
			{ID: 1, Timestamp: at.Add(time.Minute), Kind: "command", Content: map[string]any{"input": "first"}, Importance: 9},
		},
		Preferences: map[string]storage.Preference{
			"favorite_apps":     {Key: "favorite_apps", Value: []any{"maps", "mail"}, Source: "implicit", Confidence: 0.7, LastUpdated: at},
			"preferred_browser": {Key: "preferred_browser", Value: "firefox", Source: "explicit", Confidence: 1, LastUpdated: at},
		},
		Routines: []storage.Routine{
			{Name: "zeta", Actions: []string{"a", "b", "c"}, TimeWindow: "morning", Occurrences: 3, Confidence: 0.5, SuggestedAutomation: true, CreatedAt: at},
			{
				Name: "alpha", TimeWindow: "anytime", Confidence: 1, Automated: true, VoiceTrigger: "alpha", CreatedAt: at,
				Actions: []string{"open_app"},
				Steps:   []storage.Step{{Action: string(intent.ActionOpenApp), Params: map[string]any{"package": "maps"}}},
			},
		},
		Personality: &storage.Personality{Name: "Nova", Tone: "casual", Verbosity: "brief", Proactive: false},
	}
}

func TestSQLiteStoreLoadEmpty(t *testing.T) {
	_, err := setupSQLiteTest(t).Load(context.Background())
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()
	want := sampleSnapshot()

	require.NoError(t, store.Save(ctx, want))
	got, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, want.Personality, got.Personality)
	assert.True(t, want.SavedAt.Equal(got.SavedAt))

	require.Len(t, got.LongTermMemory, 2)
	assert.Equal(t, int64(2), got.LongTermMemory[0].ID, "arrival order is kept")
	assert.Equal(t, "second", got.LongTermMemory[0].Content["input"])
	assert.True(t, want.LongTermMemory[1].Timestamp.Equal(got.LongTermMemory[1].Timestamp))

	require.Len(t, got.Preferences, 2)
	assert.Equal(t, []any{"maps", "mail"}, got.Preferences["favorite_apps"].Value)
	assert.Equal(t, "explicit", got.Preferences["preferred_browser"].Source)

	require.Len(t, got.Routines, 2)
	assert.Equal(t, "zeta", got.Routines[0].Name, "registration order is kept")
	assert.True(t, got.Routines[0].SuggestedAutomation)
	assert.Empty(t, got.Routines[0].Steps)
	assert.True(t, got.Routines[1].Automated)
	require.Len(t, got.Routines[1].Steps, 1)
	assert.Equal(t, "maps", got.Routines[1].Steps[0].Params["package"])
}

func TestSQLiteStoreSaveReplaces(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSnapshot()))
	require.NoError(t, store.Save(ctx, &storage.Snapshot{
		Routines: []storage.Routine{{Name: "only", Actions: []string{"x"}, TimeWindow: "night"}},
	}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.LongTermMemory)
	assert.Empty(t, got.Preferences)
	assert.Nil(t, got.Personality)
	require.Len(t, got.Routines, 1)
	assert.Equal(t, "only", got.Routines[0].Name)
	assert.Equal(t, storage.SnapshotVersion, got.Version)
}

func TestSQLiteStoreCancelledSaveKeepsPrevious(t *testing.T) {
	store := setupSQLiteTest(t)
	require.NoError(t, store.Save(context.Background(), sampleSnapshot()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, store.Save(ctx, &storage.Snapshot{}))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.LongTermMemory, 2)
}

func TestNewStoreRequiresPath(t *testing.T) {
	_, err := sqliteStore.NewStore(&sqliteStore.Config{})
	assert.Error(t, err)
}
