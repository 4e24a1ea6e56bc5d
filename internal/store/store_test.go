package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "open test store")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"telemetry_events", "catalog_cache", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.TelemetryRepo().AppendNotification(ctx, Notification{RunID: "r", Kind: "remediation", Title: "a"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.TelemetryRepo().QueryNotifications(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].Sequence)

	require.NoError(t, s.TelemetryRepo().AppendNotification(ctx, Notification{RunID: "r", Kind: "remediation", Title: "b"}))
	got, err = s.TelemetryRepo().QueryNotifications(ctx, QueryOpts{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), got[0].Sequence, "sequence continues across reopen")
}

func TestNotificationsAppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.TelemetryRepo()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []Notification{
		{RunID: "run-1", Kind: "remediation", Level: "6e", Title: "V1", NextTitle: "V2", StartMonth: "mars", Timestamp: base},
		{RunID: "run-1", Kind: "videofinish", Title: "V1", NextTitle: "V2", Timestamp: base.Add(time.Minute)},
		{RunID: "run-2", Kind: "remediation", Level: "5e", Title: "W1", Timestamp: base.Add(2 * time.Minute)},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendNotification(ctx, e))
	}

	all, err := repo.QueryNotifications(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "W1", all[0].Title, "newest first")
	assert.Equal(t, int64(3), all[0].Sequence)
	assert.True(t, all[2].Timestamp.Equal(base))
	assert.Equal(t, "mars", all[2].StartMonth)

	byKind, err := repo.QueryNotifications(ctx, QueryOpts{Kind: "remediation"})
	require.NoError(t, err)
	assert.Len(t, byKind, 2)

	byRun, err := repo.QueryNotifications(ctx, QueryOpts{RunID: "run-1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, byRun, 1)
	assert.Equal(t, "videofinish", byRun[0].Kind)

	window, err := repo.QueryNotifications(ctx, QueryOpts{After: 1, Before: 3})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, int64(2), window[0].Sequence)

	timed, err := repo.QueryNotifications(ctx, QueryOpts{From: base.Add(30 * time.Second), To: base.Add(90 * time.Second)})
	require.NoError(t, err)
	require.Len(t, timed, 1)
	assert.Equal(t, "videofinish", timed[0].Kind)
}

func TestCatalogCacheSaveLoad(t *testing.T) {
	s := openTestStore(t)
	cache := s.CatalogCache()
	ctx := context.Background()

	payload, _, err := cache.LoadCatalog(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, payload)

	require.NoError(t, cache.SaveCatalog(ctx, "api#6e", []byte(`[{"id":"a"}]`)))
	require.NoError(t, cache.SaveCatalog(ctx, "api#6e", []byte(`[{"id":"b"}]`)))

	payload, savedAt, err := cache.LoadCatalog(ctx, "api#6e")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"b"}]`, string(payload), "upsert replaces the entry")
	assert.WithinDuration(t, time.Now(), savedAt, time.Minute)
}

func TestCatalogCachePrune(t *testing.T) {
	s := openTestStore(t)
	cache := s.CatalogCache()
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c", "d"} {
		require.NoError(t, cache.SaveCatalog(ctx, key, []byte("[]")))
		time.Sleep(2 * time.Millisecond)
	}

	// Fewer than keep entries: no-op.
	require.NoError(t, cache.Prune(ctx, 10))
	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM catalog_cache").Scan(&count))
	assert.Equal(t, 4, count)

	require.NoError(t, cache.Prune(ctx, 2))
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM catalog_cache").Scan(&count))
	assert.Equal(t, 2, count)

	payload, _, err := cache.LoadCatalog(ctx, "d")
	require.NoError(t, err)
	assert.NotNil(t, payload, "newest entry survives")
	payload, _, err = cache.LoadCatalog(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, payload, "oldest entry pruned")
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc, err := newSequenceCounter(s.DB())
	require.NoError(t, err)

	for i := range 5 {
		seq, err := sc.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), seq)
	}
}
