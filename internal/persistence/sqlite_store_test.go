package persistence

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache", "llsub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_TranslationsRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTranslations(ctx, "google", "sv", "en", map[string]string{
		"Hej":      "Hi",
		"Två\nrad": "Two\nlines",
	}))

	got, err := store.LookupTranslations(ctx, "google", "sv", "en", []string{"Hej", "Nej", "Två\nrad", "Hej"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Hej": "Hi", "Två\nrad": "Two\nlines"}, got)
}

func TestSQLiteStore_KeyedByBackendAndLanguages(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTranslations(ctx, "google", "sv", "en", map[string]string{"Hej": "Hi"}))

	for _, key := range [][3]string{{"llm", "sv", "en"}, {"google", "sv", "de"}, {"google", "da", "en"}} {
		got, err := store.LookupTranslations(ctx, key[0], key[1], key[2], []string{"Hej"})
		require.NoError(t, err)
		assert.Empty(t, got, "key %v", key)
	}
}

func TestSQLiteStore_UpsertOverwrites(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTranslations(ctx, "llm", "sv", "en", map[string]string{"Hej": "Hello"}))
	require.NoError(t, store.SaveTranslations(ctx, "llm", "sv", "en", map[string]string{"Hej": "Hi"}))

	got, err := store.LookupTranslations(ctx, "llm", "sv", "en", []string{"Hej"})
	require.NoError(t, err)
	assert.Equal(t, "Hi", got["Hej"])

	n, err := store.CountTranslations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_LookupManyTexts(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	pairs := make(map[string]string)
	texts := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		text := fmt.Sprintf("rad %d", i)
		texts = append(texts, text)
		if i%2 == 0 {
			pairs[text] = fmt.Sprintf("line %d", i)
		}
	}
	require.NoError(t, store.SaveTranslations(ctx, "google", "sv", "en", pairs))

	got, err := store.LookupTranslations(ctx, "google", "sv", "en", texts)
	require.NoError(t, err)
	assert.Equal(t, pairs, got)
}

func TestSQLiteStore_Prune(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	store.now = func() time.Time { return base }
	require.NoError(t, store.SaveTranslations(ctx, "google", "sv", "en", map[string]string{"old": "old"}))
	store.now = func() time.Time { return base.Add(48 * time.Hour) }
	require.NoError(t, store.SaveTranslations(ctx, "google", "sv", "en", map[string]string{"new": "new"}))

	removed, err := store.PruneTranslations(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	got, err := store.LookupTranslations(ctx, "google", "sv", "en", []string{"old", "new"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"new": "new"}, got)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "llsub.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveTranslations(ctx, "google", "sv", "en", map[string]string{"Hej": "Hi"}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	got, err := store.LookupTranslations(ctx, "google", "sv", "en", []string{"Hej"})
	require.NoError(t, err)
	assert.Equal(t, "Hi", got["Hej"])
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("  ")
	assert.Error(t, err)
}

func TestMigrationVersion(t *testing.T) {
	assert.Equal(t, 1, migrationVersion("001_translations.sql"))
	assert.Equal(t, 12, migrationVersion("012"))
	assert.Equal(t, 0, migrationVersion("init.sql"))
}
