package layout

import (
	"context"
	"path/filepath"
	"testing"

	"guildsmith/core/database"
	"guildsmith/feature/layout/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "layouts.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &models.LayoutRow{}))
	return NewStore(db)
}

func sampleLayout(roleName string) *models.Layout {
	return &models.Layout{
		Roles: []models.RoleSpec{{Name: roleName}},
		Categories: []models.CategorySpec{{
			Name:     "Main",
			Channels: []models.ChannelSpec{{Name: "general", Type: "text"}},
		}},
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	version, noChange, err := store.Save(ctx, "g1", sampleLayout("Admin"), false)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.False(t, noChange)

	doc, row, err := store.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, row.Version)
	assert.Equal(t, models.TypeSnapshot, row.Type)
	require.Len(t, doc.Roles, 1)
	assert.Equal(t, "Admin", doc.Roles[0].Name)
}

func TestStoreLoadMissing(t *testing.T) {
	store := testStore(t)
	_, _, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreNoChangeSave(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first := sampleLayout("Admin")
	version, _, err := store.Save(ctx, "g1", first, false)
	require.NoError(t, err)

	// Same document, fresh struct: structural equality, not identity.
	version2, noChange, err := store.Save(ctx, "g1", sampleLayout("Admin"), false)
	require.NoError(t, err)
	assert.True(t, noChange)
	assert.Equal(t, version, version2)

	rows, err := store.Versions(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "no-op save must not insert a row")
}

func TestStoreVersionBumpOnChange(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, _, err := store.Save(ctx, "g1", sampleLayout("Admin"), false)
	require.NoError(t, err)
	version, noChange, err := store.Save(ctx, "g1", sampleLayout("Owner"), false)
	require.NoError(t, err)
	assert.False(t, noChange)
	assert.Equal(t, 2, version)
}

func TestStorePrefersActiveOverLatest(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, _, err := store.Save(ctx, "g1", sampleLayout("Active"), true)
	require.NoError(t, err)
	_, _, err = store.Save(ctx, "g1", sampleLayout("Newer"), false)
	require.NoError(t, err)

	doc, row, err := store.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, row.Version)
	assert.Equal(t, models.TypeActive, row.Type)
	assert.Equal(t, "Active", doc.Roles[0].Name)
}

func TestStoreActivateDemotesPreviousActive(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, _, err := store.Save(ctx, "g1", sampleLayout("First"), true)
	require.NoError(t, err)
	_, _, err = store.Save(ctx, "g1", sampleLayout("Second"), true)
	require.NoError(t, err)

	rows, err := store.Versions(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	active := 0
	for _, row := range rows {
		if row.Type == models.TypeActive {
			active++
			assert.Equal(t, 2, row.Version)
		}
	}
	assert.Equal(t, 1, active, "at most one active version per guild")
}

func TestStoreVersionsIsolatedPerGuild(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, _, err := store.Save(ctx, "g1", sampleLayout("A"), false)
	require.NoError(t, err)
	version, _, err := store.Save(ctx, "g2", sampleLayout("B"), false)
	require.NoError(t, err)
	assert.Equal(t, 1, version, "version counters are per guild")
}
