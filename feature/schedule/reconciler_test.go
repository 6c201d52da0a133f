package schedule

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"guildsmith/core/database"
	"guildsmith/core/platform"
	"guildsmith/core/twitch"
	"guildsmith/feature/schedule/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// eventGuild is a platform.Guild fake covering only the scheduled-event
// surface the reconciler touches.
type eventGuild struct {
	id      string
	events  []platform.ScheduledEvent
	nextID  int
	creates int
	edits   int
}

func (g *eventGuild) ID() string   { return g.id }
func (g *eventGuild) Name() string { return "test guild" }

func (g *eventGuild) Roles() ([]platform.Role, error)          { return nil, nil }
func (g *eventGuild) Categories() ([]platform.Category, error) { return nil, nil }
func (g *eventGuild) Channels() ([]platform.Channel, error)    { return nil, nil }

func (g *eventGuild) CreateRole(context.Context, string, int, *platform.Permissions) (platform.Role, error) {
	return platform.Role{}, nil
}
func (g *eventGuild) EditRole(context.Context, string, platform.RoleEdit) error   { return nil }
func (g *eventGuild) DeleteRole(context.Context, string) error                    { return nil }
func (g *eventGuild) BulkRoleReposition(context.Context, map[string]int) error    { return nil }
func (g *eventGuild) CreateCategory(context.Context, string, map[string]platform.Overwrite) (platform.Category, error) {
	return platform.Category{}, nil
}
func (g *eventGuild) EditCategory(context.Context, string, platform.CategoryEdit) error { return nil }
func (g *eventGuild) DeleteCategory(context.Context, string) error                      { return nil }
func (g *eventGuild) CreateChannel(context.Context, platform.ChannelCreate) (platform.Channel, error) {
	return platform.Channel{}, nil
}
func (g *eventGuild) EditChannel(context.Context, string, platform.ChannelEdit) error { return nil }
func (g *eventGuild) DeleteChannel(context.Context, string) error                     { return nil }
func (g *eventGuild) CommunityEnabled() bool                                          { return false }
func (g *eventGuild) EnableCommunity(context.Context) error                           { return nil }
func (g *eventGuild) EditCommunitySettings(context.Context, platform.CommunityEdit) error {
	return nil
}

func (g *eventGuild) ScheduledEvents(context.Context) ([]platform.ScheduledEvent, error) {
	return append([]platform.ScheduledEvent{}, g.events...), nil
}

func (g *eventGuild) CreateScheduledEvent(_ context.Context, create platform.EventCreate) (platform.ScheduledEvent, error) {
	g.creates++
	g.nextID++
	ev := platform.ScheduledEvent{
		ID:          fmt.Sprintf("n%d", g.nextID),
		Name:        create.Name,
		Description: create.Description,
		Start:       create.Start,
		End:         create.End,
		Status:      platform.EventStatus("scheduled"),
		ChannelID:   create.ChannelID,
	}
	g.events = append(g.events, ev)
	return ev, nil
}

func (g *eventGuild) EditScheduledEvent(_ context.Context, eventID string, edit platform.EventEdit) error {
	g.edits++
	for i := range g.events {
		if g.events[i].ID != eventID {
			continue
		}
		if edit.Name != nil {
			g.events[i].Name = *edit.Name
		}
		if edit.Description != nil {
			g.events[i].Description = *edit.Description
		}
		if edit.Start != nil {
			g.events[i].Start = *edit.Start
		}
		if edit.End != nil {
			g.events[i].End = *edit.End
		}
		return nil
	}
	return fmt.Errorf("event %s not found", eventID)
}

// fakeStream is an in-memory StreamAPI recording mutations.
type fakeStream struct {
	segments []twitch.Segment
	nextID   int
	creates  int
	updates  int
	deletes  int
}

func (f *fakeStream) ScheduleSegments(context.Context, string, string) ([]twitch.Segment, error) {
	return append([]twitch.Segment{}, f.segments...), nil
}

func (f *fakeStream) CreateSegment(_ context.Context, _, _ string, params twitch.CreateSegmentParams) (twitch.Segment, error) {
	f.creates++
	f.nextID++
	seg := twitch.Segment{
		ID:        fmt.Sprintf("s%d", f.nextID),
		Title:     params.Title,
		StartTime: params.Start.UTC().Format(time.RFC3339),
		EndTime:   params.Start.Add(time.Duration(params.DurationMinutes) * time.Minute).UTC().Format(time.RFC3339),
	}
	f.segments = append(f.segments, seg)
	return seg, nil
}

func (f *fakeStream) UpdateSegment(_ context.Context, _, _, segmentID string, params twitch.UpdateSegmentParams) error {
	f.updates++
	for i := range f.segments {
		if f.segments[i].ID != segmentID {
			continue
		}
		if params.Title != nil {
			f.segments[i].Title = *params.Title
		}
		if params.Start != nil {
			f.segments[i].StartTime = params.Start.UTC().Format(time.RFC3339)
		}
		return nil
	}
	return fmt.Errorf("segment %s not found", segmentID)
}

func (f *fakeStream) DeleteSegment(_ context.Context, _, _, segmentID string) error {
	f.deletes++
	for i := range f.segments {
		if f.segments[i].ID == segmentID {
			f.segments = append(f.segments[:i], f.segments[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("segment %s not found", segmentID)
}

type syncFixture struct {
	store      *Store
	guild      *eventGuild
	stream     *fakeStream
	reconciler *Reconciler
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "schedule.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db,
		&models.CrosswalkRow{}, &models.SyncSettings{}, &models.TwitchCredential{}))

	store := NewStore(db)
	ctx := context.Background()
	require.NoError(t, store.SaveSettings(ctx, &models.SyncSettings{
		GuildID:       "g1",
		SyncEnabled:   true,
		BroadcasterID: "b1",
	}))
	require.NoError(t, db.Create(&models.TwitchCredential{
		GuildID:       "g1",
		BroadcasterID: "b1",
		RefreshToken:  "seed",
	}).Error)

	guild := &eventGuild{id: "g1"}
	stream := &fakeStream{}
	reconciler := NewReconciler(store, func(string) (platform.Guild, error) {
		return guild, nil
	}, stream, zap.NewNop())

	return &syncFixture{store: store, guild: guild, stream: stream, reconciler: reconciler}
}

func (f *syncFixture) pair(t *testing.T, nativeID, externalID, hash string) *models.CrosswalkRow {
	t.Helper()
	row := &models.CrosswalkRow{
		GuildID:         "g1",
		NativeEventID:   nativeID,
		ExternalEventID: externalID,
		Source:          models.SourceBoth,
		ContentHash:     hash,
	}
	require.NoError(t, f.store.SaveRow(context.Background(), row))
	return row
}

func (f *syncFixture) rows(t *testing.T) []models.CrosswalkRow {
	t.Helper()
	rows, err := f.store.RowsForGuild(context.Background(), "g1")
	require.NoError(t, err)
	return rows
}

func TestSyncHashEqualIsNoOp(t *testing.T) {
	f := newSyncFixture(t)
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	f.guild.events = []platform.ScheduledEvent{{
		ID: "n1", Name: "Show", Start: start, End: start.Add(time.Hour),
	}}
	f.stream.segments = []twitch.Segment{{
		ID: "s1", Title: "Show",
		StartTime: "2026-03-01T18:00:00Z", EndTime: "2026-03-01T19:00:00Z",
	}}
	f.pair(t, "n1", "s1", "")

	require.NoError(t, f.reconciler.SyncGuild(context.Background(), "g1"))

	assert.Zero(t, f.guild.edits)
	assert.Zero(t, f.stream.updates)
	assert.Zero(t, f.stream.creates)
	assert.Zero(t, f.guild.creates)

	rows := f.rows(t)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].LastSyncedAt.IsZero(), "no-op still refreshes last_synced_at")
	assert.NotEmpty(t, rows[0].ContentHash)
}

func TestSyncExternalNewerPushesToNative(t *testing.T) {
	f := newSyncFixture(t)
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	f.guild.events = []platform.ScheduledEvent{{
		ID: "n1", Name: "Old Title", Start: start,
	}}
	f.stream.segments = []twitch.Segment{{
		ID: "s1", Title: "New Title",
		StartTime: "2026-03-01T18:00:00Z",
		UpdatedAt: "2026-03-01T18:01:00Z",
	}}
	f.pair(t, "n1", "s1", "stale")

	require.NoError(t, f.reconciler.SyncGuild(context.Background(), "g1"))

	require.Equal(t, 1, f.guild.edits, "external side wins, native is edited")
	assert.Zero(t, f.stream.updates)
	assert.Equal(t, "New Title", f.guild.events[0].Name)

	rows := f.rows(t)
	require.Len(t, rows, 1)
	extHash := Hash(FromSegment(f.stream.segments[0]))
	assert.Equal(t, extHash, rows[0].ContentHash)
}

func TestSyncNativeNewerPushesToExternal(t *testing.T) {
	f := newSyncFixture(t)
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	f.guild.events = []platform.ScheduledEvent{{
		ID: "n1", Name: "Native Title", Start: start,
	}}
	f.stream.segments = []twitch.Segment{{
		ID: "s1", Title: "Stale Title",
		StartTime: "2026-03-01T18:00:00Z",
		UpdatedAt: "2026-03-01T17:00:00Z",
	}}
	f.pair(t, "n1", "s1", "stale")

	require.NoError(t, f.reconciler.SyncGuild(context.Background(), "g1"))

	require.Equal(t, 1, f.stream.updates)
	assert.Zero(t, f.guild.edits)
	assert.Equal(t, "Native Title", f.stream.segments[0].Title)
}

func TestSyncRecreatesVanishedSegment(t *testing.T) {
	f := newSyncFixture(t)
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	f.guild.events = []platform.ScheduledEvent{{
		ID: "n1", Name: "Show", Start: start, End: start.Add(time.Hour),
	}}
	f.pair(t, "n1", "gone", "old")

	require.NoError(t, f.reconciler.SyncGuild(context.Background(), "g1"))

	require.Equal(t, 1, f.stream.creates)
	rows := f.rows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, f.stream.segments[0].ID, rows[0].ExternalEventID)
	assert.Equal(t, "n1", rows[0].NativeEventID)
}

func TestSyncDanglingRowUntouched(t *testing.T) {
	f := newSyncFixture(t)
	row := f.pair(t, "gone-native", "gone-external", "old")
	before := row.LastSyncedAt

	require.NoError(t, f.reconciler.SyncGuild(context.Background(), "g1"))

	assert.Zero(t, f.guild.creates)
	assert.Zero(t, f.stream.creates)
	rows := f.rows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, before.Unix(), rows[0].LastSyncedAt.Unix(), "dangling rows stay as they are")
}

func TestSyncNativeOrphanFuzzyMatches(t *testing.T) {
	f := newSyncFixture(t)
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	f.guild.events = []platform.ScheduledEvent{{
		ID: "n1", Name: "Weekly Show", Start: start,
	}}
	// Same title, start exactly 30 minutes later: inside the window.
	f.stream.segments = []twitch.Segment{{
		ID: "s1", Title: "weekly  show",
		StartTime: "2026-03-01T18:30:00Z",
	}}

	require.NoError(t, f.reconciler.SyncGuild(context.Background(), "g1"))

	assert.Equal(t, 1, f.stream.updates, "matched segment is updated, not recreated")
	assert.Zero(t, f.stream.creates)
	rows := f.rows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, models.SourceBoth, rows[0].Source)
	assert.Equal(t, "n1", rows[0].NativeEventID)
	assert.Equal(t, "s1", rows[0].ExternalEventID)
}

func TestSyncOrphansOutsideWindowBothCreated(t *testing.T) {
	f := newSyncFixture(t)
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	f.guild.events = []platform.ScheduledEvent{{
		ID: "n1", Name: "Weekly Show", Start: start,
	}}
	f.guild.nextID = 1 // seeded n1 directly; keep the fake's counter past it
	// 1801 seconds apart: just outside the window, no pairing.
	f.stream.segments = []twitch.Segment{{
		ID: "s1", Title: "Weekly Show",
		StartTime: "2026-03-01T18:30:01Z",
	}}
	f.stream.nextID = 1 // seeded s1 directly; keep the fake's counter past it

	require.NoError(t, f.reconciler.SyncGuild(context.Background(), "g1"))

	assert.Equal(t, 1, f.stream.creates, "native orphan becomes a new segment")
	assert.Equal(t, 1, f.guild.creates, "external orphan becomes a new event")

	rows := f.rows(t)
	require.Len(t, rows, 2)
	sources := map[string]bool{}
	for _, row := range rows {
		sources[row.Source] = true
	}
	assert.True(t, sources[models.SourceDiscord])
	assert.True(t, sources[models.SourceTwitch])
}

func TestSyncExternalOrphanCreatesNativeEvent(t *testing.T) {
	f := newSyncFixture(t)
	f.stream.segments = []twitch.Segment{{
		ID: "s1", Title: "Stream Night",
		StartTime: "2026-03-01T20:00:00Z",
	}}

	require.NoError(t, f.reconciler.SyncGuild(context.Background(), "g1"))

	require.Equal(t, 1, f.guild.creates)
	assert.Equal(t, "Stream Night", f.guild.events[0].Name)
	assert.Equal(t, f.guild.events[0].Start.Add(time.Hour), f.guild.events[0].End,
		"missing end defaults to one hour")

	rows := f.rows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, models.SourceTwitch, rows[0].Source)
}

func TestSweepRecordsPerGuildErrors(t *testing.T) {
	f := newSyncFixture(t)
	// Second guild with settings but no credential: its pass fails.
	require.NoError(t, f.store.SaveSettings(context.Background(), &models.SyncSettings{
		GuildID:       "g2",
		SyncEnabled:   true,
		BroadcasterID: "b2",
	}))

	require.NoError(t, f.reconciler.Sweep(context.Background()))

	ok, err := f.store.SettingsFor(context.Background(), "g1")
	require.NoError(t, err)
	assert.Empty(t, ok.LastError)
	assert.False(t, ok.LastSync.IsZero())

	failed, err := f.store.SettingsFor(context.Background(), "g2")
	require.NoError(t, err)
	assert.NotEmpty(t, failed.LastError, "credential-less guild records its error")
	assert.True(t, failed.LastSync.IsZero())
}

func TestSyncRequiresConfiguration(t *testing.T) {
	f := newSyncFixture(t)
	err := f.reconciler.SyncGuild(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
