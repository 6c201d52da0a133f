package schedule

import (
	"context"
	"fmt"
	"time"

	"guildsmith/core/logger"
	"guildsmith/core/platform"
	"guildsmith/core/twitch"
	"guildsmith/feature/schedule/models"

	"go.uber.org/zap"
)

// defaultDuration is assumed for events missing an end time.
const defaultDuration = time.Hour

// GuildResolver binds a guild ID to a platform handle.
type GuildResolver func(guildID string) (platform.Guild, error)

// StreamAPI is the slice of the Twitch client the reconciler needs.
// *twitch.Client satisfies it; tests supply fakes.
type StreamAPI interface {
	ScheduleSegments(ctx context.Context, broadcasterID, accessToken string) ([]twitch.Segment, error)
	CreateSegment(ctx context.Context, broadcasterID, accessToken string, params twitch.CreateSegmentParams) (twitch.Segment, error)
	UpdateSegment(ctx context.Context, broadcasterID, accessToken, segmentID string, params twitch.UpdateSegmentParams) error
	DeleteSegment(ctx context.Context, broadcasterID, accessToken, segmentID string) error
}

// TokenProvider resolves an access token per broadcaster. A fresh provider
// is built per sweep so tokens never outlive one cycle.
type TokenProvider interface {
	AccessToken(ctx context.Context, broadcasterID string) (string, error)
}

// Reconciler keeps a guild's scheduled events and its broadcaster's Twitch
// schedule bidirectionally in sync through the crosswalk table.
type Reconciler struct {
	store   *Store
	resolve GuildResolver
	api     StreamAPI
	log     *zap.Logger
	now     func() time.Time
}

// NewReconciler creates the event reconciler.
func NewReconciler(store *Store, resolve GuildResolver, api StreamAPI, log *zap.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		resolve: resolve,
		api:     api,
		log:     log,
		now:     time.Now,
	}
}

// newTokens builds a cycle-scoped token provider. Split out so tests can
// swap it.
func (r *Reconciler) newTokens() TokenProvider {
	if client, ok := r.api.(*twitch.Client); ok {
		return twitch.NewTokenCache(client, r.store)
	}
	return staticTokens{}
}

type staticTokens struct{}

func (staticTokens) AccessToken(context.Context, string) (string, error) { return "", nil }

// SyncGuild runs one full sync pass for a single guild.
func (r *Reconciler) SyncGuild(ctx context.Context, guildID string) error {
	return r.syncGuild(ctx, guildID, r.newTokens())
}

func (r *Reconciler) syncGuild(ctx context.Context, guildID string, tokens TokenProvider) error {
	settings, err := r.store.SettingsFor(ctx, guildID)
	if err != nil {
		return err
	}
	if !settings.SyncEnabled {
		return fmt.Errorf("schedule: sync disabled for guild %s", guildID)
	}
	cred, err := r.store.CredentialFor(ctx, guildID)
	if err != nil {
		return err
	}
	broadcaster := settings.BroadcasterID
	if broadcaster == "" {
		broadcaster = cred.BroadcasterID
	}

	guild, err := r.resolve(guildID)
	if err != nil {
		return fmt.Errorf("resolve guild %s: %w", guildID, err)
	}
	token, err := tokens.AccessToken(ctx, broadcaster)
	if err != nil {
		return fmt.Errorf("access token for %s: %w", broadcaster, err)
	}

	nativeEvents, err := guild.ScheduledEvents(ctx)
	if err != nil {
		return fmt.Errorf("list scheduled events: %w", err)
	}
	segments, err := r.api.ScheduleSegments(ctx, broadcaster, token)
	if err != nil {
		return fmt.Errorf("list schedule segments: %w", err)
	}

	native := map[string]Event{}
	for _, ev := range nativeEvents {
		native[ev.ID] = FromNative(ev)
	}
	external := map[string]Event{}
	for _, seg := range segments {
		external[seg.ID] = FromSegment(seg)
	}

	rows, err := r.store.RowsForGuild(ctx, guildID)
	if err != nil {
		return err
	}

	pass := &syncPass{
		rec:         r,
		guild:       guild,
		guildID:     guildID,
		broadcaster: broadcaster,
		token:       token,
		settings:    settings,
		native:      native,
		external:    external,
		log:         logger.WithGuild(r.log, guildID),
	}

	linkedNative := map[string]bool{}
	linkedExternal := map[string]bool{}
	for i := range rows {
		row := &rows[i]
		if row.NativeEventID != "" {
			linkedNative[row.NativeEventID] = true
		}
		if row.ExternalEventID != "" {
			linkedExternal[row.ExternalEventID] = true
		}
		if err := pass.reconcileRow(ctx, row); err != nil {
			pass.log.Warn("Crosswalk row sync failed",
				zap.Uint("row_id", row.ID), zap.Error(err))
		}
	}

	for id, ev := range native {
		if linkedNative[id] {
			continue
		}
		if err := pass.reconcileNativeOrphan(ctx, ev); err != nil {
			pass.log.Warn("Native orphan sync failed",
				zap.String("event_id", id), zap.Error(err))
		}
	}
	for id, ev := range external {
		if linkedExternal[id] {
			continue
		}
		if pass.claimedExternal[id] {
			continue
		}
		if err := pass.reconcileExternalOrphan(ctx, ev); err != nil {
			pass.log.Warn("External orphan sync failed",
				zap.String("segment_id", id), zap.Error(err))
		}
	}
	return nil
}

// syncPass carries the state of one guild's pass.
type syncPass struct {
	rec         *Reconciler
	guild       platform.Guild
	guildID     string
	broadcaster string
	token       string
	settings    *models.SyncSettings
	native      map[string]Event
	external    map[string]Event
	log         *zap.Logger

	// claimedExternal marks segments matched fuzzily during the native
	// orphan phase so the external phase does not double-pair them.
	claimedExternal map[string]bool
	// claimedNative mirrors it for the symmetric case.
	claimedNative map[string]bool
}

func (p *syncPass) reconcileRow(ctx context.Context, row *models.CrosswalkRow) error {
	natEv, natOK := p.native[row.NativeEventID]
	extEv, extOK := p.external[row.ExternalEventID]

	switch {
	case natOK && extOK:
		return p.reconcilePair(ctx, row, natEv, extEv)
	case natOK:
		// Counterpart vanished on Twitch: rebuild it from the native side.
		seg, err := p.createSegment(ctx, natEv)
		if err != nil {
			return err
		}
		row.ExternalEventID = seg.ID
		row.ContentHash = Hash(natEv)
		row.NativeUpdated = natEv.UpdatedAt
		row.ExternalUpdated = FromSegment(seg).UpdatedAt
		return p.saveRow(ctx, row)
	case extOK:
		// Counterpart vanished on Discord: rebuild it from the segment.
		ev, err := p.createNativeEvent(ctx, extEv)
		if err != nil {
			return err
		}
		row.NativeEventID = ev.ID
		row.ContentHash = Hash(extEv)
		row.ExternalUpdated = extEv.UpdatedAt
		row.NativeUpdated = FromNative(ev).UpdatedAt
		return p.saveRow(ctx, row)
	default:
		// Dangling: both sides gone. Left untouched on purpose.
		return nil
	}
}

func (p *syncPass) reconcilePair(ctx context.Context, row *models.CrosswalkRow, natEv, extEv Event) error {
	natHash := Hash(natEv)
	extHash := Hash(extEv)
	if natHash == extHash {
		row.ContentHash = natHash
		row.NativeUpdated = natEv.UpdatedAt
		row.ExternalUpdated = extEv.UpdatedAt
		return p.saveRow(ctx, row)
	}

	if externalWins(natEv, extEv) {
		if err := p.pushToNative(ctx, natEv.ID, extEv); err != nil {
			return err
		}
		row.ContentHash = extHash
	} else {
		if err := p.pushToExternal(ctx, extEv.ID, natEv); err != nil {
			return err
		}
		row.ContentHash = natHash
	}
	row.NativeUpdated = natEv.UpdatedAt
	row.ExternalUpdated = extEv.UpdatedAt
	return p.saveRow(ctx, row)
}

// externalWins picks the sync direction for a divergent pair. The side
// with the later timestamp is authoritative; a single parseable side wins;
// with neither parseable, or a tie, the native side wins. The native-wins
// tie-break mirrors the historical behavior and is left as-is pending a
// product decision.
func externalWins(natEv, extEv Event) bool {
	natT, natOK := parseTime(natEv.UpdatedAt)
	extT, extOK := parseTime(extEv.UpdatedAt)
	switch {
	case natOK && extOK:
		return extT.After(natT)
	case extOK:
		return true
	default:
		return false
	}
}

func (p *syncPass) reconcileNativeOrphan(ctx context.Context, natEv Event) error {
	if p.claimedNative == nil {
		p.claimedNative = map[string]bool{}
	}
	if p.claimedExternal == nil {
		p.claimedExternal = map[string]bool{}
	}

	for id, extEv := range p.external {
		if p.claimedExternal[id] || !fuzzyMatch(natEv, extEv) {
			continue
		}
		if err := p.pushToExternal(ctx, id, natEv); err != nil {
			return err
		}
		p.claimedExternal[id] = true
		return p.saveRow(ctx, &models.CrosswalkRow{
			GuildID:         p.guildID,
			ExternalEventID: id,
			NativeEventID:   natEv.ID,
			Source:          models.SourceBoth,
			ContentHash:     Hash(natEv),
			NativeUpdated:   natEv.UpdatedAt,
			ExternalUpdated: extEv.UpdatedAt,
		})
	}

	seg, err := p.createSegment(ctx, natEv)
	if err != nil {
		return err
	}
	return p.saveRow(ctx, &models.CrosswalkRow{
		GuildID:         p.guildID,
		ExternalEventID: seg.ID,
		NativeEventID:   natEv.ID,
		Source:          models.SourceDiscord,
		ContentHash:     Hash(natEv),
		NativeUpdated:   natEv.UpdatedAt,
		ExternalUpdated: FromSegment(seg).UpdatedAt,
	})
}

func (p *syncPass) reconcileExternalOrphan(ctx context.Context, extEv Event) error {
	if p.claimedNative == nil {
		p.claimedNative = map[string]bool{}
	}

	for id, natEv := range p.native {
		if p.claimedNative[id] || !fuzzyMatch(extEv, natEv) {
			continue
		}
		if err := p.pushToNative(ctx, id, extEv); err != nil {
			return err
		}
		p.claimedNative[id] = true
		return p.saveRow(ctx, &models.CrosswalkRow{
			GuildID:         p.guildID,
			ExternalEventID: extEv.ID,
			NativeEventID:   id,
			Source:          models.SourceBoth,
			ContentHash:     Hash(extEv),
			NativeUpdated:   natEv.UpdatedAt,
			ExternalUpdated: extEv.UpdatedAt,
		})
	}

	ev, err := p.createNativeEvent(ctx, extEv)
	if err != nil {
		return err
	}
	return p.saveRow(ctx, &models.CrosswalkRow{
		GuildID:         p.guildID,
		ExternalEventID: extEv.ID,
		NativeEventID:   ev.ID,
		Source:          models.SourceTwitch,
		ContentHash:     Hash(extEv),
		NativeUpdated:   FromNative(ev).UpdatedAt,
		ExternalUpdated: extEv.UpdatedAt,
	})
}

func (p *syncPass) saveRow(ctx context.Context, row *models.CrosswalkRow) error {
	row.LastSyncedAt = p.rec.now()
	return p.rec.store.SaveRow(ctx, row)
}

// pushToExternal updates a Twitch segment from the canonical native event.
func (p *syncPass) pushToExternal(ctx context.Context, segmentID string, ev Event) error {
	params := twitch.UpdateSegmentParams{Title: &ev.Title}
	if start, ok := parseTime(ev.Start); ok {
		params.Start = &start
		if end, endOK := parseTime(ev.End); endOK && end.After(start) {
			minutes := int(end.Sub(start) / time.Minute)
			params.DurationMinutes = &minutes
		}
	}
	if ev.Status == "canceled" {
		canceled := true
		params.IsCanceled = &canceled
	}
	return p.rec.api.UpdateSegment(ctx, p.broadcaster, p.token, segmentID, params)
}

// pushToNative updates a Discord scheduled event from the canonical
// segment event.
func (p *syncPass) pushToNative(ctx context.Context, eventID string, ev Event) error {
	edit := platform.EventEdit{Name: &ev.Title}
	if ev.Description != "" {
		edit.Description = &ev.Description
	}
	if start, ok := parseTime(ev.Start); ok {
		edit.Start = &start
		end, endOK := parseTime(ev.End)
		if !endOK {
			end = start.Add(defaultDuration)
		}
		edit.End = &end
	}
	return p.guild.EditScheduledEvent(ctx, eventID, edit)
}

func (p *syncPass) createSegment(ctx context.Context, ev Event) (twitch.Segment, error) {
	start, ok := parseTime(ev.Start)
	if !ok {
		return twitch.Segment{}, fmt.Errorf("event %s has no parseable start", ev.ID)
	}
	minutes := int(defaultDuration / time.Minute)
	if end, endOK := parseTime(ev.End); endOK && end.After(start) {
		minutes = int(end.Sub(start) / time.Minute)
	}
	return p.rec.api.CreateSegment(ctx, p.broadcaster, p.token, twitch.CreateSegmentParams{
		Title:           ev.Title,
		Start:           start,
		DurationMinutes: minutes,
		IsCanceled:      ev.Status == "canceled",
	})
}

func (p *syncPass) createNativeEvent(ctx context.Context, ev Event) (platform.ScheduledEvent, error) {
	start, ok := parseTime(ev.Start)
	if !ok {
		return platform.ScheduledEvent{}, fmt.Errorf("segment %s has no parseable start", ev.ID)
	}
	end, endOK := parseTime(ev.End)
	if !endOK {
		end = start.Add(defaultDuration)
	}
	return p.guild.CreateScheduledEvent(ctx, platform.EventCreate{
		Name:        ev.Title,
		Description: ev.Description,
		Start:       start,
		End:         end,
		ChannelID:   p.settings.DefaultChannelID,
	})
}

// Sweep runs one sync pass over every guild with sync enabled. Guilds run
// sequentially; one guild's failure is recorded and never blocks the rest.
func (r *Reconciler) Sweep(ctx context.Context) error {
	guilds, err := r.store.EnabledGuilds(ctx)
	if err != nil {
		return err
	}

	tokens := r.newTokens()
	for i := range guilds {
		settings := &guilds[i]
		err := r.syncGuild(ctx, settings.GuildID, tokens)
		if err != nil {
			r.log.Error("Guild sync failed",
				zap.String("guild_id", settings.GuildID), zap.Error(err))
			settings.LastError = err.Error()
		} else {
			settings.LastError = ""
			settings.LastSync = r.now()
		}
		if saveErr := r.store.SaveSettings(ctx, settings); saveErr != nil {
			r.log.Error("Sync settings save failed",
				zap.String("guild_id", settings.GuildID), zap.Error(saveErr))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}
