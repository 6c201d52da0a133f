package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// DiscordGuild adapts one Discord guild, reached through a live gateway
// session, to the Guild capability interface. Enumeration is served from
// the session state cache; mutations go through the REST API behind the
// shared mutator.
type DiscordGuild struct {
	session *discordgo.Session
	guildID string
	mutator *Mutator
}

// NewDiscordGuild wraps a session and guild ID. The mutator may be shared
// across guilds so the per-process write pacing holds globally.
func NewDiscordGuild(session *discordgo.Session, guildID string, mutator *Mutator) *DiscordGuild {
	if mutator == nil {
		mutator = NewMutator(0)
	}
	return &DiscordGuild{session: session, guildID: guildID, mutator: mutator}
}

func (g *DiscordGuild) ID() string { return g.guildID }

func (g *DiscordGuild) Name() string {
	if guild, err := g.session.State.Guild(g.guildID); err == nil {
		return guild.Name
	}
	return g.guildID
}

func (g *DiscordGuild) state() (*discordgo.Guild, error) {
	guild, err := g.session.State.Guild(g.guildID)
	if err != nil {
		return nil, fmt.Errorf("state guild %s: %w", g.guildID, err)
	}
	return guild, nil
}

func (g *DiscordGuild) Roles() ([]Role, error) {
	guild, err := g.state()
	if err != nil {
		return nil, err
	}
	out := make([]Role, 0, len(guild.Roles))
	for _, r := range guild.Roles {
		out = append(out, roleFromDiscord(r, g.guildID))
	}
	return out, nil
}

func (g *DiscordGuild) Categories() ([]Category, error) {
	guild, err := g.state()
	if err != nil {
		return nil, err
	}
	var out []Category
	for _, ch := range guild.Channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			out = append(out, Category{ID: ch.ID, Name: ch.Name, Position: ch.Position})
		}
	}
	return out, nil
}

func (g *DiscordGuild) Channels() ([]Channel, error) {
	guild, err := g.state()
	if err != nil {
		return nil, err
	}
	var out []Channel
	for _, ch := range guild.Channels {
		kind, ok := kindFromDiscord(ch.Type)
		if !ok {
			continue
		}
		out = append(out, Channel{
			ID:       ch.ID,
			Name:     ch.Name,
			Kind:     kind,
			ParentID: ch.ParentID,
			Position: ch.Position,
			Topic:    ch.Topic,
			NSFW:     ch.NSFW,
			Slowmode: ch.RateLimitPerUser,
		})
	}
	return out, nil
}

func (g *DiscordGuild) CreateRole(ctx context.Context, name string, color int, perms *Permissions) (Role, error) {
	params := &discordgo.RoleParams{Name: name, Color: &color}
	if perms != nil {
		bits := permissionBits(*perms)
		params.Permissions = &bits
	}
	var created *discordgo.Role
	err := g.mutator.Do(ctx, func() error {
		var err error
		created, err = g.session.GuildRoleCreate(g.guildID, params)
		return err
	})
	if err != nil {
		return Role{}, wrapOp("create role "+name, err)
	}
	return roleFromDiscord(created, g.guildID), nil
}

// roleEditsFields reports whether the edit changes anything besides the
// position. A position-only edit needs no PATCH, just a reorder.
func roleEditsFields(edit RoleEdit) bool {
	return edit.Name != nil || edit.Color != nil || edit.Perms != nil
}

func (g *DiscordGuild) EditRole(ctx context.Context, roleID string, edit RoleEdit) error {
	if roleEditsFields(edit) {
		params := &discordgo.RoleParams{}
		if edit.Name != nil {
			params.Name = *edit.Name
		}
		if edit.Color != nil {
			params.Color = edit.Color
		}
		if edit.Perms != nil {
			bits := permissionBits(*edit.Perms)
			params.Permissions = &bits
		}
		err := g.mutator.Do(ctx, func() error {
			_, err := g.session.GuildRoleEdit(g.guildID, roleID, params)
			return err
		})
		if err != nil {
			return wrapOp("edit role "+roleID, err)
		}
	}
	if edit.Position != nil {
		return g.BulkRoleReposition(ctx, map[string]int{roleID: *edit.Position})
	}
	return nil
}

func (g *DiscordGuild) DeleteRole(ctx context.Context, roleID string) error {
	err := g.mutator.Do(ctx, func() error {
		return g.session.GuildRoleDelete(g.guildID, roleID)
	})
	return wrapOp("delete role "+roleID, err)
}

func (g *DiscordGuild) BulkRoleReposition(ctx context.Context, positions map[string]int) error {
	reorder := make([]*discordgo.Role, 0, len(positions))
	for id, pos := range positions {
		reorder = append(reorder, &discordgo.Role{ID: id, Position: pos})
	}
	err := g.mutator.Do(ctx, func() error {
		_, err := g.session.GuildRoleReorder(g.guildID, reorder)
		return err
	})
	return wrapOp("reorder roles", err)
}

func (g *DiscordGuild) CreateCategory(ctx context.Context, name string, overwrites map[string]Overwrite) (Category, error) {
	data := discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildCategory,
		PermissionOverwrites: overwritesToDiscord(overwrites),
	}
	var created *discordgo.Channel
	err := g.mutator.Do(ctx, func() error {
		var err error
		created, err = g.session.GuildChannelCreateComplex(g.guildID, data)
		return err
	})
	if err != nil {
		return Category{}, wrapOp("create category "+name, err)
	}
	return Category{ID: created.ID, Name: created.Name, Position: created.Position}, nil
}

func (g *DiscordGuild) EditCategory(ctx context.Context, categoryID string, edit CategoryEdit) error {
	data := &discordgo.ChannelEdit{}
	if edit.Name != nil {
		data.Name = *edit.Name
	}
	if edit.Position != nil {
		data.Position = edit.Position
	}
	if edit.Overwrites != nil {
		data.PermissionOverwrites = overwritesToDiscord(edit.Overwrites)
	}
	err := g.mutator.Do(ctx, func() error {
		_, err := g.session.ChannelEdit(categoryID, data)
		return err
	})
	return wrapOp("edit category "+categoryID, err)
}

func (g *DiscordGuild) DeleteCategory(ctx context.Context, categoryID string) error {
	err := g.mutator.Do(ctx, func() error {
		_, err := g.session.ChannelDelete(categoryID)
		return err
	})
	return wrapOp("delete category "+categoryID, err)
}

func (g *DiscordGuild) CreateChannel(ctx context.Context, create ChannelCreate) (Channel, error) {
	chType, ok := kindToDiscord(create.Kind)
	if !ok {
		return Channel{}, fmt.Errorf("create channel %s: unknown kind %q", create.Name, create.Kind)
	}
	data := discordgo.GuildChannelCreateData{
		Name:                 create.Name,
		Type:                 chType,
		ParentID:             create.ParentID,
		PermissionOverwrites: overwritesToDiscord(create.Overwrites),
	}
	var created *discordgo.Channel
	err := g.mutator.Do(ctx, func() error {
		var err error
		created, err = g.session.GuildChannelCreateComplex(g.guildID, data)
		return err
	})
	if err != nil {
		return Channel{}, wrapOp("create channel "+create.Name, err)
	}
	kind, _ := kindFromDiscord(created.Type)
	return Channel{
		ID:       created.ID,
		Name:     created.Name,
		Kind:     kind,
		ParentID: created.ParentID,
		Position: created.Position,
	}, nil
}

func (g *DiscordGuild) EditChannel(ctx context.Context, channelID string, edit ChannelEdit) error {
	data := &discordgo.ChannelEdit{}
	if edit.Name != nil {
		data.Name = *edit.Name
	}
	if edit.ParentID != nil {
		data.ParentID = *edit.ParentID
	}
	if edit.Position != nil {
		data.Position = edit.Position
	}
	if edit.Topic != nil {
		data.Topic = *edit.Topic
	}
	if edit.NSFW != nil {
		data.NSFW = edit.NSFW
	}
	if edit.Slowmode != nil {
		data.RateLimitPerUser = edit.Slowmode
	}
	if edit.Overwrites != nil {
		data.PermissionOverwrites = overwritesToDiscord(edit.Overwrites)
	}
	err := g.mutator.Do(ctx, func() error {
		_, err := g.session.ChannelEdit(channelID, data)
		return err
	})
	if err != nil {
		return wrapOp("edit channel "+channelID, err)
	}
	if edit.Kind != nil {
		return g.convertChannelKind(ctx, channelID, *edit.Kind)
	}
	return nil
}

// convertChannelKind flips a channel between the text and announcement
// sub-kinds. The client library's edit struct does not expose the type
// field, so the PATCH is issued directly.
func (g *DiscordGuild) convertChannelKind(ctx context.Context, channelID string, kind ChannelKind) error {
	chType, ok := kindToDiscord(kind)
	if !ok || kind.Class() != KindText {
		return fmt.Errorf("convert channel %s: %w", channelID, ErrUnsupported)
	}
	payload := struct {
		Type discordgo.ChannelType `json:"type"`
	}{Type: chType}
	err := g.mutator.Do(ctx, func() error {
		_, err := g.session.Request("PATCH", discordgo.EndpointChannel(channelID), payload)
		return err
	})
	return wrapOp("convert channel "+channelID, err)
}

func (g *DiscordGuild) DeleteChannel(ctx context.Context, channelID string) error {
	err := g.mutator.Do(ctx, func() error {
		_, err := g.session.ChannelDelete(channelID)
		return err
	})
	return wrapOp("delete channel "+channelID, err)
}

func (g *DiscordGuild) CommunityEnabled() bool {
	guild, err := g.state()
	if err != nil {
		return false
	}
	for _, f := range guild.Features {
		if f == discordgo.GuildFeatureCommunity {
			return true
		}
	}
	return false
}

// guildSettingsPatch is the raw guild PATCH body. The client library's
// GuildParams does not cover the community fields, so the request is
// assembled by hand.
type guildSettingsPatch struct {
	Features                    []discordgo.GuildFeature `json:"features,omitempty"`
	VerificationLevel           *int                     `json:"verification_level,omitempty"`
	DefaultMessageNotifications *int                     `json:"default_message_notifications,omitempty"`
	ExplicitContentFilter       *int                     `json:"explicit_content_filter,omitempty"`
	RulesChannelID              *string                  `json:"rules_channel_id,omitempty"`
	PublicUpdatesChannelID      *string                  `json:"public_updates_channel_id,omitempty"`
}

func (g *DiscordGuild) EnableCommunity(ctx context.Context) error {
	guild, err := g.state()
	if err != nil {
		return err
	}
	features := append([]discordgo.GuildFeature{}, guild.Features...)
	features = append(features, discordgo.GuildFeatureCommunity)
	err = g.mutator.Do(ctx, func() error {
		_, rerr := g.session.Request("PATCH", discordgo.EndpointGuild(g.guildID), guildSettingsPatch{Features: features})
		return rerr
	})
	return wrapOp("enable community", err)
}

var verificationLevels = map[string]int{
	"none": 0, "low": 1, "medium": 2, "high": 3, "very_high": 4,
}

var notificationLevels = map[string]int{
	"all_messages": 0, "only_mentions": 1,
}

var explicitFilterLevels = map[string]int{
	"disabled": 0, "members_without_roles": 1, "all_members": 2,
}

func (g *DiscordGuild) EditCommunitySettings(ctx context.Context, edit CommunityEdit) error {
	patch := guildSettingsPatch{
		RulesChannelID:         edit.RulesChannelID,
		PublicUpdatesChannelID: edit.UpdatesChannelID,
	}
	if edit.Verification != nil {
		if lvl, ok := verificationLevels[*edit.Verification]; ok {
			patch.VerificationLevel = &lvl
		}
	}
	if edit.Notifications != nil {
		if lvl, ok := notificationLevels[*edit.Notifications]; ok {
			patch.DefaultMessageNotifications = &lvl
		}
	}
	if edit.ExplicitFilter != nil {
		if lvl, ok := explicitFilterLevels[*edit.ExplicitFilter]; ok {
			patch.ExplicitContentFilter = &lvl
		}
	}
	if patch.VerificationLevel == nil && patch.DefaultMessageNotifications == nil &&
		patch.ExplicitContentFilter == nil && patch.RulesChannelID == nil &&
		patch.PublicUpdatesChannelID == nil {
		return nil
	}
	err := g.mutator.Do(ctx, func() error {
		_, rerr := g.session.Request("PATCH", discordgo.EndpointGuild(g.guildID), patch)
		return rerr
	})
	return wrapOp("edit community settings", err)
}

func (g *DiscordGuild) ScheduledEvents(ctx context.Context) ([]ScheduledEvent, error) {
	events, err := g.session.GuildScheduledEvents(g.guildID, false)
	if err != nil {
		return nil, wrapOp("list scheduled events", err)
	}
	out := make([]ScheduledEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, eventFromDiscord(ev))
	}
	return out, nil
}

func (g *DiscordGuild) CreateScheduledEvent(ctx context.Context, create EventCreate) (ScheduledEvent, error) {
	params := &discordgo.GuildScheduledEventParams{
		Name:               create.Name,
		Description:        create.Description,
		ScheduledStartTime: &create.Start,
		PrivacyLevel:       discordgo.GuildScheduledEventPrivacyLevelGuildOnly,
	}
	if !create.End.IsZero() {
		params.ScheduledEndTime = &create.End
	}
	if create.ChannelID != "" {
		params.ChannelID = create.ChannelID
		params.EntityType = discordgo.GuildScheduledEventEntityTypeVoice
	} else {
		location := create.Location
		if location == "" {
			location = "Online"
		}
		params.EntityType = discordgo.GuildScheduledEventEntityTypeExternal
		params.EntityMetadata = &discordgo.GuildScheduledEventEntityMetadata{Location: location}
	}
	var created *discordgo.GuildScheduledEvent
	err := g.mutator.Do(ctx, func() error {
		var err error
		created, err = g.session.GuildScheduledEventCreate(g.guildID, params)
		return err
	})
	if err != nil {
		return ScheduledEvent{}, wrapOp("create scheduled event "+create.Name, err)
	}
	return eventFromDiscord(created), nil
}

func (g *DiscordGuild) EditScheduledEvent(ctx context.Context, eventID string, edit EventEdit) error {
	params := &discordgo.GuildScheduledEventParams{}
	if edit.Name != nil {
		params.Name = *edit.Name
	}
	if edit.Description != nil {
		params.Description = *edit.Description
	}
	if edit.Start != nil {
		params.ScheduledStartTime = edit.Start
	}
	if edit.End != nil {
		params.ScheduledEndTime = edit.End
	}
	if edit.ChannelID != nil {
		if *edit.ChannelID == "" {
			params.EntityType = discordgo.GuildScheduledEventEntityTypeExternal
			location := "Online"
			if edit.Location != nil && *edit.Location != "" {
				location = *edit.Location
			}
			params.EntityMetadata = &discordgo.GuildScheduledEventEntityMetadata{Location: location}
		} else {
			params.ChannelID = *edit.ChannelID
			params.EntityType = discordgo.GuildScheduledEventEntityTypeVoice
		}
	}
	err := g.mutator.Do(ctx, func() error {
		_, err := g.session.GuildScheduledEventEdit(g.guildID, eventID, params)
		return err
	})
	return wrapOp("edit scheduled event "+eventID, err)
}

// ---- conversions ----

func roleFromDiscord(r *discordgo.Role, guildID string) Role {
	return Role{
		ID:       r.ID,
		Name:     r.Name,
		Color:    r.Color,
		Perms:    permissionsFromBits(r.Permissions),
		Position: r.Position,
		Managed:  r.Managed,
		Default:  r.ID == guildID, // the default role shares the guild's ID
	}
}

func eventFromDiscord(ev *discordgo.GuildScheduledEvent) ScheduledEvent {
	out := ScheduledEvent{
		ID:          ev.ID,
		Name:        ev.Name,
		Description: ev.Description,
		Start:       ev.ScheduledStartTime,
		Status:      eventStatusName(ev.Status),
		ChannelID:   ev.ChannelID,
	}
	if ev.ScheduledEndTime != nil {
		out.End = *ev.ScheduledEndTime
	}
	out.Location = ev.EntityMetadata.Location
	return out
}

func eventStatusName(s discordgo.GuildScheduledEventStatus) EventStatus {
	switch s {
	case discordgo.GuildScheduledEventStatusScheduled:
		return "scheduled"
	case discordgo.GuildScheduledEventStatusActive:
		return "active"
	case discordgo.GuildScheduledEventStatusCompleted:
		return "completed"
	case discordgo.GuildScheduledEventStatusCanceled:
		return "canceled"
	default:
		return EventStatus(fmt.Sprintf("unknown_%d", s))
	}
}

func kindFromDiscord(t discordgo.ChannelType) (ChannelKind, bool) {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return KindText, true
	case discordgo.ChannelTypeGuildNews:
		return KindAnnouncement, true
	case discordgo.ChannelTypeGuildVoice:
		return KindVoice, true
	case discordgo.ChannelTypeGuildStageVoice:
		return KindStage, true
	case discordgo.ChannelTypeGuildForum:
		return KindForum, true
	default:
		return "", false
	}
}

func kindToDiscord(k ChannelKind) (discordgo.ChannelType, bool) {
	switch k {
	case KindText, "":
		return discordgo.ChannelTypeGuildText, true
	case KindAnnouncement:
		return discordgo.ChannelTypeGuildNews, true
	case KindVoice:
		return discordgo.ChannelTypeGuildVoice, true
	case KindStage:
		return discordgo.ChannelTypeGuildStageVoice, true
	case KindForum:
		return discordgo.ChannelTypeGuildForum, true
	default:
		return 0, false
	}
}

func permissionBits(p Permissions) int64 {
	var bits int64
	if p.Administrator {
		bits |= discordgo.PermissionAdministrator
	}
	if p.ManageChannels {
		bits |= discordgo.PermissionManageChannels
	}
	if p.ManageRoles {
		bits |= discordgo.PermissionManageRoles
	}
	if p.ViewChannel {
		bits |= discordgo.PermissionViewChannel
	}
	if p.SendMessages {
		bits |= discordgo.PermissionSendMessages
	}
	if p.Connect {
		bits |= discordgo.PermissionVoiceConnect
	}
	if p.Speak {
		bits |= discordgo.PermissionVoiceSpeak
	}
	return bits
}

func permissionsFromBits(bits int64) Permissions {
	return Permissions{
		Administrator:  bits&discordgo.PermissionAdministrator != 0,
		ManageChannels: bits&discordgo.PermissionManageChannels != 0,
		ManageRoles:    bits&discordgo.PermissionManageRoles != 0,
		ViewChannel:    bits&discordgo.PermissionViewChannel != 0,
		SendMessages:   bits&discordgo.PermissionSendMessages != 0,
		Connect:        bits&discordgo.PermissionVoiceConnect != 0,
		Speak:          bits&discordgo.PermissionVoiceSpeak != 0,
	}
}

func overwritesToDiscord(ows map[string]Overwrite) []*discordgo.PermissionOverwrite {
	if len(ows) == 0 {
		return nil
	}
	out := make([]*discordgo.PermissionOverwrite, 0, len(ows))
	for roleID, ow := range ows {
		var allow, deny int64
		set := func(state TriState, bit int64) {
			switch state {
			case Allow:
				allow |= bit
			case Deny:
				deny |= bit
			}
		}
		set(ow.View, discordgo.PermissionViewChannel)
		set(ow.Send, discordgo.PermissionSendMessages)
		set(ow.Connect, discordgo.PermissionVoiceConnect)
		set(ow.Speak, discordgo.PermissionVoiceSpeak)
		set(ow.ManageChannels, discordgo.PermissionManageChannels)
		set(ow.ManageRoles, discordgo.PermissionManageRoles)
		out = append(out, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: allow,
			Deny:  deny,
		})
	}
	return out
}

// NewSession opens a gateway session with the intents the reconcilers
// need: guild structure and scheduled events.
func NewSession(cfg Config) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildScheduledEvents
	session.StateEnabled = true
	return session, nil
}

// EditDelay converts the configured millisecond delay to a duration.
func (c Config) EditDelay() time.Duration {
	return time.Duration(c.EditDelayMillis) * time.Millisecond
}

// ApplyTimeout converts the configured apply budget to a duration.
func (c Config) ApplyTimeout() time.Duration {
	if c.ApplyTimeoutSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.ApplyTimeoutSeconds) * time.Second
}
