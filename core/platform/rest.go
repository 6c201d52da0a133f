package platform

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DiscordRESTLister enumerates guild structure through direct REST calls,
// independent of the gateway state cache. The snapshot producer uses it as
// a gated fallback when the cache is empty.
type DiscordRESTLister struct {
	session *discordgo.Session
}

// NewDiscordRESTLister wraps the session's REST surface.
func NewDiscordRESTLister(session *discordgo.Session) *DiscordRESTLister {
	return &DiscordRESTLister{session: session}
}

func (l *DiscordRESTLister) ListRoles(ctx context.Context, guildID string) ([]Role, error) {
	roles, err := l.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("rest list roles: %w", err)
	}
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleFromDiscord(r, guildID))
	}
	return out, nil
}

func (l *DiscordRESTLister) ListChannels(ctx context.Context, guildID string) ([]Category, []Channel, error) {
	channels, err := l.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, nil, fmt.Errorf("rest list channels: %w", err)
	}
	var cats []Category
	var chans []Channel
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			cats = append(cats, Category{ID: ch.ID, Name: ch.Name, Position: ch.Position})
			continue
		}
		kind, ok := kindFromDiscord(ch.Type)
		if !ok {
			continue
		}
		chans = append(chans, Channel{
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
	return cats, chans, nil
}
