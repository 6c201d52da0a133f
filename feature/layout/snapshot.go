package layout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"guildsmith/core/platform"
	"guildsmith/core/ratelimit"
	"guildsmith/feature/layout/models"

	"go.uber.org/zap"
)

// Snapshotter serializes a live guild into the layout document shape. The
// gateway state cache is preferred; the REST fallback is gated by an
// explicit flag plus a cooldown because it enumerates with the bot token.
type Snapshotter struct {
	rest      platform.RESTLister
	cooldown  *ratelimit.Cooldown
	allowRest bool
	log       *zap.Logger
}

// NewSnapshotter creates a snapshot producer. rest may be nil when the
// fallback is disabled.
func NewSnapshotter(rest platform.RESTLister, cooldown *ratelimit.Cooldown, allowRest bool, log *zap.Logger) *Snapshotter {
	return &Snapshotter{rest: rest, cooldown: cooldown, allowRest: allowRest, log: log}
}

// Live builds a snapshot from the guild handle's own collections.
func (s *Snapshotter) Live(g platform.Guild) (*models.Layout, error) {
	roles, err := g.Roles()
	if err != nil {
		return nil, fmt.Errorf("snapshot roles: %w", err)
	}
	categories, err := g.Categories()
	if err != nil {
		return nil, fmt.Errorf("snapshot categories: %w", err)
	}
	channels, err := g.Channels()
	if err != nil {
		return nil, fmt.Errorf("snapshot channels: %w", err)
	}
	return buildDocument(roles, categories, channels), nil
}

// REST builds a snapshot through direct API enumeration. It fails when the
// fallback is disabled or still cooling down.
func (s *Snapshotter) REST(ctx context.Context, guildID string) (*models.Layout, error) {
	if !s.allowRest || s.rest == nil {
		return nil, errors.New("snapshot: rest fallback disabled")
	}
	if err := s.cooldown.Allow(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	roles, err := s.rest.ListRoles(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("snapshot rest roles: %w", err)
	}
	categories, channels, err := s.rest.ListChannels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("snapshot rest channels: %w", err)
	}
	s.cooldown.Mark()
	return buildDocument(roles, categories, channels), nil
}

// Best prefers the live strategy and falls back to REST only when the live
// result is empty or failed and the fallback is enabled.
func (s *Snapshotter) Best(ctx context.Context, g platform.Guild) (*models.Layout, error) {
	doc, err := s.Live(g)
	if err == nil && !isEmpty(doc) {
		return doc, nil
	}
	if err != nil {
		s.log.Warn("Live snapshot failed", zap.String("guild_id", g.ID()), zap.Error(err))
	} else {
		s.log.Warn("Live snapshot empty", zap.String("guild_id", g.ID()))
	}

	if !s.allowRest {
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
	return s.REST(ctx, g.ID())
}

func isEmpty(doc *models.Layout) bool {
	return len(doc.Roles) == 0 && len(doc.Categories) == 0 && len(doc.Channels) == 0
}

// buildDocument assembles the document shape shared by both strategies.
// Roles appear highest-first; categories keep display order; channels nest
// under their category in display order. Prune flags default off so a
// freshly snapshotted layout is always safe to apply.
func buildDocument(roles []platform.Role, categories []platform.Category, channels []platform.Channel) *models.Layout {
	doc := &models.Layout{}

	sorted := make([]platform.Role, 0, len(roles))
	for _, r := range roles {
		if r.Default || r.Managed {
			continue
		}
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position > sorted[j].Position
	})
	for _, r := range sorted {
		doc.Roles = append(doc.Roles, models.RoleSpec{
			Name:  r.Name,
			Color: formatColor(r.Color),
			Perms: permsToSpec(r.Perms),
		})
	}

	byParent := map[string][]platform.Channel{}
	for _, ch := range channels {
		byParent[ch.ParentID] = append(byParent[ch.ParentID], ch)
	}
	for parent := range byParent {
		children := byParent[parent]
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].Position < children[j].Position
		})
	}

	ordered := make([]platform.Category, len(categories))
	copy(ordered, categories)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})
	for _, cat := range ordered {
		// Ghost categories with blank names confuse name-keyed matching.
		if strings.TrimSpace(cat.Name) == "" {
			continue
		}
		spec := models.CategorySpec{Name: cat.Name}
		for _, ch := range byParent[cat.ID] {
			child := models.ChannelSpec{
				Name: ch.Name,
				Type: string(ch.Kind),
			}
			if ch.Kind.SupportsOptions() {
				child.Options = models.ChannelOptions{
					Topic:    ch.Topic,
					NSFW:     ch.NSFW,
					Slowmode: ch.Slowmode,
				}
			}
			spec.Channels = append(spec.Channels, child)
		}
		doc.Categories = append(doc.Categories, spec)
	}

	return doc
}
