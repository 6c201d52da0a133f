package layout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"guildsmith/core/platform"
	"guildsmith/feature/layout/models"

	"go.uber.org/zap"
)

// ApplyOptions tune one applier run.
type ApplyOptions struct {
	// BuildMode allows enabling community features when the layout asks
	// for it.
	BuildMode bool
}

// ApplyReport is the itemized outcome of one applier run. Lines holds one
// human-readable entry per action or per-entity failure. TimedOut marks a
// run cut short by the deadline; mutations already issued stand.
type ApplyReport struct {
	Lines    []string
	TimedOut bool
	Duration time.Duration
}

// Applier reconciles a guild against a desired layout document. Stages run
// strictly in order; a single entity's failure is recorded and skipped,
// never aborting the stage.
type Applier struct {
	guild platform.Guild
	log   *zap.Logger
}

// NewApplier creates an applier bound to one guild handle.
func NewApplier(guild platform.Guild, log *zap.Logger) *Applier {
	return &Applier{guild: guild, log: log}
}

// Apply runs all stages. The caller bounds the run with a context
// deadline; on expiry the report is returned with TimedOut set.
func (a *Applier) Apply(ctx context.Context, layout *models.Layout, opts ApplyOptions) (*ApplyReport, error) {
	run := &applyRun{
		guild:  a.guild,
		log:    a.log.With(zap.String("guild_id", a.guild.ID())),
		report: &ApplyReport{},
	}
	started := time.Now()

	stages := []func(context.Context, *models.Layout, ApplyOptions){
		run.applyRenames,
		run.ensureRoles,
		run.ensureCategories,
		run.ensureChannels,
		run.applyOrdering,
		run.applyCommunity,
		run.prune,
	}
	for _, stage := range stages {
		if ctx.Err() != nil {
			break
		}
		stage(ctx, layout, opts)
	}

	run.report.Duration = time.Since(started)
	if ctx.Err() != nil {
		run.report.TimedOut = true
		run.log.Warn("Layout apply timed out", zap.Duration("elapsed", run.report.Duration))
	}
	return run.report, nil
}

type applyRun struct {
	guild  platform.Guild
	log    *zap.Logger
	report *ApplyReport
}

func (r *applyRun) line(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.report.Lines = append(r.report.Lines, msg)
	r.log.Info(msg)
}

// step runs one entity mutation. Context exhaustion aborts the run; every
// other error becomes a report line and the stage moves on.
func (r *applyRun) step(ctx context.Context, desc string, fn func() error) bool {
	if ctx.Err() != nil {
		return false
	}
	if err := fn(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return false
		}
		msg := fmt.Sprintf("%s: %v", desc, err)
		r.report.Lines = append(r.report.Lines, msg)
		if errors.Is(err, platform.ErrPermission) {
			r.log.Warn("Skipped for missing permission", zap.String("op", desc), zap.Error(err))
		} else {
			r.log.Error("Entity operation failed", zap.String("op", desc), zap.Error(err))
		}
		return true
	}
	r.line("%s", desc)
	return true
}

func (r *applyRun) applyRenames(ctx context.Context, layout *models.Layout, _ ApplyOptions) {
	for _, pair := range layout.Renames.Roles {
		role, ok := FindRole(r.guild, pair.From)
		if !ok || role.Default || role.Managed {
			continue
		}
		to := pair.To
		roleID := role.ID
		r.step(ctx, fmt.Sprintf("rename role %q -> %q", pair.From, pair.To), func() error {
			return r.guild.EditRole(ctx, roleID, platform.RoleEdit{Name: &to})
		})
	}
	for _, pair := range layout.Renames.Categories {
		cat, ok := FindCategory(r.guild, pair.From)
		if !ok {
			continue
		}
		to := pair.To
		catID := cat.ID
		r.step(ctx, fmt.Sprintf("rename category %q -> %q", pair.From, pair.To), func() error {
			return r.guild.EditCategory(ctx, catID, platform.CategoryEdit{Name: &to})
		})
	}
	for _, pair := range layout.Renames.Channels {
		ch, ok := r.findChannelAnyKind(pair.From)
		if !ok {
			continue
		}
		to := pair.To
		chID := ch.ID
		r.step(ctx, fmt.Sprintf("rename channel %q -> %q", pair.From, pair.To), func() error {
			return r.guild.EditChannel(ctx, chID, platform.ChannelEdit{Name: &to})
		})
	}
}

func (r *applyRun) findChannelAnyKind(name string) (platform.Channel, bool) {
	channels, err := r.guild.Channels()
	if err != nil {
		return platform.Channel{}, false
	}
	want := strings.TrimSpace(name)
	for _, ch := range channels {
		if strings.TrimSpace(ch.Name) == want {
			return ch, true
		}
	}
	return platform.Channel{}, false
}

func (r *applyRun) ensureRoles(ctx context.Context, layout *models.Layout, _ ApplyOptions) {
	for _, spec := range layout.Roles {
		spec := spec
		live, found := FindRole(r.guild, spec.Name)
		if !found {
			r.step(ctx, fmt.Sprintf("create role %q", spec.Name), func() error {
				var perms *platform.Permissions
				if spec.Perms != nil {
					p := permsFromSpec(spec.Perms)
					perms = &p
				}
				_, err := r.guild.CreateRole(ctx, spec.Name, parseColor(spec.Color), perms)
				return err
			})
			continue
		}

		var edit platform.RoleEdit
		if color := parseColor(spec.Color); spec.Color != "" && color != live.Color {
			edit.Color = &color
		}
		// A nil perms map preserves whatever the role has live.
		if spec.Perms != nil {
			if want := permsFromSpec(spec.Perms); want != live.Perms {
				edit.Perms = &want
			}
		}
		if edit.Color == nil && edit.Perms == nil {
			continue
		}
		roleID := live.ID
		r.step(ctx, fmt.Sprintf("update role %q", spec.Name), func() error {
			return r.guild.EditRole(ctx, roleID, edit)
		})
	}
}

func (r *applyRun) ensureCategories(ctx context.Context, layout *models.Layout, _ ApplyOptions) {
	for _, spec := range layout.Categories {
		spec := spec
		if _, found := FindCategory(r.guild, spec.Name); found {
			if len(spec.Overwrites) == 0 {
				continue
			}
			cat, _ := FindCategory(r.guild, spec.Name)
			r.step(ctx, fmt.Sprintf("update category %q overwrites", spec.Name), func() error {
				return r.guild.EditCategory(ctx, cat.ID, platform.CategoryEdit{
					Overwrites: r.builtOverwrites(spec.Overwrites),
				})
			})
			continue
		}
		r.step(ctx, fmt.Sprintf("create category %q", spec.Name), func() error {
			_, err := r.guild.CreateCategory(ctx, spec.Name, r.builtOverwrites(spec.Overwrites))
			return err
		})
	}
}

func (r *applyRun) builtOverwrites(spec map[string]models.OverwriteSpec) map[string]platform.Overwrite {
	roles, err := r.guild.Roles()
	if err != nil {
		roles = nil
	}
	return BuildOverwrites(roles, spec)
}

func (r *applyRun) ensureChannels(ctx context.Context, layout *models.Layout, _ ApplyOptions) {
	for _, spec := range layout.NormalizedChannels() {
		spec := spec
		kind := platform.ChannelKind(strings.ToLower(strings.TrimSpace(spec.Type)))
		if kind == "" {
			kind = platform.KindText
		}

		parentID := ""
		if strings.TrimSpace(spec.Category) != "" {
			parent, found := FindCategory(r.guild, spec.Category)
			if !found {
				if !r.step(ctx, fmt.Sprintf("create category %q", spec.Category), func() error {
					created, err := r.guild.CreateCategory(ctx, spec.Category, nil)
					if err != nil {
						return err
					}
					parent = created
					return nil
				}) {
					return
				}
			}
			parentID = parent.ID
		}

		live, found := FindChannel(r.guild, spec.Name, kind)
		if !found {
			r.step(ctx, fmt.Sprintf("create %s channel %q", kind, spec.Name), func() error {
				created, err := r.guild.CreateChannel(ctx, platform.ChannelCreate{
					Name:       spec.Name,
					Kind:       kind,
					ParentID:   parentID,
					Overwrites: r.builtOverwrites(spec.Overwrites),
				})
				if err != nil {
					return err
				}
				return r.applyChannelOptions(ctx, created, spec, kind)
			})
			continue
		}

		var edit platform.ChannelEdit
		if live.ParentID != parentID {
			pid := parentID
			edit.ParentID = &pid
		}
		if len(spec.Overwrites) > 0 {
			edit.Overwrites = r.builtOverwrites(spec.Overwrites)
		}
		if kind.SupportsOptions() {
			if spec.Options.Topic != "" && spec.Options.Topic != live.Topic {
				topic := spec.Options.Topic
				edit.Topic = &topic
			}
			if spec.Options.NSFW != live.NSFW {
				nsfw := spec.Options.NSFW
				edit.NSFW = &nsfw
			}
			if spec.Options.Slowmode != live.Slowmode {
				slow := spec.Options.Slowmode
				edit.Slowmode = &slow
			}
		}
		if live.Kind != kind && live.Kind.Class() == kind.Class() && kind.Class() == platform.KindText {
			k := kind
			edit.Kind = &k
		}
		if edit.ParentID == nil && edit.Overwrites == nil && edit.Topic == nil &&
			edit.NSFW == nil && edit.Slowmode == nil && edit.Kind == nil {
			continue
		}
		chID := live.ID
		r.step(ctx, fmt.Sprintf("update channel %q", spec.Name), func() error {
			return r.guild.EditChannel(ctx, chID, edit)
		})
	}
}

// applyChannelOptions sets topic/nsfw/slowmode on a just-created channel.
// Best effort: option failures surface as the create's error line.
func (r *applyRun) applyChannelOptions(ctx context.Context, ch platform.Channel, spec models.ChannelSpec, kind platform.ChannelKind) error {
	if !kind.SupportsOptions() {
		return nil
	}
	var edit platform.ChannelEdit
	if spec.Options.Topic != "" {
		topic := spec.Options.Topic
		edit.Topic = &topic
	}
	if spec.Options.NSFW {
		nsfw := true
		edit.NSFW = &nsfw
	}
	if spec.Options.Slowmode > 0 {
		slow := spec.Options.Slowmode
		edit.Slowmode = &slow
	}
	if edit.Topic == nil && edit.NSFW == nil && edit.Slowmode == nil {
		return nil
	}
	return r.guild.EditChannel(ctx, ch.ID, edit)
}

func (r *applyRun) applyOrdering(ctx context.Context, layout *models.Layout, _ ApplyOptions) {
	r.orderRoles(ctx, layout)
	r.orderCategories(ctx, layout)
	r.orderChannels(ctx, layout)
}

func (r *applyRun) orderRoles(ctx context.Context, layout *models.Layout) {
	if len(layout.Roles) == 0 {
		return
	}

	desired := make([]models.RoleSpec, len(layout.Roles))
	copy(desired, layout.Roles)
	allPositioned := true
	for _, spec := range desired {
		if spec.Position == nil {
			allPositioned = false
			break
		}
	}
	if allPositioned {
		sort.SliceStable(desired, func(i, j int) bool {
			return *desired[i].Position < *desired[j].Position
		})
	}

	type resolved struct {
		id       string
		position int
	}
	var live []resolved
	for _, spec := range desired {
		role, ok := FindRole(r.guild, spec.Name)
		if !ok {
			continue
		}
		live = append(live, resolved{id: role.ID, position: role.Position})
	}
	if len(live) < 2 {
		return
	}

	// Already strictly descending means the hierarchy matches; repeat
	// applies must not reshuffle.
	ordered := true
	for i := 1; i < len(live); i++ {
		if live[i-1].position <= live[i].position {
			ordered = false
			break
		}
	}
	if ordered {
		return
	}

	maxPos := 0
	if roles, err := r.guild.Roles(); err == nil {
		for _, role := range roles {
			if role.Position > maxPos {
				maxPos = role.Position
			}
		}
	}

	positions := make(map[string]int, len(live))
	targets := make([]resolved, len(live))
	for i, role := range live {
		target := maxPos + len(live) - i
		positions[role.id] = target
		targets[i] = resolved{id: role.id, position: target}
	}

	err := r.guild.BulkRoleReposition(ctx, positions)
	if err == nil {
		r.line("reordered %d roles", len(live))
		return
	}
	if !errors.Is(err, platform.ErrUnsupported) {
		r.step(ctx, "reorder roles", func() error { return err })
		return
	}
	// No bulk endpoint: walk lowest target to highest so each edit lands
	// below the ones still to come.
	for i := len(targets) - 1; i >= 0; i-- {
		target := targets[i]
		pos := target.position
		r.step(ctx, fmt.Sprintf("position role %s", target.id), func() error {
			return r.guild.EditRole(ctx, target.id, platform.RoleEdit{Position: &pos})
		})
	}
}

func (r *applyRun) orderCategories(ctx context.Context, layout *models.Layout) {
	type ranked struct {
		spec models.CategorySpec
		sort int
	}
	var order []ranked
	for i, spec := range layout.Categories {
		key := i
		if spec.Position != nil {
			key = *spec.Position
		}
		order = append(order, ranked{spec: spec, sort: key})
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].sort < order[j].sort })

	for rank, entry := range order {
		cat, ok := FindCategory(r.guild, entry.spec.Name)
		if !ok || cat.Position == rank {
			continue
		}
		pos := rank
		catID := cat.ID
		r.step(ctx, fmt.Sprintf("position category %q", entry.spec.Name), func() error {
			return r.guild.EditCategory(ctx, catID, platform.CategoryEdit{Position: &pos})
		})
	}
}

func (r *applyRun) orderChannels(ctx context.Context, layout *models.Layout) {
	for _, cat := range layout.Categories {
		parent, haveParent := FindCategory(r.guild, cat.Name)
		for idx, spec := range cat.Channels {
			kind := platform.ChannelKind(strings.ToLower(strings.TrimSpace(spec.Type)))
			ch, ok := FindChannel(r.guild, spec.Name, kind)
			if !ok {
				continue
			}

			target := idx
			if spec.Position != nil {
				target = *spec.Position
			}

			var edit platform.ChannelEdit
			if haveParent && ch.ParentID != parent.ID {
				pid := parent.ID
				edit.ParentID = &pid
			}
			if ch.Position != target {
				pos := target
				edit.Position = &pos
			}
			if edit.ParentID == nil && edit.Position == nil {
				continue
			}
			chID := ch.ID
			r.step(ctx, fmt.Sprintf("position channel %q", spec.Name), func() error {
				return r.guild.EditChannel(ctx, chID, edit)
			})
		}
	}
}

func (r *applyRun) applyCommunity(ctx context.Context, layout *models.Layout, opts ApplyOptions) {
	spec := layout.Community
	enabled := r.guild.CommunityEnabled()
	if !enabled {
		if !spec.EnableOnBuild || !opts.BuildMode {
			return
		}
		if !r.step(ctx, "enable community features", func() error {
			return r.guild.EnableCommunity(ctx)
		}) {
			return
		}
	}

	var edit platform.CommunityEdit
	if name := strings.TrimSpace(spec.Settings.RulesChannel); name != "" {
		if id, ok := r.ensureTextChannel(ctx, name); ok {
			edit.RulesChannelID = &id
		}
	}
	if name := strings.TrimSpace(spec.Settings.UpdatesChannel); name != "" {
		if id, ok := r.ensureTextChannel(ctx, name); ok {
			edit.UpdatesChannelID = &id
		}
	}
	if v := strings.TrimSpace(spec.Settings.Verification); v != "" {
		edit.Verification = &v
	}
	if v := strings.TrimSpace(spec.Settings.Notifications); v != "" {
		edit.Notifications = &v
	}
	if v := strings.TrimSpace(spec.Settings.ExplicitFilter); v != "" {
		edit.ExplicitFilter = &v
	}
	if edit.RulesChannelID == nil && edit.UpdatesChannelID == nil &&
		edit.Verification == nil && edit.Notifications == nil && edit.ExplicitFilter == nil {
		return
	}
	r.step(ctx, "apply community settings", func() error {
		return r.guild.EditCommunitySettings(ctx, edit)
	})
}

func (r *applyRun) ensureTextChannel(ctx context.Context, name string) (string, bool) {
	if ch, ok := FindTextChannel(r.guild, name); ok {
		return ch.ID, true
	}
	var id string
	ok := r.step(ctx, fmt.Sprintf("create text channel %q", name), func() error {
		created, err := r.guild.CreateChannel(ctx, platform.ChannelCreate{
			Name: name,
			Kind: platform.KindText,
		})
		if err != nil {
			return err
		}
		id = created.ID
		return nil
	})
	return id, ok && id != ""
}

func (r *applyRun) prune(ctx context.Context, layout *models.Layout, _ ApplyOptions) {
	if layout.Prune.Roles {
		keep := map[string]bool{}
		for _, spec := range layout.Roles {
			keep[strings.TrimSpace(spec.Name)] = true
		}
		if roles, err := r.guild.Roles(); err == nil {
			for _, role := range roles {
				if role.Default || role.Managed || keep[strings.TrimSpace(role.Name)] {
					continue
				}
				roleID := role.ID
				r.step(ctx, fmt.Sprintf("prune role %q", role.Name), func() error {
					return r.guild.DeleteRole(ctx, roleID)
				})
			}
		}
	}

	if layout.Prune.Channels {
		keep := map[string]bool{}
		for _, spec := range layout.NormalizedChannels() {
			kind := platform.ChannelKind(strings.ToLower(strings.TrimSpace(spec.Type))).Class()
			keep[models.ChannelKey(spec.Name, string(kind), spec.Category)] = true
		}
		categories, _ := r.guild.Categories()
		nameByID := map[string]string{}
		for _, cat := range categories {
			nameByID[cat.ID] = cat.Name
		}
		if channels, err := r.guild.Channels(); err == nil {
			for _, ch := range channels {
				key := models.ChannelKey(ch.Name, string(ch.Kind.Class()), nameByID[ch.ParentID])
				if keep[key] {
					continue
				}
				chID := ch.ID
				r.step(ctx, fmt.Sprintf("prune channel %q", ch.Name), func() error {
					return r.guild.DeleteChannel(ctx, chID)
				})
			}
		}
	}

	if layout.Prune.Categories {
		keep := map[string]bool{}
		for _, spec := range layout.Categories {
			keep[strings.TrimSpace(spec.Name)] = true
		}
		categories, err := r.guild.Categories()
		if err != nil {
			return
		}
		channels, _ := r.guild.Channels()
		childCount := map[string]int{}
		for _, ch := range channels {
			childCount[ch.ParentID]++
		}
		for _, cat := range categories {
			if keep[strings.TrimSpace(cat.Name)] {
				continue
			}
			// Deleting a non-empty category would orphan its channels.
			if childCount[cat.ID] > 0 {
				r.line("skip prune of category %q: %d channels remain", cat.Name, childCount[cat.ID])
				continue
			}
			catID := cat.ID
			r.step(ctx, fmt.Sprintf("prune category %q", cat.Name), func() error {
				return r.guild.DeleteCategory(ctx, catID)
			})
		}
	}
}
