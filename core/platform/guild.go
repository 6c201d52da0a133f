package platform

import "context"

// Guild is the capability surface the reconciliation engines require from
// the chat platform. The discordgo adapter implements it over a live
// session; tests implement it in memory.
type Guild interface {
	ID() string
	Name() string

	// Enumeration. Implementations may serve these from a gateway state
	// cache; failures and empty results are the caller's signal to fall
	// back to the REST lister.
	Roles() ([]Role, error)
	Categories() ([]Category, error)
	Channels() ([]Channel, error)

	CreateRole(ctx context.Context, name string, color int, perms *Permissions) (Role, error)
	EditRole(ctx context.Context, roleID string, edit RoleEdit) error
	DeleteRole(ctx context.Context, roleID string) error
	// BulkRoleReposition applies all role positions in one call. Adapters
	// for platforms without a bulk endpoint return ErrUnsupported and the
	// applier falls back to per-role edits.
	BulkRoleReposition(ctx context.Context, positions map[string]int) error

	CreateCategory(ctx context.Context, name string, overwrites map[string]Overwrite) (Category, error)
	EditCategory(ctx context.Context, categoryID string, edit CategoryEdit) error
	DeleteCategory(ctx context.Context, categoryID string) error

	CreateChannel(ctx context.Context, create ChannelCreate) (Channel, error)
	EditChannel(ctx context.Context, channelID string, edit ChannelEdit) error
	DeleteChannel(ctx context.Context, channelID string) error

	CommunityEnabled() bool
	EnableCommunity(ctx context.Context) error
	EditCommunitySettings(ctx context.Context, edit CommunityEdit) error

	ScheduledEvents(ctx context.Context) ([]ScheduledEvent, error)
	CreateScheduledEvent(ctx context.Context, create EventCreate) (ScheduledEvent, error)
	EditScheduledEvent(ctx context.Context, eventID string, edit EventEdit) error
}

// RESTLister enumerates guild structure through direct API calls, bypassing
// any gateway state cache. Used by the snapshot producer's fallback path.
type RESTLister interface {
	ListRoles(ctx context.Context, guildID string) ([]Role, error)
	ListChannels(ctx context.Context, guildID string) ([]Category, []Channel, error)
}
