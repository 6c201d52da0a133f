package cmd

import (
	"fmt"

	"guildsmith/core/config"
	"guildsmith/core/database"
	"guildsmith/core/logger"
	"guildsmith/core/platform"
	layoutmodels "guildsmith/feature/layout/models"
	schedulemodels "guildsmith/feature/schedule/models"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime bundles the shared process dependencies the commands need.
type runtime struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	session *discordgo.Session
	mutator *platform.Mutator
}

// initRuntime loads config, builds the logger, connects the database and
// optionally opens the gateway session.
func initRuntime(needDiscord bool) (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(db,
		&layoutmodels.LayoutRow{},
		&schedulemodels.CrosswalkRow{},
		&schedulemodels.SyncSettings{},
		&schedulemodels.TwitchCredential{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	rt := &runtime{
		cfg:     cfg,
		log:     l,
		db:      db,
		mutator: platform.NewMutator(cfg.Platform.EditDelay()),
	}

	if needDiscord {
		session, err := platform.NewSession(cfg.Platform)
		if err != nil {
			return nil, err
		}
		if err := session.Open(); err != nil {
			return nil, fmt.Errorf("failed to open gateway session: %w", err)
		}
		rt.session = session
	}
	return rt, nil
}

// close tears down the gateway session and flushes the logger.
func (rt *runtime) close() {
	if rt.session != nil {
		_ = rt.session.Close()
	}
	_ = rt.log.Sync()
}

// guild builds a platform handle for one guild, sharing the process-wide
// mutator so write pacing holds across guilds.
func (rt *runtime) guild(guildID string) (platform.Guild, error) {
	if rt.session == nil {
		return nil, fmt.Errorf("no gateway session")
	}
	return platform.NewDiscordGuild(rt.session, guildID, rt.mutator), nil
}
