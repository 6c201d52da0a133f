package cmd

import (
	"context"

	"guildsmith/core/twitch"
	"guildsmith/feature/schedule"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncGuildID string

// syncCmd runs schedule sync on demand.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a schedule sync pass now",
	Long: `Run the Twitch/Discord schedule sync immediately, either for one guild
or as a full sweep over every guild with sync enabled.

Examples:
  # Sweep all enabled guilds
  guildsmith sync

  # Sync one guild
  guildsmith sync --guild 123456789`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncGuildID, "guild", "", "Sync only this guild")
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(true)
	if err != nil {
		return err
	}
	defer rt.close()

	twitchClient := twitch.NewClient(rt.cfg.Twitch, nil)
	feature := schedule.NewFeature(rt.db, rt.guild, twitchClient, 0, rt.log)
	svc := feature.Service()

	if syncGuildID != "" {
		if err := svc.SyncNow(context.Background(), syncGuildID); err != nil {
			return err
		}
		rt.log.Info("Guild synced", zap.String("guild_id", syncGuildID))
		return nil
	}

	if err := svc.Sweep(context.Background()); err != nil {
		return err
	}
	rt.log.Info("Sweep finished")
	return nil
}
