package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"guildsmith/core/platform"
	"guildsmith/feature/layout"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	applyGuildID string
	applyBuild   bool
	applyYes     bool
	applyTimeout int
)

// applyCmd reconciles a guild against its stored layout.
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the stored layout to a guild",
	Long: `Apply the active (or latest) stored layout to a live guild.

Stages run in order: renames, roles, categories, channels, ordering,
community settings, prune. Per-entity failures are logged and skipped.
The whole run is bounded by the configured apply timeout; on timeout,
mutations already issued remain in effect.

Examples:
  # Apply with interactive confirmation
  guildsmith apply --guild 123456789

  # Build mode (may enable community features), auto-confirmed
  guildsmith apply --guild 123456789 --build --yes`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVar(&applyGuildID, "guild", "", "Guild ID to apply the layout to (required)")
	applyCmd.Flags().BoolVar(&applyBuild, "build", false, "Build mode: allow enabling community features")
	applyCmd.Flags().BoolVar(&applyYes, "yes", false, "Auto-confirm (non-interactive)")
	applyCmd.Flags().IntVar(&applyTimeout, "timeout", 0, "Apply timeout in seconds (0 = configured default)")
	_ = applyCmd.MarkFlagRequired("guild")
	RootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(true)
	if err != nil {
		return err
	}
	defer rt.close()
	l := rt.log

	if applyTimeout > 0 {
		rt.cfg.Platform.ApplyTimeoutSeconds = applyTimeout
	}
	svc := newLayoutService(rt)

	_, row, err := svc.Stored(context.Background(), applyGuildID)
	if err != nil {
		return fmt.Errorf("no stored layout for guild %s: %w", applyGuildID, err)
	}
	l.Info("Ready to apply",
		zap.String("guild_id", applyGuildID),
		zap.Int("version", row.Version),
		zap.String("type", row.Type))

	if !confirmAction(applyYes, "apply this layout to the live guild") {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	report, err := svc.Apply(context.Background(), applyGuildID, layout.ApplyOptions{BuildMode: applyBuild})
	if err != nil {
		return err
	}

	for _, line := range report.Lines {
		l.Info(line)
	}
	if report.TimedOut {
		l.Warn("Apply timed out; partial changes may exist",
			zap.Duration("elapsed", report.Duration))
		return nil
	}
	l.Info("Apply finished",
		zap.Int("actions", len(report.Lines)),
		zap.Duration("elapsed", report.Duration))
	return nil
}

// newLayoutService wires a layout service for the CLI commands.
func newLayoutService(rt *runtime) *layout.Service {
	feature := layout.NewFeature(rt.db, platform.NewDiscordRESTLister(rt.session), rt.guild, rt.cfg.Platform, rt.log)
	return feature.Service()
}

// confirmAction prompts the user unless the --yes flag was given.
func confirmAction(auto bool, what string) bool {
	if auto {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("\n⚠️  Type 'yes' to %s: ", what)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
