package cmd

import (
	"context"
	"fmt"

	"guildsmith/core/storage"
	"guildsmith/feature/layout"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	archiveGuildID  string
	archiveVersion  int
	archiveActivate bool
	archiveAll      bool
)

// archiveCmd groups the object-storage archive operations.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Export and restore layout versions via object storage",
}

var archiveExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Upload stored layout versions to the archive bucket",
	Long: `Upload stored layout versions to the archive bucket.

Examples:
  # Export the active layout
  guildsmith archive export --guild 123456789

  # Export a specific version
  guildsmith archive export --guild 123456789 --version 3

  # Export every stored version
  guildsmith archive export --guild 123456789 --all`,
	RunE: runArchiveExport,
}

var archiveRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore an archived layout version as a new stored version",
	RunE:  runArchiveRestore,
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived layout versions for a guild",
	RunE:  runArchiveList,
}

func init() {
	archiveCmd.PersistentFlags().StringVar(&archiveGuildID, "guild", "", "Guild ID (required)")
	_ = archiveCmd.MarkPersistentFlagRequired("guild")

	archiveExportCmd.Flags().IntVar(&archiveVersion, "version", 0, "Version to export (0 = active)")
	archiveExportCmd.Flags().BoolVar(&archiveAll, "all", false, "Export every stored version")
	archiveRestoreCmd.Flags().IntVar(&archiveVersion, "version", 0, "Archived version to restore (required)")
	_ = archiveRestoreCmd.MarkFlagRequired("version")
	archiveRestoreCmd.Flags().BoolVar(&archiveActivate, "activate", false, "Mark the restored version active")

	archiveCmd.AddCommand(archiveExportCmd, archiveRestoreCmd, archiveListCmd)
	RootCmd.AddCommand(archiveCmd)
}

func newArchive(rt *runtime) (*layout.Archive, error) {
	client, err := storage.NewClient(rt.cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	store := layout.NewStore(rt.db)
	return layout.NewArchive(client, rt.cfg.Storage.Bucket, store, rt.log), nil
}

func runArchiveExport(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	archive, err := newArchive(rt)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if archiveAll {
		names, err := archive.ExportAll(ctx, archiveGuildID)
		if err != nil {
			return err
		}
		rt.log.Info("Exported all layout versions",
			zap.String("guild_id", archiveGuildID),
			zap.Int("count", len(names)))
		return nil
	}

	name, err := archive.Export(ctx, archiveGuildID, archiveVersion)
	if err != nil {
		return err
	}
	rt.log.Info("Exported layout", zap.String("object", name))
	return nil
}

func runArchiveRestore(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	archive, err := newArchive(rt)
	if err != nil {
		return err
	}

	newVersion, err := archive.Restore(context.Background(), archiveGuildID, archiveVersion, archiveActivate)
	if err != nil {
		return err
	}
	fmt.Printf("Restored archived version %d as stored version %d\n", archiveVersion, newVersion)
	return nil
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	archive, err := newArchive(rt)
	if err != nil {
		return err
	}

	versions, err := archive.ListArchived(context.Background(), archiveGuildID)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Println("No archived versions")
		return nil
	}
	for _, v := range versions {
		fmt.Printf("v%d\n", v)
	}
	return nil
}
