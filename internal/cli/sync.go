package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy the ledger into the archive database",
	Long: `Upsert every ledger row into the libSQL archive configured with
CCPTRACKER_ARCHIVE_URL (and CCPTRACKER_ARCHIVE_TOKEN for remote databases).
Rows are keyed by id, so running sync repeatedly is safe.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := NewAppContext(ctx, scopeFlag, "")
	if err != nil {
		return err
	}
	defer closeApp(ctx, app)

	if app.Config.ArchiveURL == "" {
		return fmt.Errorf("CCPTRACKER_ARCHIVE_URL is not set")
	}
	if app.Archive == nil {
		return fmt.Errorf("archive %s is not available", app.Config.ArchiveURL)
	}

	records, err := app.Ledger.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	for _, rec := range records {
		if err := app.Archive.UpsertConversation(ctx, rec); err != nil {
			return err
		}
	}

	total, err := app.Archive.CountConversations(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Synced %d conversations (archive holds %d)\n", len(records), total)
	return nil
}
