package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/ccptracker/internal/domain"
	"github.com/emiliopalmerini/ccptracker/internal/util"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger summary",
	Long: `Show where the ledger lives and summarize what it holds.

Examples:
  ccptracker status                  # Ledger for the configured scope
  ccptracker status --scope project  # Ledger of the current project`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := NewAppContext(ctx, scopeFlag, "")
	if err != nil {
		return err
	}
	defer closeApp(ctx, app)

	records, err := app.Ledger.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}
	pending, err := app.Sessions.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	printStatus(cmd.OutOrStdout(), app.Config.Scope, app.Config.LedgerPath, domain.ComputeLedgerStats(records), pending)
	return nil
}

func printStatus(w io.Writer, scope domain.Scope, ledgerPath string, stats domain.LedgerStats, pending *domain.SessionState) {
	fmt.Fprintf(w, "Ledger:          %s (%s)\n", ledgerPath, scope)
	fmt.Fprintf(w, "Conversations:   %d (%d answered, %d rated)\n", stats.Conversations, stats.Answered, stats.Rated)

	if stats.Rated > 0 {
		fmt.Fprintf(w, "Average rating:  %.2f / 5\n", stats.AverageRating)
	} else {
		fmt.Fprintln(w, "Average rating:  -")
	}

	fmt.Fprintf(w, "Estimated cost:  %s %s\n", domain.FormatCost(stats.TotalCostUSD), domain.CostCurrency)
	fmt.Fprintf(w, "Actual tokens:   %s in / %s out\n", util.FormatNumber(stats.TotalInput), util.FormatNumber(stats.TotalOutput))

	if stats.LastRequestDtm != "" {
		fmt.Fprintf(w, "Last request:    %s\n", stats.LastRequestDtm)
	}
	if pending != nil {
		fmt.Fprintf(w, "Awaiting rating: session %s since %s\n", pending.SessionID, pending.Timestamp)
	}
}
