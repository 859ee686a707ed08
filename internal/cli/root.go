package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var scopeFlag string

var rootCmd = &cobra.Command{
	Use:   "ccptracker",
	Short: "Conversation ledger for Claude Code",
	Long: `ccptracker records every Claude Code prompt, its response, token usage,
estimated cost and your 1-5 satisfaction rating in a CSV ledger.

It runs as UserPromptSubmit and Stop hooks; answer a response with a single
digit 1-5 to rate it.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&scopeFlag, "scope", "", "Ledger scope: project or global (default $CCPTRACKER_SCOPE)")
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(syncCmd)
}
