package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conorfennell/langdrill/internal/config"
	"github.com/conorfennell/langdrill/internal/gitsource"
	"github.com/conorfennell/langdrill/internal/logging"
	contentsync "github.com/conorfennell/langdrill/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Clone or pull the configured content repositories",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path, cmd.Flags())
		if err != nil {
			return err
		}
		log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}

		var progress io.Writer
		if verbose, _ := cmd.Flags().GetBool("progress"); verbose {
			progress = cmd.ErrOrStderr()
		}
		report, syncErr := contentsync.RunSync(cmd.Context(), cfg.Content, gitsource.New(log, progress), log)

		out := cmd.OutOrStdout()
		for url, result := range report.Repos {
			fmt.Fprintf(out, "%-12s %s\n", result, url)
		}
		for _, d := range report.Decks {
			switch {
			case d.Err != nil:
				fmt.Fprintf(out, "%-12s error: %v\n", d.Deck, d.Err)
			default:
				fmt.Fprintf(out, "%-12s %d entries (%d custom)\n", d.Deck, d.Entries, d.Custom)
			}
		}
		return syncErr
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().Bool("progress", false, "print git progress output")
}
