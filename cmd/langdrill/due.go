package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/conorfennell/langdrill/internal/decks"
	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fsrs"
	"github.com/conorfennell/langdrill/internal/storage"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Print the due cards of every deck",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		registry, err := a.registry(nil)
		if err != nil {
			return err
		}
		counts, err := registry.DueCounts(cmd.Context())
		if err != nil {
			return err
		}
		summaries, err := a.db.Summaries(cmd.Context())
		if err != nil {
			return err
		}
		byKey := make(map[domain.Key]storage.StoreSummary, len(summaries))
		for _, s := range summaries {
			byKey[s.Key] = s
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DECK\tDIRECTION\tREVIEWS\tNEW\tKNOWN\tLAST STUDIED")
		for _, c := range counts {
			s := byKey[c.Key]
			last := "never"
			if s.LastReviewDate != "" && s.Cards > 0 {
				last = string(s.LastReviewDate)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
				c.Key.Deck, c.Key.Direction, c.Reviews, c.New,
				humanize.Comma(int64(s.States[fsrs.Review])), last)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s cards due\n", humanize.Comma(int64(decks.TotalDue(counts))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dueCmd)
}
