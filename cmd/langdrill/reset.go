package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/langdrill/internal/domain"
)

var resetCmd = &cobra.Command{
	Use:   "reset [deck [direction]]",
	Short: "Delete review progress",
	Long: `Delete the review progress of one deck/direction, every direction of a
deck, or, with --all, every deck. Settings are kept.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		keys, err := resetKeys(args, all)
		if err != nil {
			return err
		}

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, key := range keys {
			if err := a.db.ClearStore(cmd.Context(), key); err != nil {
				return err
			}
			a.log.WithField("key", key.String()).Info("progress cleared")
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", key)
		}
		return nil
	},
}

func resetKeys(args []string, all bool) ([]domain.Key, error) {
	switch {
	case all && len(args) > 0:
		return nil, errors.New("--all takes no arguments")
	case all:
		return domain.AllKeys(), nil
	case len(args) == 0:
		return nil, errors.New("name a deck or pass --all")
	case len(args) == 2:
		key, err := domain.ParseKey(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return []domain.Key{key}, nil
	}
	deck, err := domain.ParseDeck(args[0])
	if err != nil {
		return nil, err
	}
	var keys []domain.Key
	for _, dir := range deck.Directions() {
		keys = append(keys, domain.Key{Deck: deck, Direction: dir})
	}
	return keys, nil
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().Bool("all", false, "reset every deck")
}
