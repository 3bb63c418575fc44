package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/dev-sourcer/internal/history"
	"github.com/spigell/dev-sourcer/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history [listing-id]",
	Short: "Show saved listings, or one listing with its messages",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return showHistory(limit, args)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "l", 20, "maximum number of listings to show")
}

func showHistory(limit int, args []string) error {
	ctx := context.Background()

	config, logger, err := bootstrap()
	if err != nil {
		return err
	}

	store, err := newStore(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("opening the history store: %w", err)
	}
	defer store.Close()

	if len(args) == 0 {
		summaries, err := store.ListListings(ctx, limit)
		if err != nil {
			return fmt.Errorf("listing saved searches: %w", err)
		}

		fmt.Print(report.Summaries(summaries))
		return nil
	}

	listing, err := store.GetListing(ctx, args[0])
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("listing %s not found", args[0])
		}
		return fmt.Errorf("getting the listing: %w", err)
	}

	fmt.Println(report.Listing(listing))

	messages, err := store.Messages(ctx, listing.ID)
	if err != nil {
		return fmt.Errorf("getting messages: %w", err)
	}

	logger.Info("outreach messages", zap.Int("count", len(messages)))

	for _, msg := range messages {
		candidate := listing.FindByID(msg.CandidateID)
		if candidate == nil {
			logger.Warn("message for unknown candidate", zap.String("candidate_id", msg.CandidateID))
			continue
		}
		fmt.Println(report.Message(msg, candidate))
	}

	return nil
}
