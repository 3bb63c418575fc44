package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/dev-sourcer/internal/filtering"
	"github.com/spigell/dev-sourcer/internal/history"
	"github.com/spigell/dev-sourcer/internal/report"
	"github.com/spigell/dev-sourcer/internal/sourcing"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find developers matching a free-text hiring need",
	Example: `  dev-sourcer search "senior golang developer in Berlin"
  dev-sourcer search --limit 5 remote rust contract`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return search(searchOptionsFromFlags(cmd), strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("limit", "l", 0, "maximum number of candidates (default is search.limit from config)")
	searchCmd.Flags().Bool("include-contacted", false, "do not exclude candidates who already have an outreach message")
	searchCmd.Flags().Bool("no-save", false, "do not store the listing in history")
}

type searchOptions struct {
	limit            int
	includeContacted bool
	noSave           bool
}

func searchOptionsFromFlags(cmd *cobra.Command) searchOptions {
	limit, _ := cmd.Flags().GetInt("limit")
	includeContacted, _ := cmd.Flags().GetBool("include-contacted")
	noSave, _ := cmd.Flags().GetBool("no-save")

	return searchOptions{limit: limit, includeContacted: includeContacted, noSave: noSave}
}

// searchRun is one sourcing pass: search, save and filter.
type searchRun struct {
	sourcer *sourcing.Sourcer
	filters []filtering.Filter
	store   *history.Store
	limit   int
	logger  *zap.Logger
}

// searchResult pairs the listing as sourced with the candidates left after filtering.
// The listing itself is never narrowed.
type searchResult struct {
	listing   *sourcing.Listing
	shortlist []*sourcing.Candidate
}

// view is the listing restricted to the shortlist, for display only.
func (r *searchResult) view() *sourcing.Listing {
	view := *r.listing
	view.Candidates = r.shortlist
	return &view
}

func (r *searchRun) do(ctx context.Context, raw string) (*searchResult, error) {
	listing := r.sourcer.Search(ctx, raw, r.limit)

	r.logger.Info("sourcing finished",
		zap.String("listing_id", listing.ID),
		zap.Int("count", listing.Len()),
	)

	if r.store != nil {
		if err := r.store.SaveListing(ctx, listing); err != nil {
			return nil, fmt.Errorf("saving listing: %w", err)
		}
	}

	shortlist := listing.Candidates
	if listing.Len() != 0 {
		filtered, err := filtering.Run(ctx, r.filters, listing.Candidates, r.logger)
		if err != nil {
			return nil, fmt.Errorf("filtering: %w", err)
		}
		shortlist = filtered
	}

	return &searchResult{listing: listing, shortlist: shortlist}, nil
}

func search(opts searchOptions, raw string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, logger, err := bootstrap()
	if err != nil {
		return err
	}

	run, cleanup, err := prepareSearch(ctx, opts, config, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("starting the search", zap.String("query", raw))

	result, err := run.do(ctx, raw)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Println(report.Listing(result.view()))

	if dropped := result.listing.Len() - len(result.shortlist); dropped > 0 {
		logger.Info("candidates hidden by filters", zap.Int("count", dropped))
	}

	if result.listing.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates found"))
		return nil
	}

	if run.store != nil {
		logger.Info("listing saved",
			zap.String("listing_id", result.listing.ID),
			zap.String("hint", fmt.Sprintf("run '%s outreach %s' to draft messages", app, result.listing.ID)),
		)
	}

	return nil
}

// prepareSearch wires a searchRun from config and options. On error everything opened so far
// is already closed.
func prepareSearch(ctx context.Context, opts searchOptions, config *Config, logger *zap.Logger) (*searchRun, func(), error) {
	sourcer, closeDirectory, err := newSourcer(ctx, config, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("preparing the sourcer: %w", err)
	}

	cleanup := closeDirectory

	var store *history.Store
	if !opts.noSave || !opts.includeContacted {
		store, err = newStore(ctx, config, logger)
		if err != nil {
			closeDirectory()
			return nil, nil, fmt.Errorf("opening the history store: %w", err)
		}
		cleanup = func() {
			_ = store.Close()
			closeDirectory()
		}
	}

	limit := opts.limit
	if limit <= 0 {
		limit = searchLimit(config)
	}

	filters := newFilters(config, store, opts.includeContacted)
	for _, status := range filtering.Describe(filters) {
		logger.Debug("filter configured", zap.Any("status", status))
	}

	run := &searchRun{
		sourcer: sourcer,
		filters: filters,
		limit:   limit,
		logger:  logger,
	}
	if !opts.noSave {
		run.store = store
	}

	return run, cleanup, nil
}
