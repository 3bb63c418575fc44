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

	"github.com/spigell/dev-sourcer/internal/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch <query>",
	Short: "Re-run a search on a schedule and save every listing",
	Example: `  dev-sourcer watch "lead rust engineer remote"
  dev-sourcer watch --schedule "0 9 * * 1-5" senior python developer in London`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schedule, _ := cmd.Flags().GetString("schedule")
		return watch(searchOptionsFromFlags(cmd), schedule, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("schedule", "s", "", "cron spec or @every descriptor (default is watch.schedule from config)")
	watchCmd.Flags().IntP("limit", "l", 0, "maximum number of candidates per run (default is search.limit from config)")
	watchCmd.Flags().Bool("include-contacted", false, "do not exclude candidates who already have an outreach message")
	watchCmd.Flags().Bool("no-save", false, "log results without storing listings")
}

func watch(opts searchOptions, spec, raw string) error {
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

	if spec == "" && config.Watch != nil {
		spec = config.Watch.Schedule
	}

	job := func(ctx context.Context) error {
		result, err := run.do(ctx, raw)
		if err != nil {
			return err
		}

		logger.Info("watch run finished",
			zap.String("listing_id", result.listing.ID),
			zap.Strings("sourced", result.listing.Handles()),
			zap.Strings("shortlist", result.view().Handles()),
		)
		return nil
	}

	s, err := scheduler.New(spec, job, true, logger.With(zap.String("query", raw)))
	if err != nil {
		return fmt.Errorf("preparing the scheduler: %w", err)
	}

	return s.Run(ctx)
}
