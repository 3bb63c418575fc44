package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/dev-sourcer/internal/filtering"
	"github.com/spigell/dev-sourcer/internal/outreach"
	"github.com/spigell/dev-sourcer/internal/report"
	"github.com/spigell/dev-sourcer/internal/sourcing"
)

const (
	PromptSave           = "Save the message"
	PromptRegenerate     = "Compose again"
	PromptUseTemplate    = "Use the template instead"
	PromptDiscard        = "Discard"
	PromptAbort          = "Abort"
	PromptCandidateTitle = "Choose a candidate and press ENTER"
)

var errExit = errors.New("exit")

var outreachCmd = &cobra.Command{
	Use:   "outreach <listing-id>",
	Short: "Draft an outreach message for a candidate of a saved listing",
	Long: `Draft an outreach message for a candidate of a saved listing.
The message is stored in history for an external dispatcher, it is never sent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return compose(outreachOptionsFromFlags(cmd), args[0])
	},
}

func init() {
	rootCmd.AddCommand(outreachCmd)

	outreachCmd.Flags().StringP("mode", "m", "", "template or generative (default is outreach.mode from config)")
	outreachCmd.Flags().StringP("candidate", "c", "", "candidate id or handle; asks interactively when unset")
	outreachCmd.Flags().BoolP("exclude", "e", false, "append the candidate handle to the exclude file after saving")
	outreachCmd.Flags().BoolP("yes", "y", false, "save the message without confirmation")
	outreachCmd.Flags().Bool("no-save", false, "print the message only")
	outreachCmd.Flags().Bool("include-contacted", false, "offer candidates who already have an outreach message")
}

type outreachOptions struct {
	mode             string
	candidate        string
	exclude          bool
	autoApprove      bool
	noSave           bool
	includeContacted bool
}

func outreachOptionsFromFlags(cmd *cobra.Command) outreachOptions {
	var opts outreachOptions
	opts.mode, _ = cmd.Flags().GetString("mode")
	opts.candidate, _ = cmd.Flags().GetString("candidate")
	opts.exclude, _ = cmd.Flags().GetBool("exclude")
	opts.autoApprove, _ = cmd.Flags().GetBool("yes")
	opts.noSave, _ = cmd.Flags().GetBool("no-save")
	opts.includeContacted, _ = cmd.Flags().GetBool("include-contacted")
	return opts
}

func compose(opts outreachOptions, listingID string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, logger, err := bootstrap()
	if err != nil {
		return err
	}

	modeName := opts.mode
	if modeName == "" && config.Outreach != nil {
		modeName = config.Outreach.Mode
	}
	mode, err := outreach.ParseMode(modeName)
	if err != nil {
		return fmt.Errorf("parsing the outreach mode: %w", err)
	}

	store, err := newStore(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("opening the history store: %w", err)
	}
	defer store.Close()

	listing, err := store.GetListing(ctx, listingID)
	if err != nil {
		return fmt.Errorf("getting the listing %s: %w", listingID, err)
	}

	if listing.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "listing has no candidates"))
		return nil
	}

	var candidate *sourcing.Candidate
	if opts.candidate != "" {
		candidate, err = findCandidate(listing, opts.candidate)
	} else {
		var choices []*sourcing.Candidate
		choices, err = filtering.Run(ctx, newFilters(config, store, opts.includeContacted), listing.Candidates, logger)
		if err != nil {
			return fmt.Errorf("filtering candidates: %w", err)
		}
		if len(choices) == 0 {
			logger.Info("exiting", zap.String("reason", "every candidate is filtered out"), zap.String("hint", "use --include-contacted or --candidate"))
			return nil
		}
		candidate, err = pickCandidate(choices)
	}
	if err != nil {
		if errors.Is(err, errExit) {
			return nil
		}
		return fmt.Errorf("choosing a candidate: %w", err)
	}

	composer, err := newComposer(ctx, config, mode, logger)
	if err != nil {
		return fmt.Errorf("preparing the composer: %w", err)
	}

	msg, err := composeWithFallback(ctx, composer, candidate, mode, listing, opts.autoApprove, logger)
	if err != nil {
		if errors.Is(err, errExit) {
			return nil
		}
		return fmt.Errorf("composing a message: %w", err)
	}

	fmt.Println(report.Message(msg, candidate))

	if opts.noSave {
		return nil
	}

	if !opts.autoApprove {
		confirm := promptui.Select{
			Label: "Proceed?",
			Items: []string{PromptSave, PromptDiscard},
		}
		_, action, err := confirm.Run()
		if err != nil {
			return err
		}
		if action == PromptDiscard {
			logger.Info("exiting", zap.String("reason", "message discarded"))
			return nil
		}
	}

	if err := store.SaveMessage(ctx, listing.ID, composer.Recruiter().Name, msg); err != nil {
		return fmt.Errorf("saving the message: %w", err)
	}

	logger.Info("message saved",
		zap.String("message_id", msg.ID),
		zap.String("candidate", candidate.Handle),
	)

	if !opts.exclude {
		return nil
	}
	if config.ExcludeFile == "" {
		logger.Warn("exclude file is not configured, skipping", zap.String("hint", "set the 'exclude-file' key in the configuration file"))
		return nil
	}
	if err := filtering.AppendToExcludeFile(config.ExcludeFile, candidate.Handle); err != nil {
		return fmt.Errorf("appending to the exclude file: %w", err)
	}
	logger.Info("candidate appended to the exclude file", zap.String("file", config.ExcludeFile))

	return nil
}

// findCandidate resolves ref as an id or a handle of any candidate in the listing.
func findCandidate(listing *sourcing.Listing, ref string) (*sourcing.Candidate, error) {
	if c := listing.FindByID(ref); c != nil {
		return c, nil
	}
	for _, c := range listing.Candidates {
		if strings.EqualFold(c.Handle, ref) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("candidate %q is not in listing %s", ref, listing.ID)
}

func pickCandidate(candidates []*sourcing.Candidate) (*sourcing.Candidate, error) {
	items := make([]string, 0, len(candidates)+1)
	for _, c := range candidates {
		items = append(items, fmt.Sprintf("%s / %d followers / %s / %s",
			c.Handle, c.Metrics.Followers, strings.Join(c.Languages, ", "), c.ProfileURL,
		))
	}

	candidatePrompt := promptui.Select{
		Label: PromptCandidateTitle,
		Items: append(items, PromptAbort),
		Size:  10,
	}

	i, _, err := candidatePrompt.Run()
	if err != nil {
		return nil, err
	}
	if i == len(candidates) {
		return nil, errExit
	}

	return candidates[i], nil
}

// composeWithFallback lets the user decide what to do when generation fails.
// Auto approval falls back to the template right away.
func composeWithFallback(ctx context.Context, composer *outreach.Composer, candidate *sourcing.Candidate, mode outreach.Mode, listing *sourcing.Listing, autoApprove bool, logger *zap.Logger) (*outreach.Message, error) {
	for {
		msg, err := composer.Compose(ctx, candidate, mode, &listing.ParsedQuery)
		if err == nil {
			return msg, nil
		}
		if !errors.Is(err, outreach.ErrGeneration) {
			return nil, err
		}

		logger.Warn("message generation failed", zap.Error(err))

		if autoApprove {
			logger.Info("falling back to the template")
			return composer.Compose(ctx, candidate, outreach.ModeTemplate, nil)
		}

		fallback := promptui.Select{
			Label: "Generation failed. What next?",
			Items: []string{PromptRegenerate, PromptUseTemplate, PromptAbort},
		}
		_, action, err := fallback.Run()
		if err != nil {
			return nil, err
		}

		switch action {
		case PromptRegenerate:
			continue
		case PromptUseTemplate:
			mode = outreach.ModeTemplate
		case PromptAbort:
			logger.Info("exiting", zap.String("reason", "aborted after generation failure"))
			return nil, errExit
		default:
			return nil, fmt.Errorf("invalid action: %s", action)
		}
	}
}
