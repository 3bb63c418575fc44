// Package filtering narrows a sourced candidate list through an ordered set of steps.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/dev-sourcer/internal/sourcing"
)

// Filter represents a single filtering step applied to candidates.
// Steps never reorder the candidates they keep.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, candidates []*sourcing.Candidate) ([]*sourcing.Candidate, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
	// DroppedHandles lists the removed candidates in rank order.
	DroppedHandles []string
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// toggle carries the enabled state shared by every step.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) status(name string, details map[string]string) Status {
	return Status{Name: name, Enabled: !t.disabled, Reason: t.reason, Details: details}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially and returns the candidates left.
func Run(ctx context.Context, steps []Filter, candidates []*sourcing.Candidate, logger *zap.Logger) ([]*sourcing.Candidate, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, candidates)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)
		if len(info.DroppedHandles) > 0 {
			logger.Debug("filter dropped candidates",
				zap.String("name", step.Name()),
				zap.Strings("handles", info.DroppedHandles),
			)
		}

		candidates = next
	}

	return candidates, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// exclude keeps candidates for which drop is false.
func exclude(candidates []*sourcing.Candidate, drop func(*sourcing.Candidate) bool) ([]*sourcing.Candidate, Step) {
	kept := make([]*sourcing.Candidate, 0, len(candidates))
	dropped := make([]string, 0)

	for _, c := range candidates {
		if drop(c) {
			dropped = append(dropped, c.Handle)
			continue
		}
		kept = append(kept, c)
	}

	return kept, Step{Initial: len(candidates), Dropped: len(dropped), Left: len(kept), DroppedHandles: dropped}
}
