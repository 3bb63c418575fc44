package filtering

import (
	"context"
	"strconv"

	"github.com/spigell/dev-sourcer/internal/sourcing"
)

const MinFollowersName = "min_followers"

type minFollowersFilter struct {
	toggle
	threshold int
}

// NewMinFollowers creates a filter that removes candidates with fewer than threshold followers.
// It is disabled for threshold <= 0.
func NewMinFollowers(threshold int) Filter {
	f := &minFollowersFilter{threshold: threshold}
	if threshold <= 0 {
		f.Disable("no minimum configured")
	}
	return f
}

func (f *minFollowersFilter) Name() string { return MinFollowersName }

func (f *minFollowersFilter) Apply(_ context.Context, candidates []*sourcing.Candidate) ([]*sourcing.Candidate, Step, error) {
	kept, step := exclude(candidates, func(c *sourcing.Candidate) bool {
		return c.Metrics.Followers < f.threshold
	})
	return kept, step, nil
}

func (f *minFollowersFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"min": strconv.Itoa(f.threshold)})
}
