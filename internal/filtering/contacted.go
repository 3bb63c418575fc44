package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/dev-sourcer/internal/sourcing"
)

const ContactedName = "contacted"

// ContactedLister returns the ids of candidates that already have an outreach message.
type ContactedLister interface {
	ContactedCandidates(ctx context.Context) ([]string, error)
}

type contactedFilter struct {
	toggle
	lister ContactedLister
}

// NewContacted creates a filter that removes candidates who were already contacted.
func NewContacted(lister ContactedLister) Filter {
	f := &contactedFilter{lister: lister}
	if lister == nil {
		f.Disable("history store is not configured")
	}
	return f
}

func (f *contactedFilter) Name() string { return ContactedName }

func (f *contactedFilter) Apply(ctx context.Context, candidates []*sourcing.Candidate) ([]*sourcing.Candidate, Step, error) {
	ids, err := f.lister.ContactedCandidates(ctx)
	if err != nil {
		return nil, Step{}, fmt.Errorf("list contacted candidates: %w", err)
	}

	contacted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		contacted[id] = struct{}{}
	}

	kept, step := exclude(candidates, func(c *sourcing.Candidate) bool {
		_, ok := contacted[c.ID]
		return ok
	})
	return kept, step, nil
}

func (f *contactedFilter) Status() Status {
	return f.status(f.Name(), map[string]string{
		"exclude_contacted": strconv.FormatBool(f.IsEnabled()),
	})
}
