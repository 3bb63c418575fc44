// Package report renders listings and messages for the terminal.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/spigell/dev-sourcer/internal/history"
	"github.com/spigell/dev-sourcer/internal/outreach"
	"github.com/spigell/dev-sourcer/internal/query"
	"github.com/spigell/dev-sourcer/internal/sourcing"
)

const maxBioWidth = 48

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// Filter describes how a query was interpreted.
func Filter(filter query.SearchFilter) string {
	value := func(s string) string {
		if s == "" {
			return mutedStyle.Render("-")
		}
		return s
	}
	list := func(items []string) string {
		return value(strings.Join(items, ", "))
	}

	lines := []string{
		"roles:      " + list(filter.JobRoles),
		"seniority:  " + value(string(filter.Seniority)),
		"location:   " + value(filter.Location),
		"employment: " + value(string(filter.EmploymentType)),
		"skills:     " + list(filter.Skills),
	}
	return strings.Join(lines, "\n")
}

// Listing renders the listing header and its candidates in rank order.
func Listing(listing *sourcing.Listing) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Listing %s", listing.ID)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%q, %s", listing.EnteredQuery, listing.CreatedAt.Format(time.RFC3339))))
	b.WriteString("\n\n")
	b.WriteString(Filter(listing.ParsedQuery))
	b.WriteString("\n\n")

	if listing.Len() == 0 {
		b.WriteString("No candidates found.\n")
		return b.String()
	}

	b.WriteString(Candidates(listing.Candidates))
	b.WriteString("\n")
	return b.String()
}

func Candidates(candidates []*sourcing.Candidate) string {
	t := newTable("#", "ID", "HANDLE", "FOLLOWERS", "LOCATION", "LANGUAGES", "BIO")
	for i, c := range candidates {
		t.Row(
			strconv.Itoa(i+1),
			c.ID,
			c.Handle,
			strconv.Itoa(c.Metrics.Followers),
			c.Location,
			strings.Join(c.Languages, ", "),
			truncate(c.Bio, maxBioWidth),
		)
	}
	return t.Render()
}

// Summaries renders stored listings, newest first.
func Summaries(summaries []history.ListingSummary) string {
	if len(summaries) == 0 {
		return "No saved listings.\n"
	}

	t := newTable("ID", "CREATED", "CANDIDATES", "QUERY")
	for _, s := range summaries {
		t.Row(s.ID, s.CreatedAt.Format(time.RFC3339), strconv.Itoa(s.Candidates), s.EnteredQuery)
	}
	return t.Render() + "\n"
}

// Message renders a composed message with its metadata.
func Message(msg *outreach.Message, candidate *sourcing.Candidate) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("To %s (%s)", candidate.Handle, candidate.ProfileURL)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s message %s", msg.Mode, msg.ID)))
	b.WriteString("\n\n")
	b.WriteString(msg.Text())
	b.WriteString("\n")
	return b.String()
}

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
