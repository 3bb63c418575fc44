// Package query turns a recruiter's free-text hiring need into a structured search filter.
//
// Interpretation is best-effort: it never fails, and input that matches nothing yields
// a filter with empty or default fields.
package query

import (
	"regexp"
	"slices"
	"strings"
)

type Seniority string

const (
	SeniorityNone      Seniority = ""
	SeniorityJunior    Seniority = "Junior"
	SenioritySenior    Seniority = "Senior"
	SeniorityLead      Seniority = "Lead"
	SeniorityPrincipal Seniority = "Principal"
)

type EmploymentType string

const (
	EmploymentFullTime  EmploymentType = "Full-time"
	EmploymentContract  EmploymentType = "Contract"
	EmploymentPartTime  EmploymentType = "Part-time"
	EmploymentRemote    EmploymentType = "Remote"
	EmploymentFreelance EmploymentType = "Freelance"

	DefaultEmploymentType = EmploymentFullTime
)

// LocationRemote is the city entry that means "no particular place".
const LocationRemote = "Remote"

// SearchFilter is the structured form of a hiring query.
type SearchFilter struct {
	JobRoles       []string       `json:"jobRoles"`
	Seniority      Seniority      `json:"seniority,omitempty"`
	Location       string         `json:"location,omitempty"`
	EmploymentType EmploymentType `json:"employmentType"`
	Skills         []string       `json:"skills"`
}

// Interpreter matches raw queries against a fixed Vocabulary.
// It holds no mutable state and is safe for concurrent use.
type Interpreter struct {
	vocabulary *Vocabulary
	skills     []skillMatcher
}

type skillMatcher struct {
	name    string
	pattern *regexp.Regexp
}

// NewInterpreter compiles the vocabulary. A nil vocabulary selects DefaultVocabulary.
func NewInterpreter(v *Vocabulary) *Interpreter {
	if v == nil {
		v = DefaultVocabulary()
	}

	skills := make([]skillMatcher, 0, len(v.Skills))
	for _, term := range v.Skills {
		spellings := term.spellings()
		if len(spellings) == 0 {
			continue
		}

		quoted := make([]string, 0, len(spellings))
		for _, s := range spellings {
			quoted = append(quoted, regexp.QuoteMeta(s))
		}

		// RE2 \b is ASCII-only and treats "+" or "." as boundaries inside terms like C++ or .NET.
		pattern := `(?i)(?:^|[^\pL\pN_])(?:` + strings.Join(quoted, "|") + `)(?:[^\pL\pN_]|$)`
		skills = append(skills, skillMatcher{
			name:    term.Name,
			pattern: regexp.MustCompile(pattern),
		})
	}

	return &Interpreter{vocabulary: v, skills: skills}
}

// Interpret builds a SearchFilter from raw query text.
func (i *Interpreter) Interpret(raw string) SearchFilter {
	text := strings.ToLower(raw)

	filter := SearchFilter{
		JobRoles:       make([]string, 0),
		Seniority:      SeniorityNone,
		EmploymentType: DefaultEmploymentType,
		Skills:         i.ExtractSkills(raw),
	}

	filter.JobRoles = detectRoles(text, i.vocabulary.Roles)

	if term, ok := firstMatch(text, i.vocabulary.Seniority); ok {
		filter.Seniority = Seniority(term.Name)
	}

	if term, ok := firstMatch(text, i.vocabulary.Cities); ok {
		filter.Location = term.Name
	}

	if term, ok := firstMatch(text, i.vocabulary.Employment); ok {
		filter.EmploymentType = EmploymentType(term.Name)
	}

	return filter
}

// ExtractSkills returns the sorted vocabulary skills mentioned in raw.
// The result is empty, never nil, when nothing is recognized.
func (i *Interpreter) ExtractSkills(raw string) []string {
	found := make([]string, 0)
	for _, skill := range i.skills {
		if skill.pattern.MatchString(raw) && !slices.Contains(found, skill.name) {
			found = append(found, skill.name)
		}
	}

	slices.Sort(found)
	return found
}

// detectRoles returns the matching role names ordered by where they first occur in text.
// Roles found at the same position keep their table order.
func detectRoles(text string, roles []Term) []string {
	type detection struct {
		name string
		at   int
	}

	found := make([]detection, 0)
	for _, term := range roles {
		at := firstIndex(text, term.spellings())
		if at < 0 || slices.ContainsFunc(found, func(d detection) bool { return d.name == term.Name }) {
			continue
		}
		found = append(found, detection{name: term.Name, at: at})
	}

	slices.SortStableFunc(found, func(a, b detection) int { return a.at - b.at })

	names := make([]string, 0, len(found))
	for _, d := range found {
		names = append(names, d.name)
	}
	return names
}

func firstIndex(text string, needles []string) int {
	first := -1
	for _, needle := range needles {
		if at := strings.Index(text, needle); at >= 0 && (first < 0 || at < first) {
			first = at
		}
	}
	return first
}

func firstMatch(text string, terms []Term) (Term, bool) {
	for _, term := range terms {
		if containsAny(text, term.spellings()) {
			return term, true
		}
	}
	return Term{}, false
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
