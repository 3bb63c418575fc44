package query

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var embeddedVocabulary []byte

// Term is a canonical keyword together with the spellings that select it.
// When no aliases are declared the name itself is the only spelling.
type Term struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// Vocabulary holds the keyword tables used by the Interpreter.
// Declaration order is significant for the single-valued tables.
type Vocabulary struct {
	Roles      []Term `yaml:"roles"`
	Seniority  []Term `yaml:"seniority"`
	Cities     []Term `yaml:"cities"`
	Employment []Term `yaml:"employment"`
	Skills     []Term `yaml:"skills"`
}

var defaultVocabulary = sync.OnceValue(func() *Vocabulary {
	v, err := ParseVocabulary(embeddedVocabulary)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary is invalid: %v", err))
	}
	return v
})

// DefaultVocabulary returns the tables compiled into the binary.
func DefaultVocabulary() *Vocabulary {
	return defaultVocabulary()
}

// LoadVocabulary reads keyword tables from a YAML file.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary file %q: %w", path, err)
	}

	return ParseVocabulary(data)
}

// ParseVocabulary decodes and validates YAML keyword tables.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}

	if err := v.validate(); err != nil {
		return nil, err
	}

	return &v, nil
}

func (v *Vocabulary) validate() error {
	tables := map[string][]Term{
		"roles":      v.Roles,
		"seniority":  v.Seniority,
		"cities":     v.Cities,
		"employment": v.Employment,
		"skills":     v.Skills,
	}

	for table, terms := range tables {
		for i, term := range terms {
			if strings.TrimSpace(term.Name) == "" {
				return fmt.Errorf("vocabulary %s[%d]: name is required", table, i)
			}
		}
	}

	for _, term := range v.Seniority {
		switch Seniority(term.Name) {
		case SeniorityJunior, SenioritySenior, SeniorityLead, SeniorityPrincipal:
		default:
			return fmt.Errorf("vocabulary seniority: unknown level %q", term.Name)
		}
	}

	for _, term := range v.Employment {
		if term.Name == string(DefaultEmploymentType) {
			return nil
		}
	}

	return errors.New("vocabulary employment: default type " + string(DefaultEmploymentType) + " must be declared")
}

// spellings returns the lower-cased spellings of a term.
func (t Term) spellings() []string {
	aliases := t.Aliases
	if len(aliases) == 0 {
		aliases = []string{t.Name}
	}

	result := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias != "" {
			result = append(result, alias)
		}
	}

	return result
}
