// Package outreach composes first-contact messages for sourced candidates.
package outreach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/dev-sourcer/internal/logger"
	"github.com/spigell/dev-sourcer/internal/query"
	"github.com/spigell/dev-sourcer/internal/sourcing"
	"github.com/spigell/dev-sourcer/internal/utils"
)

type Mode string

const (
	ModeTemplate   Mode = "template"
	ModeGenerative Mode = "generative"
)

// ErrGeneration marks a generative composition that failed or produced nothing usable.
// Callers may retry, fall back to ModeTemplate or report it.
var ErrGeneration = errors.New("outreach generation failed")

//go:embed prompt.md
var systemInstruction string

const defaultMaxLogLength = 200

// ParseMode validates a configured mode. An empty value selects ModeTemplate.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeTemplate, nil
	case ModeTemplate, ModeGenerative:
		return m, nil
	default:
		return "", fmt.Errorf("unknown outreach mode %q", s)
	}
}

// TextGenerator produces free text for a fixed instruction and a user payload.
type TextGenerator interface {
	GenerateContent(ctx context.Context, systemInstruction, payload string) (string, error)
}

type Recruiter struct {
	Name    string `mapstructure:"name"`
	Company string `mapstructure:"company"`
}

var DefaultRecruiter = Recruiter{Name: "John Recruiter", Company: "TechHire Inc."}

type Message struct {
	ID          string    `json:"id"`
	CandidateID string    `json:"candidate_id"`
	Mode        Mode      `json:"mode"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// Text renders the message the way a mail client would show it.
func (m *Message) Text() string {
	if m.Subject == "" {
		return m.Body
	}
	return "Subject: " + m.Subject + "\n\n" + m.Body
}

type Composer struct {
	generator TextGenerator
	recruiter Recruiter
	logger    *zap.Logger
	maxLogLen int
	clock     func() time.Time
}

// NewComposer creates a composer. generator may be nil when only ModeTemplate is used.
func NewComposer(generator TextGenerator, recruiter Recruiter, logger *zap.Logger, maxLogLength int) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if strings.TrimSpace(recruiter.Name) == "" {
		recruiter.Name = DefaultRecruiter.Name
	}
	if strings.TrimSpace(recruiter.Company) == "" {
		recruiter.Company = DefaultRecruiter.Company
	}

	return &Composer{
		generator: generator,
		recruiter: recruiter,
		logger:    logger,
		maxLogLen: maxLogLength,
		clock:     time.Now,
	}
}

// Recruiter returns the sender the composer signs messages with.
func (c *Composer) Recruiter() Recruiter {
	return c.recruiter
}

// Compose writes a message for candidate. requirements is optional context for ModeGenerative.
// Only ModeGenerative can fail with ErrGeneration.
func (c *Composer) Compose(ctx context.Context, candidate *sourcing.Candidate, mode Mode, requirements *query.SearchFilter) (*Message, error) {
	if candidate == nil {
		return nil, errors.New("candidate is required")
	}

	var (
		subject, body string
		err           error
	)

	switch mode {
	case ModeTemplate:
		subject, body = c.template(candidate)
	case ModeGenerative:
		subject, body, err = c.generate(ctx, candidate, requirements)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown outreach mode %q", mode)
	}

	return &Message{
		ID:          uuid.NewString(),
		CandidateID: candidate.ID,
		Mode:        mode,
		Subject:     subject,
		Body:        body,
		CreatedAt:   c.clock().UTC(),
	}, nil
}

type generationPayload struct {
	Requirements *query.SearchFilter `json:"requirements,omitempty"`
	Candidate    *sourcing.Candidate `json:"candidate"`
}

func (c *Composer) generate(ctx context.Context, candidate *sourcing.Candidate, requirements *query.SearchFilter) (string, string, error) {
	if c.generator == nil {
		return "", "", fmt.Errorf("%w: no text generator configured", ErrGeneration)
	}

	payload, err := json.MarshalIndent(generationPayload{
		Requirements: requirements,
		Candidate:    candidate,
	}, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal outreach payload: %w", err)
	}

	log := c.logger.With(logger.CandidateFields("", candidate.ID, candidate.Handle)...)

	prompt := "Generate a personalized outreach email for the following candidate:\n```json\n" + string(payload) + "\n```"

	log.Debug("outreach generation request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
	)

	raw, err := c.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	log.Debug("outreach generation response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
	)

	subject, body := ParseMessage(raw)
	if body == "" {
		return "", "", fmt.Errorf("%w: empty message body", ErrGeneration)
	}
	if subject == "" {
		log.Debug("generated message has no subject line")
	}

	return subject, body, nil
}
