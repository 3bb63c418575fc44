package outreach

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/dev-sourcer/internal/query"
	"github.com/spigell/dev-sourcer/internal/sourcing"
)

type stubGenerator struct {
	response    string
	err         error
	calls       int
	instruction string
	payload     string
}

func (s *stubGenerator) GenerateContent(_ context.Context, systemInstruction, payload string) (string, error) {
	s.calls++
	s.instruction = systemInstruction
	s.payload = payload
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testCandidate(bio string) *sourcing.Candidate {
	return &sourcing.Candidate{
		ID:         "github-42",
		Handle:     "octocat",
		Bio:        bio,
		Location:   "Bangalore",
		ProfileURL: "https://github.com/octocat",
		Languages:  []string{"Go", "Python"},
	}
}

func TestParseMessage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		raw     string
		subject string
		body    string
	}{
		{
			name:    "subject and body",
			raw:     "Subject: Hello\n\nBody text",
			subject: "Hello",
			body:    "Body text",
		},
		{
			name:    "no subject line",
			raw:     "  Hi there,\nlet's talk.  \n",
			subject: "",
			body:    "Hi there,\nlet's talk.",
		},
		{
			name:    "crlf line endings",
			raw:     "Subject: Role at Acme  \r\n\r\nHi,\r\nthanks",
			subject: "Role at Acme",
			body:    "Hi,\r\nthanks",
		},
		{
			name:    "subject only",
			raw:     "Subject: Just this",
			subject: "Just this",
			body:    "",
		},
		{
			name:    "subject not at start",
			raw:     "Hello\nSubject: Later",
			subject: "",
			body:    "Hello\nSubject: Later",
		},
		{
			name:    "empty subject value",
			raw:     "Subject:\nBody",
			subject: "",
			body:    "Body",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			subject, body := ParseMessage(tc.raw)
			if subject != tc.subject {
				t.Fatalf("subject: expected %q, got %q", tc.subject, subject)
			}
			if body != tc.body {
				t.Fatalf("body: expected %q, got %q", tc.body, body)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	cases := map[string]Mode{
		"":            ModeTemplate,
		"template":    ModeTemplate,
		" Generative": ModeGenerative,
	}
	for raw, expected := range cases {
		got, err := ParseMode(raw)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", raw, err)
		}
		if got != expected {
			t.Fatalf("%q: expected %q, got %q", raw, expected, got)
		}
	}

	if _, err := ParseMode("carrier-pigeon"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestComposeTemplate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		bio      string
		subject  string
		contains []string
	}{
		{
			name:    "llm langchain senior",
			bio:     "Senior engineer building LLM apps with LangChain",
			subject: "Exciting opportunity for octocat - Your expertise in LLMs is impressive!",
			contains: []string{
				"your work in large language models",
				"recruiting for a Senior role",
				"expertise in LangChain and RAG systems.",
			},
		},
		{
			name:    "generic bio",
			bio:     "I like computers",
			subject: "Exciting opportunity for octocat - Your expertise in AI is impressive!",
			contains: []string{
				"your work in artificial intelligence",
				"recruiting for a Lead role",
				"expertise in AI engineering.",
			},
		},
		{
			name:    "checks are case sensitive",
			bio:     "senior llm langchain person",
			subject: "Exciting opportunity for octocat - Your expertise in AI is impressive!",
			contains: []string{
				"recruiting for a Lead role",
			},
		},
	}

	composer := NewComposer(nil, Recruiter{}, zap.NewNop(), 0)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := composer.Compose(context.Background(), testCandidate(tc.bio), ModeTemplate, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg.Subject != tc.subject {
				t.Fatalf("unexpected subject: %q", msg.Subject)
			}
			for _, fragment := range tc.contains {
				if !strings.Contains(msg.Body, fragment) {
					t.Fatalf("expected body to contain %q, got:\n%s", fragment, msg.Body)
				}
			}
			if !strings.HasSuffix(msg.Body, "Best regards,\nJohn Recruiter\nTechHire Inc.") {
				t.Fatalf("expected default signature, got:\n%s", msg.Body)
			}
			if msg.CandidateID != "github-42" || msg.Mode != ModeTemplate || msg.ID == "" {
				t.Fatalf("unexpected message metadata: %+v", msg)
			}
		})
	}
}

func TestComposeTemplateIsDeterministic(t *testing.T) {
	composer := NewComposer(nil, Recruiter{Name: "Ada", Company: "Engines Ltd"}, nil, 0)
	candidate := testCandidate("LLM researcher")

	first, err := composer.Compose(context.Background(), candidate, ModeTemplate, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := composer.Compose(context.Background(), candidate, ModeTemplate, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Subject != second.Subject || first.Body != second.Body {
		t.Fatalf("expected identical text")
	}
	if !strings.HasSuffix(first.Body, "Ada\nEngines Ltd") {
		t.Fatalf("expected configured signature, got:\n%s", first.Body)
	}
}

func TestComposeGenerative(t *testing.T) {
	stub := &stubGenerator{response: "Subject: Hello\n\nBody text"}
	composer := NewComposer(stub, Recruiter{}, zap.NewNop(), 0)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	composer.clock = func() time.Time { return fixed }

	requirements := &query.SearchFilter{
		JobRoles:       []string{"engineer"},
		Seniority:      query.SenioritySenior,
		EmploymentType: query.EmploymentContract,
		Skills:         []string{"RAG"},
	}

	msg, err := composer.Compose(context.Background(), testCandidate("bio"), ModeGenerative, requirements)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.Subject != "Hello" || msg.Body != "Body text" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if !msg.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected timestamp: %v", msg.CreatedAt)
	}
	if msg.Text() != "Subject: Hello\n\nBody text" {
		t.Fatalf("unexpected text: %q", msg.Text())
	}
	if stub.instruction != systemInstruction || !strings.Contains(stub.instruction, "Subject:") {
		t.Fatalf("expected embedded system instruction to be sent")
	}

	start := strings.Index(stub.payload, "```json\n")
	end := strings.LastIndex(stub.payload, "\n```")
	if start < 0 || end <= start {
		t.Fatalf("payload is not a fenced json block: %q", stub.payload)
	}

	var sent struct {
		Requirements *query.SearchFilter `json:"requirements"`
		Candidate    *sourcing.Candidate `json:"candidate"`
	}
	if err := json.Unmarshal([]byte(stub.payload[start+len("```json\n"):end]), &sent); err != nil {
		t.Fatalf("payload is not valid json: %v", err)
	}
	if sent.Candidate == nil || sent.Candidate.Handle != "octocat" {
		t.Fatalf("unexpected candidate payload: %+v", sent.Candidate)
	}
	if sent.Requirements == nil || sent.Requirements.Seniority != query.SenioritySenior {
		t.Fatalf("unexpected requirements payload: %+v", sent.Requirements)
	}
}

func TestComposeGenerativeWithoutSubject(t *testing.T) {
	stub := &stubGenerator{response: "  Hi octocat, want to chat?  "}

	msg, err := NewComposer(stub, Recruiter{}, nil, 0).Compose(context.Background(), testCandidate(""), ModeGenerative, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.Subject != "" || msg.Body != "Hi octocat, want to chat?" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Text() != msg.Body {
		t.Fatalf("expected text without subject header, got %q", msg.Text())
	}
	if strings.Contains(stub.payload, `"requirements"`) {
		t.Fatalf("did not expect requirements in payload")
	}
}

func TestComposeGenerativeFailures(t *testing.T) {
	t.Parallel()

	upstream := errors.New("quota exhausted")

	cases := []struct {
		name      string
		generator TextGenerator
		wrapped   error
	}{
		{name: "service error", generator: &stubGenerator{err: upstream}, wrapped: upstream},
		{name: "empty response", generator: &stubGenerator{response: "   "}},
		{name: "subject without body", generator: &stubGenerator{response: "Subject: Hi"}},
		{name: "no generator"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			composer := NewComposer(tc.generator, Recruiter{}, zap.NewNop(), 0)

			msg, err := composer.Compose(context.Background(), testCandidate("bio"), ModeGenerative, nil)
			if msg != nil {
				t.Fatalf("expected no message, got %+v", msg)
			}
			if !errors.Is(err, ErrGeneration) {
				t.Fatalf("expected ErrGeneration, got %v", err)
			}
			if tc.wrapped != nil && !errors.Is(err, tc.wrapped) {
				t.Fatalf("expected upstream error to be wrapped, got %v", err)
			}
		})
	}
}

func TestComposeDoesNotRetry(t *testing.T) {
	stub := &stubGenerator{err: errors.New("temporary")}

	_, err := NewComposer(stub, Recruiter{}, nil, 0).Compose(context.Background(), testCandidate(""), ModeGenerative, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if stub.calls != 1 {
		t.Fatalf("expected a single generation call, got %d", stub.calls)
	}
}

func TestComposeRejectsInvalidInput(t *testing.T) {
	composer := NewComposer(nil, Recruiter{}, nil, 0)

	if _, err := composer.Compose(context.Background(), nil, ModeTemplate, nil); err == nil {
		t.Fatalf("expected error for nil candidate")
	}
	if _, err := composer.Compose(context.Background(), testCandidate(""), Mode("fax"), nil); err == nil || errors.Is(err, ErrGeneration) {
		t.Fatalf("expected plain error for unknown mode, got %v", err)
	}
}
