package outreach

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spigell/dev-sourcer/internal/sourcing"
)

var subjectLine = regexp.MustCompile(`^Subject:[ \t]*(.*?)[ \t]*(?:\r?\n|$)`)

// ParseMessage splits generated text into subject and body. Text that does not start
// with a "Subject:" line is returned whole as the body with an empty subject.
func ParseMessage(raw string) (subject, body string) {
	text := strings.TrimSpace(raw)

	loc := subjectLine.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", text
	}

	return text[loc[2]:loc[3]], strings.TrimSpace(text[loc[1]:])
}

const templateBody = `Hi there,

I hope this email finds you well. I came across your GitHub profile and was really impressed by your work in %s and your contributions to the open-source community.

I'm currently recruiting for a %s role that aligns perfectly with your expertise in %s.

Would you be interested in discussing this opportunity further? If so, I'd love to schedule a brief call to share more details.

Looking forward to your response!

Best regards,
%s
%s`

// Bio checks are case-sensitive substring matches.
func (c *Composer) template(candidate *sourcing.Candidate) (string, string) {
	bio := candidate.Bio

	focus, field := "AI", "artificial intelligence"
	if strings.Contains(bio, "LLM") {
		focus, field = "LLMs", "large language models"
	}

	level := "Lead"
	if strings.Contains(bio, "Senior") {
		level = "Senior"
	}

	expertise := "AI engineering"
	if strings.Contains(bio, "LangChain") {
		expertise = "LangChain and RAG systems"
	}

	subject := fmt.Sprintf("Exciting opportunity for %s - Your expertise in %s is impressive!", candidate.Handle, focus)
	body := fmt.Sprintf(templateBody, field, level, expertise, c.recruiter.Name, c.recruiter.Company)

	return subject, body
}
