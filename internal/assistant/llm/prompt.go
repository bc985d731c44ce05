package llm

import (
	"fmt"
	"strings"

	"github.com/orbitcrm/assist/internal/assistant/classify"
	"github.com/orbitcrm/assist/internal/assistant/kb"
)

const promptBaseline = "You are the OrbitCRM assistant, a helpful guide for a CRM product covering contacts, leads, deals, invoices, products, documents and tasks. Answer plainly and accurately. If you are not sure about something, say so instead of guessing."

const promptGeneral = "The user is asking a general or unclear question outside CRM workflows; answer it helpfully and briefly, and offer to come back to CRM topics."

// BuildSystemPrompt assembles the system instruction from ordered
// fragments, skipping empty ones, joined by single spaces.
func BuildSystemPrompt(role string, qc QueryContext) string {
	frags := []string{
		promptBaseline,
		generalFragment(qc),
		accessFragment(qc),
		roleFragment(role),
		fmt.Sprintf("The request was classified as %s with confidence %.2f.", qc.Classification, qc.Confidence),
		questionTypeFragment(qc),
		lengthFragment(qc),
	}
	var kept []string
	for _, f := range frags {
		if f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

func generalFragment(qc QueryContext) string {
	if qc.Classification == classify.General || qc.Classification == classify.Unclear {
		return promptGeneral
	}
	return ""
}

func accessFragment(qc QueryContext) string {
	if qc.IsAuthenticated {
		return ""
	}
	return fmt.Sprintf("The user is not signed in: only discuss customer-facing features, and for any administrative or staff-only operation reply exactly with: %q.", kb.RefusalMessage)
}

func roleFragment(role string) string {
	switch kb.ParseRole(role) {
	case kb.RoleAdmin:
		return "The user is a workspace admin: they may ask about team management, employee roles and permissions, billing, pipeline configuration and audit logs, in addition to everyday CRM work."
	case kb.RoleEmployee:
		return "The user is a staff employee: they work with leads, deals, tasks, contacts, documents and reports, but do not manage workspace settings or other employees."
	default:
		return "The user is a customer: they manage their own contacts, deals, invoices, documents and tasks, and cannot see staff or admin functionality."
	}
}

func questionTypeFragment(qc QueryContext) string {
	if qc.QuestionType == "" {
		return ""
	}
	return fmt.Sprintf("The question reads as a %s question.", qc.QuestionType)
}

func lengthFragment(qc QueryContext) string {
	switch {
	case qc.WordCount <= 5:
		return "Keep the reply to one or two sentences."
	case qc.WordCount <= 20:
		return "Keep the reply to one concise paragraph."
	default:
		return "A detailed answer is fine, but stay focused and under three paragraphs."
	}
}
