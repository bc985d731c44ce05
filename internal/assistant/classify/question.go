package classify

import "github.com/orbitcrm/assist/internal/assistant/textutil"

// QuestionType buckets a query by its interrogative shape. The prompt
// builder uses it to steer answer framing; it carries no access-control
// meaning.
func QuestionType(text string) string {
	words := textutil.Words(text)
	if len(words) == 0 {
		return "statement"
	}
	switch words[0] {
	case "how":
		return "how-to"
	case "what", "which":
		return "definition"
	case "why":
		return "explanation"
	case "can", "could", "may", "is", "are", "do", "does", "will", "would", "should":
		return "capability"
	case "where", "when", "who":
		return "lookup"
	default:
		return "statement"
	}
}
