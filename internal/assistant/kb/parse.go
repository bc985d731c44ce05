package kb

import (
	"bufio"
	"io"
	"strings"
)

// ParseEntries reads a role asset in block format. A line starting "Q:"
// opens an entry with its first question; further non-empty, non-"A:" lines
// before the answer are extra question variants; "A:" begins the answer and
// following non-empty lines are appended to it, space-joined, until the next
// "Q:" or end of input. Blocks without at least one question and a non-empty
// answer are dropped.
func ParseEntries(r io.Reader, role Role) ([]Entry, error) {
	var entries []Entry

	var questions []string
	var answerParts []string
	inAnswer := false

	flush := func() {
		if len(questions) > 0 && len(answerParts) > 0 {
			answer := strings.Join(answerParts, " ")
			entries = append(entries, Entry{
				Questions: questions,
				Answer:    answer,
				Role:      role,
				Entities:  deriveEntities(questions, answer),
			})
		}
		questions = nil
		answerParts = nil
		inAnswer = false
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "Q:"):
			flush()
			if q := strings.TrimSpace(line[2:]); q != "" {
				questions = append(questions, q)
			}
		case strings.HasPrefix(line, "A:"):
			inAnswer = true
			if a := strings.TrimSpace(line[2:]); a != "" {
				answerParts = append(answerParts, a)
			}
		case inAnswer:
			answerParts = append(answerParts, line)
		case len(questions) > 0:
			questions = append(questions, line)
		default:
			// Text before the first Q: block carries no entry; skip it.
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return entries, nil
}
