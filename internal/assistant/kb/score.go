package kb

import (
	"strings"

	"github.com/orbitcrm/assist/internal/assistant/classify"
	"github.com/orbitcrm/assist/internal/assistant/entity"
	"github.com/orbitcrm/assist/internal/assistant/textutil"
)

// Empirically tuned scoring constants. Their interplay has no unifying
// formula; they are carried over as-is and flagged for recalibration, not
// for silent cleanup.
const (
	scoreExact       = 100.0
	scoreContainment = 95.0
	scoreShortAll    = 90.0

	longQueryDampener  = 0.5 // >10 words with overlap < 70
	lowOverlapDampener = 0.6 // (possibly boosted) overlap < 60
	erpKeywordBoost    = 15.0

	entityMatchBoost       = 15.0
	entityMismatchDampener = 0.75
	untaggedShortDampener  = 0.9

	longQueryOverlapFloor = 70.0
	lowOverlapFloor       = 60.0
)

// Query is the prepared form of a user query the scorer works against.
type Query struct {
	Norm  string
	Words []string
	Tags  []entity.Tag
	Class classify.Type
}

// PrepareQuery normalizes and tags a raw query for scoring.
func PrepareQuery(text string, cls classify.Result) Query {
	norm := textutil.Normalize(text)
	return Query{
		Norm:  norm,
		Words: strings.Fields(norm),
		Tags:  entity.Extract(norm),
		Class: cls.Type,
	}
}

// Scorer computes 0-100 relevance scores between a query and knowledge-base
// entries. erpKeyword reports whether a question text carries a generic
// CRM/ERP keyword; the classifier's keyword list backs it in production.
type Scorer struct {
	erpKeyword func(string) bool
}

// NewScorer builds a scorer; erpKeyword may be nil to disable the ERP boost.
func NewScorer(erpKeyword func(string) bool) Scorer {
	return Scorer{erpKeyword: erpKeyword}
}

// Excluded applies the hard pre-filter: an entry is removed from
// consideration entirely when the query and entry both carry entity tags,
// the tags are disjoint, the query is short (at most four words) and not a
// greeting.
func (s Scorer) Excluded(q Query, e Entry) bool {
	return len(q.Tags) > 0 &&
		len(e.Entities) > 0 &&
		!entity.Intersects(q.Tags, e.Entities) &&
		len(q.Words) <= 4 &&
		q.Class != classify.Greeting
}

// Score returns the entity-adjusted relevance of e for q: the maximum
// per-question score across the entry's question variants, then one entity
// adjustment on top.
func (s Scorer) Score(q Query, e Entry) float64 {
	best := 0.0
	for _, question := range e.Questions {
		if sc := s.questionScore(q, question); sc > best {
			best = sc
		}
	}

	switch {
	case len(q.Tags) > 0 && entity.Intersects(q.Tags, e.Entities):
		best += entityMatchBoost
	case len(q.Tags) > 0 && len(e.Entities) > 0 && q.Class != classify.Greeting:
		// Tags on both sides but disjoint.
		best *= entityMismatchDampener
	case len(q.Tags) == 0 && len(e.Entities) > 0 && len(q.Words) <= 3 && q.Class != classify.Greeting:
		best *= untaggedShortDampener
	}
	if best > 100 {
		best = 100
	}
	return best
}

func (s Scorer) questionScore(q Query, question string) float64 {
	qn := textutil.Normalize(question)
	if qn == "" || q.Norm == "" {
		return 0
	}
	if qn == q.Norm {
		return scoreExact
	}
	if strings.Contains(qn, q.Norm) || strings.Contains(q.Norm, qn) {
		return scoreContainment
	}

	qWords := strings.Fields(qn)
	if len(q.Words) <= 3 || q.Class == classify.Greeting {
		if allWordsMatch(q.Words, qWords) {
			return scoreShortAll
		}
	}

	matched := 0
	for _, w := range q.Words {
		if wordMatches(w, qWords) {
			matched++
		}
	}
	overlap := float64(matched) / float64(len(q.Words)) * 100

	if len(q.Words) > 10 && overlap < longQueryOverlapFloor {
		overlap *= longQueryDampener
	}
	if q.Class == classify.ERP && s.erpKeyword != nil && s.erpKeyword(qn) {
		overlap += erpKeywordBoost
		if overlap > 100 {
			overlap = 100
		}
	}
	if overlap < lowOverlapFloor {
		overlap *= lowOverlapDampener
	}
	return overlap
}

// AcceptanceThreshold is the minimum adjusted score an entry must reach to
// be selected for this query.
func AcceptanceThreshold(q Query) float64 {
	switch {
	case q.Class == classify.Greeting:
		return 50
	case len(q.Words) <= 3:
		return 50
	case len(q.Words) <= 10:
		return 70
	default:
		return 85
	}
}

// BestMatch scans entries under the hard pre-filter and returns the entry
// with the strictly highest adjusted score meeting the acceptance
// threshold. Boosts cap adjusted scores at 100, so an overlap match can tie
// an exact match there; ties are broken by match band (exact beats
// containment beats overlap) and otherwise keep the first entry
// encountered.
func (s Scorer) BestMatch(q Query, entries []Entry) (Entry, bool) {
	threshold := AcceptanceThreshold(q)
	var best Entry
	bestScore := -1.0
	bestBand := -1
	found := false
	for _, e := range entries {
		if s.Excluded(q, e) {
			continue
		}
		sc := s.Score(q, e)
		if sc < threshold {
			continue
		}
		band := matchBand(q, e)
		if sc > bestScore || (sc == bestScore && band > bestBand) {
			best = e
			bestScore = sc
			bestBand = band
			found = true
		}
	}
	return best, found
}

// matchBand ranks how an entry matched the query: 2 for an exact question,
// 1 for containment, 0 for word overlap.
func matchBand(q Query, e Entry) int {
	band := 0
	for _, question := range e.Questions {
		qn := textutil.Normalize(question)
		if qn == "" || q.Norm == "" {
			continue
		}
		if qn == q.Norm {
			return 2
		}
		if strings.Contains(qn, q.Norm) || strings.Contains(q.Norm, qn) {
			band = 1
		}
	}
	return band
}

// wordMatches reports whether the query word is a substring of, or
// contains, any of the question's words.
func wordMatches(w string, qWords []string) bool {
	for _, qw := range qWords {
		if strings.Contains(qw, w) || strings.Contains(w, qw) {
			return true
		}
	}
	return false
}

func allWordsMatch(words, qWords []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !wordMatches(w, qWords) {
			return false
		}
	}
	return true
}
