// Package classify decides what kind of question the assistant is looking
// at before any knowledge-base or provider work happens. The classifier is
// an ordered rule table; the first rule whose predicate matches wins. All
// phrase and keyword lists are embedded JSON assets so they can be retuned
// independently of the rule code.
package classify

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/orbitcrm/assist/internal/assistant/textutil"
)

// Type is the classification category of a query.
type Type string

const (
	Greeting Type = "greeting"
	ERP      Type = "erp"
	General  Type = "general"
	Unclear  Type = "unclear"
)

// Result is the classifier output for a single query.
type Result struct {
	Type       Type
	Confidence float64
}

// ActionEntityPair couples a set of action words with a set of entity words;
// a query matching one word from each side reads as an ERP operation.
type ActionEntityPair struct {
	Actions  []string `json:"actions"`
	Entities []string `json:"entities"`
}

// Wordlists holds the tunable phrase and keyword assets the rules consume.
type Wordlists struct {
	Greetings           []string           `json:"greetings"`
	ERPPhrases          []string           `json:"erp_phrases"`
	ActionEntityPairs   []ActionEntityPair `json:"action_entity_pairs"`
	NegativeIndicators  []string           `json:"negative_indicators"`
	ProgrammingKeywords []string           `json:"programming_keywords"`
	CRMKeywords         []string           `json:"crm_keywords"`
}

//go:embed wordlists.json
var wordlistsJSON []byte

// DefaultWordlists parses the embedded wordlist asset.
func DefaultWordlists() (Wordlists, error) {
	var wl Wordlists
	if err := json.Unmarshal(wordlistsJSON, &wl); err != nil {
		return Wordlists{}, fmt.Errorf("classify: bad wordlists asset: %w", err)
	}
	return wl, nil
}

type rule struct {
	match      func(q query) bool
	typ        Type
	confidence float64
}

type query struct {
	norm  string
	words []string
}

// Classifier evaluates the ordered rule cascade over a query.
type Classifier struct {
	lists Wordlists
	rules []rule
}

// New builds a classifier over the given wordlists.
func New(lists Wordlists) *Classifier {
	c := &Classifier{lists: lists}
	c.rules = []rule{
		{c.matchGreeting, Greeting, 0.9},
		{c.matchERPPhrase, ERP, 0.9},
		{c.matchActionEntity, ERP, 0.85},
		{c.matchNegativeIndicator, General, 0.9},
		{c.matchProgramming, General, 0.85},
		{c.matchCRMKeyword, ERP, 0.85},
	}
	return c
}

// NewDefault builds a classifier over the embedded wordlist asset.
func NewDefault() (*Classifier, error) {
	wl, err := DefaultWordlists()
	if err != nil {
		return nil, err
	}
	return New(wl), nil
}

// Classify runs the rule cascade top-down and returns the first match. A
// query matching no rule falls back to unclear (three words or fewer) or
// general.
func (c *Classifier) Classify(text string) Result {
	q := query{norm: textutil.Normalize(text)}
	q.words = textutil.Words(q.norm)

	for _, r := range c.rules {
		if r.match(q) {
			return Result{Type: r.typ, Confidence: r.confidence}
		}
	}
	if len(q.words) <= 3 {
		return Result{Type: Unclear, Confidence: 0.4}
	}
	return Result{Type: General, Confidence: 0.6}
}

// HasERPKeyword reports whether the text contains a generic CRM/ERP keyword
// or phrase. The knowledge-base scorer uses this for its ERP boost.
func (c *Classifier) HasERPKeyword(text string) bool {
	return containsAny(text, c.lists.CRMKeywords)
}

func (c *Classifier) matchGreeting(q query) bool {
	return containsAny(q.norm, c.lists.Greetings)
}

func (c *Classifier) matchERPPhrase(q query) bool {
	return containsAny(q.norm, c.lists.ERPPhrases)
}

func (c *Classifier) matchActionEntity(q query) bool {
	for _, pair := range c.lists.ActionEntityPairs {
		if containsAny(q.norm, pair.Actions) && containsAny(q.norm, pair.Entities) {
			return true
		}
	}
	return false
}

func (c *Classifier) matchNegativeIndicator(q query) bool {
	return containsAny(q.norm, c.lists.NegativeIndicators)
}

func (c *Classifier) matchProgramming(q query) bool {
	return containsAny(q.norm, c.lists.ProgrammingKeywords)
}

func (c *Classifier) matchCRMKeyword(q query) bool {
	return containsAny(q.norm, c.lists.CRMKeywords)
}

func containsAny(norm string, phrases []string) bool {
	for _, p := range phrases {
		if textutil.ContainsPhrase(norm, p) {
			return true
		}
	}
	return false
}
