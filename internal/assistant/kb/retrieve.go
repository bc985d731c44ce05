package kb

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"

	"github.com/orbitcrm/assist/internal/assistant/classify"
	"github.com/orbitcrm/assist/internal/assistant/telemetry"
	"github.com/orbitcrm/assist/internal/assistant/textutil"
)

// RefusalMessage is returned verbatim when an unauthenticated caller asks
// about staff-only operations. The prompt builder quotes the same template
// so providers and local retrieval refuse with one voice.
const RefusalMessage = "I'm sorry, I can't help with administrative or staff operations. Please sign in with a staff account, or ask me about your own contacts, deals, documents and tasks."

//go:embed restricted.json
var restrictedJSON []byte

var restrictedKeywords []string

func init() {
	if err := json.Unmarshal(restrictedJSON, &restrictedKeywords); err != nil {
		panic(fmt.Sprintf("kb: bad restricted-keywords asset: %v", err))
	}
}

// Retriever decides whether a local knowledge-base answer satisfies a
// query, enforcing role and authentication access control before any
// repository work.
type Retriever struct {
	repo       *Repository
	classifier *classify.Classifier
	scorer     Scorer
	logger     *log.Logger
	metrics    *telemetry.Metrics
}

// NewRetriever wires a retriever over the given repository and classifier.
// metrics may be nil.
func NewRetriever(repo *Repository, classifier *classify.Classifier, logger *log.Logger, metrics *telemetry.Metrics) *Retriever {
	if logger == nil {
		logger = log.New(log.Writer(), "[RETRIEVE] ", log.LstdFlags)
	}
	return &Retriever{
		repo:       repo,
		classifier: classifier,
		scorer:     NewScorer(classifier.HasERPKeyword),
		logger:     logger,
		metrics:    metrics,
	}
}

// Retrieve returns the knowledge-base answer for the query, or ok=false to
// defer to the provider fallback. Unauthenticated callers asking about
// staff-only operations get the fixed refusal without any repository or
// provider work; unauthenticated callers are always served the customer
// knowledge base regardless of the role they request.
func (r *Retriever) Retrieve(query string, requestedRole Role, isAuthenticated bool) (string, bool) {
	if !isAuthenticated && isRestricted(query) {
		r.metrics.IncRefusal()
		r.logger.Printf("refused unauthenticated staff-flavored query (%d words)", textutil.WordCount(query))
		return RefusalMessage, true
	}

	cls := r.classifier.Classify(query)
	if cls.Type == classify.General || cls.Type == classify.Unclear {
		return "", false
	}

	role := requestedRole
	if !isAuthenticated {
		role = RoleCustomer
	}

	r.metrics.IncKBLookup()
	entries := r.repo.Entries(role)
	q := PrepareQuery(query, cls)
	entry, ok := r.scorer.BestMatch(q, entries)
	if !ok {
		return "", false
	}
	r.metrics.IncKBHit()
	return entry.Answer, true
}

// isRestricted applies the admin/employee heuristic over the restricted
// keyword set.
func isRestricted(query string) bool {
	for _, kw := range restrictedKeywords {
		if textutil.ContainsPhrase(query, kw) {
			return true
		}
	}
	return false
}
