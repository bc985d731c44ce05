package llm

import "sync"

// rotator hands out model identifiers round-robin. It is owned by the
// tier-1 adapter; every attempt, including retries, advances the index.
type rotator struct {
	mu     sync.Mutex
	models []string
	idx    int
}

func newRotator(models []string) *rotator {
	return &rotator{models: models}
}

// next advances the rotation and returns the model to use for this attempt.
// An empty pool returns "".
func (r *rotator) next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.models) == 0 {
		return ""
	}
	m := r.models[r.idx%len(r.models)]
	r.idx++
	return m
}
