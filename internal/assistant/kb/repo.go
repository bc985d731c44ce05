package kb

import (
	"bytes"
	"embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

//go:embed assets/*.txt
var assetFS embed.FS

var roles = []Role{RoleAdmin, RoleEmployee, RoleCustomer}

// Repository caches the parsed knowledge bases, one slice per role. Loading
// happens lazily on the first Entries call and exactly once per Repository;
// concurrent first callers share the same in-flight load. A missing or
// unreadable asset degrades to an empty slice for that role and is logged,
// never returned as an error.
type Repository struct {
	dir    string
	logger *log.Logger

	once    sync.Once
	entries map[Role][]Entry
}

// NewRepository builds an unloaded repository. dir optionally overrides the
// embedded assets with <dir>/<role>.txt files; pass "" to use the embedded
// ones.
func NewRepository(dir string, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.New(log.Writer(), "[KB] ", log.LstdFlags)
	}
	return &Repository{dir: dir, logger: logger}
}

// Entries returns the entries for role, loading all role assets on first
// use. The returned slice must not be mutated.
func (r *Repository) Entries(role Role) []Entry {
	r.once.Do(r.load)
	return r.entries[role]
}

func (r *Repository) load() {
	r.entries = make(map[Role][]Entry, len(roles))
	for _, role := range roles {
		entries, err := r.loadRole(role)
		if err != nil {
			r.logger.Printf("load %s knowledge base: %v (continuing with empty set)", role, err)
			entries = nil
		}
		r.entries[role] = entries
		r.logger.Printf("loaded %d %s entries", len(entries), role)
	}
}

func (r *Repository) loadRole(role Role) ([]Entry, error) {
	var raw []byte
	var err error
	if r.dir != "" {
		raw, err = os.ReadFile(filepath.Join(r.dir, string(role)+".txt"))
	} else {
		raw, err = assetFS.ReadFile("assets/" + string(role) + ".txt")
	}
	if err != nil {
		return nil, fmt.Errorf("read asset: %w", err)
	}
	entries, err := ParseEntries(bytes.NewReader(raw), role)
	if err != nil {
		return nil, fmt.Errorf("parse asset: %w", err)
	}
	return entries, nil
}
