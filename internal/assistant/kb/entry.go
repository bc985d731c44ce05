// Package kb holds the role-partitioned knowledge bases the assistant
// answers from before falling back to external providers: a block-format
// parser, a lazily loaded repository, a fuzzy match scorer, and the
// retrieval orchestrator that ties them together under access control.
package kb

import (
	"strings"

	"github.com/orbitcrm/assist/internal/assistant/entity"
)

// Role partitions knowledge-base entries by audience.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleCustomer Role = "customer"
)

// ParseRole maps an arbitrary role hint onto a known role, defaulting to
// customer.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleEmployee:
		return RoleEmployee
	default:
		return RoleCustomer
	}
}

// Entry is one parsed knowledge-base record. The first question is the
// canonical phrasing; Entities are derived once at load time from the
// questions and the answer. Entries never change after creation.
type Entry struct {
	Questions []string
	Answer    string
	Role      Role
	Entities  []entity.Tag
}

// deriveEntities tags an entry from all of its question variants plus the
// answer text.
func deriveEntities(questions []string, answer string) []entity.Tag {
	return entity.Extract(strings.Join(append(append([]string{}, questions...), answer), " "))
}
