// Package entity tags free text with the CRM subjects it concerns. The
// keyword buckets live in an embedded JSON asset so they can be retuned
// without touching code.
package entity

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/orbitcrm/assist/internal/assistant/textutil"
)

// Tag is a closed-set label for a CRM subject.
type Tag string

const (
	Documents Tag = "documents"
	Contacts  Tag = "contacts"
	Chat      Tag = "chat"
	Employees Tag = "employees"
	Products  Tag = "products"
	Leads     Tag = "leads"
	Deals     Tag = "deals"
	Tasks     Tag = "tasks"
)

// tagOrder fixes the extraction order so results are deterministic.
var tagOrder = []Tag{Documents, Contacts, Chat, Employees, Products, Leads, Deals, Tasks}

//go:embed buckets.json
var bucketsJSON []byte

var buckets map[Tag][]string

func init() {
	if err := json.Unmarshal(bucketsJSON, &buckets); err != nil {
		panic(fmt.Sprintf("entity: bad buckets asset: %v", err))
	}
	for _, tag := range tagOrder {
		if len(buckets[tag]) == 0 {
			panic(fmt.Sprintf("entity: bucket %q missing from asset", tag))
		}
	}
}

// Extract returns the tags whose bucket has at least one keyword variant
// contained in the normalized text. The result may be empty.
func Extract(text string) []Tag {
	norm := textutil.Normalize(text)
	if norm == "" {
		return nil
	}
	var tags []Tag
	for _, tag := range tagOrder {
		for _, kw := range buckets[tag] {
			if textutil.ContainsPhrase(norm, kw) {
				tags = append(tags, tag)
				break
			}
		}
	}
	return tags
}

// Intersects reports whether a and b share at least one tag.
func Intersects(a, b []Tag) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
