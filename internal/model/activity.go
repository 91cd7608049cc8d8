// Package model defines domain types for stashstat activity records and statistics.
package model

import (
	"fmt"
	"strings"
	"time"
)

// OwnerCounterparty is the reserved owner tag marking a record consumed from the
// counterparty's stash. An empty owner means self-owned.
const OwnerCounterparty = "their_stash"

// Category is the consumption type of an activity.
type Category string

const (
	CategoryCone   Category = "cone"
	CategoryJoint  Category = "joint"
	CategoryBowl   Category = "bowl"
	CategoryEdible Category = "edible"
)

// AllCategories lists every known category in display order.
var AllCategories = []Category{CategoryCone, CategoryJoint, CategoryBowl, CategoryEdible}

// ParseCategory converts a name like "cone" or "CONE" into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllCategories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// ActivityRecord is one logged consumption event. Records are never mutated
// after they are created.
type ActivityRecord struct {
	ID         int64
	Category   Category
	Timestamp  time.Time
	ConsumerID string
	Quantity   float64 // grams
	Cost       float64
	Owner      string // "" = self, OwnerCounterparty, or a counterparty user id
	SessionID  string
}

// ExternalIdentity is the account a local consumer id resolves to.
type ExternalIdentity struct {
	UserID      string
	DisplayName string
}
