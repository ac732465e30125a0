package model

import "time"

// Category is reference data a transaction can be assigned to.
type Category struct {
	ID     string
	UserID string // empty = shared/system category
	Name   string
	Color  string
}

// CategorizationRule maps a keyword to a category. System rules are seeded
// and checked after the owning user's rules; within a tier, creation order
// decides ties.
type CategorizationRule struct {
	ID         string
	UserID     string // empty for system rules
	Keyword    string // matched as a case-insensitive substring
	CategoryID string
	IsSystem   bool
	CreatedAt  time.Time
}
