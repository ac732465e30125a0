package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType records the direction of money movement. Amounts are
// always non-negative magnitudes; the sign lives here.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Confidence is a coarse quality signal attached to heuristic extraction
// and categorization results.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// PaymentStatus tracks the lifecycle of a generated recurring transaction.
type PaymentStatus string

const (
	PaymentPlanned   PaymentStatus = "planned"
	PaymentCompleted PaymentStatus = "completed"
)

// DefaultCurrency is assumed when a statement carries no currency.
const DefaultCurrency = "PLN"

// DefaultDescription is the sentinel used when a parser extracts no
// description text.
const DefaultDescription = "Transaction"

// ParsedTransaction is the canonical output of every statement parser.
type ParsedTransaction struct {
	Date         time.Time       // calendar date, no time component
	Amount       decimal.Decimal // non-negative magnitude
	Description  string
	MerchantName string // empty if the parser extracted none
	Type         TransactionType
	Currency     string

	Confidence Confidence // set by the PDF extractor, empty otherwise
	Reference  string     // MT940 transaction reference, empty otherwise
	RawText    string     // source line(s) for provenance
}

// Transaction is a persisted transaction row, either imported from a
// statement or generated from a recurring expense template.
type Transaction struct {
	ID          string
	UserID      string
	AccountID   string
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Merchant    string
	Type        TransactionType
	Currency    string

	CategoryID         string // empty = uncategorized
	RecurringExpenseID string // empty = not linked to a template
	RecurringGenerated bool
	PaymentStatus      PaymentStatus // only set on generated transactions

	// ExternalRef is the import identity derived from source, date, amount
	// and a description prefix. Two imports of the same statement collide
	// here and the second copy is skipped.
	ExternalRef string

	CreatedAt time.Time
}

// SearchText returns the lowercased text keyword rules and recurring match
// keywords are tested against.
func (t Transaction) SearchText() string {
	return strings.ToLower(strings.TrimSpace(t.Merchant + " " + t.Description))
}

// Month returns the first day of the transaction's month.
func (t Transaction) Month() time.Time {
	return time.Date(t.Date.Year(), t.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
}
