package model

import "time"

// Account represents a bank account transactions are imported into.
type Account struct {
	ID        string
	UserID    string
	Name      string
	Number    string // account number as reported by the bank, verbatim
	Currency  string
	CreatedAt time.Time
}
