package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/skarbnik-dev/skarbnik/internal/model"
)

//go:embed schema.sql
var schema string

const dateFormat = "2006-01-02"

// SQLiteStore implements Store on a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func fmtDate(t time.Time) string {
	return t.Format(dateFormat)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseAmountColumn(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// InsertAccount stores an account, assigning an ID if absent.
func (s *SQLiteStore) InsertAccount(ctx context.Context, a *model.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, number, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, a.Number, a.Currency, a.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

// ListAccounts returns a user's accounts in name order.
func (s *SQLiteStore) ListAccounts(ctx context.Context, userID string) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, number, currency, created_at
		FROM accounts WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var a model.Account
		var created string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Number, &a.Currency, &created); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertTransaction stores a transaction, assigning an ID if absent.
func (s *SQLiteStore) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, user_id, account_id, date, amount, description, merchant,
			type, currency, category_id, recurring_expense_id,
			is_recurring_generated, payment_status, external_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.AccountID, fmtDate(t.Date), t.Amount.String(),
		t.Description, t.Merchant, string(t.Type), t.Currency, t.CategoryID,
		t.RecurringExpenseID, t.RecurringGenerated, string(t.PaymentStatus),
		t.ExternalRef, t.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

// TransactionExists reports whether a user already has a transaction with
// the given external reference.
func (s *SQLiteStore) TransactionExists(ctx context.Context, userID, externalRef string) (bool, error) {
	if externalRef == "" {
		return false, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE user_id = ? AND external_ref = ?`, userID, externalRef).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking external ref: %w", err)
	}
	return n > 0, nil
}

// ListTransactions returns filtered transactions in (date, id) order.
func (s *SQLiteStore) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]model.Transaction, error) {
	query := `
		SELECT id, user_id, account_id, date, amount, description, merchant,
		       type, currency, category_id, recurring_expense_id,
		       is_recurring_generated, payment_status, external_ref, created_at
		FROM transactions WHERE user_id = ?`
	params := []any{userID}

	if !f.From.IsZero() {
		query += " AND date >= ?"
		params = append(params, fmtDate(f.From))
	}
	if !f.To.IsZero() {
		query += " AND date <= ?"
		params = append(params, fmtDate(f.To))
	}
	if f.Type != "" {
		query += " AND type = ?"
		params = append(params, string(f.Type))
	}
	if f.Uncategorized {
		query += " AND category_id = ''"
	}
	if f.UnlinkedExpenses {
		query += " AND type = 'expense' AND recurring_expense_id = ''"
	}
	if f.RecurringExpenseID != "" {
		query += " AND recurring_expense_id = ?"
		params = append(params, f.RecurringExpenseID)
	}
	if f.GeneratedOnly {
		query += " AND is_recurring_generated = 1"
	}
	query += " ORDER BY date, id"

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(rows *sql.Rows) (model.Transaction, error) {
	var t model.Transaction
	var date, amount, txnType, status, created string
	err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &date, &amount,
		&t.Description, &t.Merchant, &txnType, &t.Currency, &t.CategoryID,
		&t.RecurringExpenseID, &t.RecurringGenerated, &status, &t.ExternalRef, &created)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("scanning transaction: %w", err)
	}
	t.Date = parseDate(date)
	t.Amount = parseAmountColumn(amount)
	t.Type = model.TransactionType(txnType)
	t.PaymentStatus = model.PaymentStatus(status)
	t.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return t, nil
}

func (s *SQLiteStore) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTransactionCategory sets a transaction's category.
func (s *SQLiteStore) UpdateTransactionCategory(ctx context.Context, userID, txnID, categoryID string) error {
	err := s.execOne(ctx, `
		UPDATE transactions SET category_id = ?
		WHERE id = ? AND user_id = ?`, categoryID, txnID, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("updating transaction category: %w", err)
	}
	return err
}

// LinkTransactionRecurring links a transaction to a recurring expense and,
// when non-empty, assigns the template's category.
func (s *SQLiteStore) LinkTransactionRecurring(ctx context.Context, userID, txnID, recurringID, categoryID string) error {
	query := `UPDATE transactions SET recurring_expense_id = ?`
	params := []any{recurringID}
	if categoryID != "" {
		query += `, category_id = ?`
		params = append(params, categoryID)
	}
	query += ` WHERE id = ? AND user_id = ?`
	params = append(params, txnID, userID)

	err := s.execOne(ctx, query, params...)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("linking transaction: %w", err)
	}
	return err
}

// UpdateTransactionPaymentStatus sets the payment status of a generated
// transaction.
func (s *SQLiteStore) UpdateTransactionPaymentStatus(ctx context.Context, userID, txnID string, status model.PaymentStatus) error {
	err := s.execOne(ctx, `
		UPDATE transactions SET payment_status = ?
		WHERE id = ? AND user_id = ?`, string(status), txnID, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("updating payment status: %w", err)
	}
	return err
}

// InsertCategory stores a category, assigning an ID if absent.
func (s *SQLiteStore) InsertCategory(ctx context.Context, c *model.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, color) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Color)
	if err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	return nil
}

// ListCategories returns system categories plus the user's own.
func (s *SQLiteStore) ListCategories(ctx context.Context, userID string) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, color FROM categories
		WHERE user_id = '' OR user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertRule stores a categorization rule, assigning an ID if absent.
func (s *SQLiteStore) InsertRule(ctx context.Context, r *model.CategorizationRule) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categorization_rules (id, user_id, keyword, category_id, is_system, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Keyword, r.CategoryID, r.IsSystem, r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting rule: %w", err)
	}
	return nil
}

// ListRules returns the user's rules first, then system rules, each tier
// in creation order. The ordering is the categorization tie-break.
func (s *SQLiteStore) ListRules(ctx context.Context, userID string) ([]model.CategorizationRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, keyword, category_id, is_system, created_at
		FROM categorization_rules
		WHERE (is_system = 0 AND user_id = ?) OR is_system = 1
		ORDER BY is_system, created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var out []model.CategorizationRule
	for rows.Next() {
		var r model.CategorizationRule
		var created string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Keyword, &r.CategoryID, &r.IsSystem, &created); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertRecurringExpense stores a template, assigning an ID if absent.
func (s *SQLiteStore) InsertRecurringExpense(ctx context.Context, e *model.RecurringExpense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recurring_expenses (
			id, user_id, name, amount, currency, category_id, day_of_month,
			interval_months, start_date, match_keywords, is_active,
			last_occurrence_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Name, e.Amount.String(), e.Currency, e.CategoryID,
		e.DayOfMonth, e.IntervalMonths, fmtDate(e.StartDate),
		strings.Join(e.MatchKeywords, ","), e.IsActive,
		lastOccurrenceColumn(e), e.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting recurring expense: %w", err)
	}
	return nil
}

// UpdateRecurringExpense replaces a stored template.
func (s *SQLiteStore) UpdateRecurringExpense(ctx context.Context, e *model.RecurringExpense) error {
	err := s.execOne(ctx, `
		UPDATE recurring_expenses SET
			name = ?, amount = ?, currency = ?, category_id = ?,
			day_of_month = ?, interval_months = ?, start_date = ?,
			match_keywords = ?, is_active = ?, last_occurrence_date = ?
		WHERE id = ? AND user_id = ?`,
		e.Name, e.Amount.String(), e.Currency, e.CategoryID, e.DayOfMonth,
		e.IntervalMonths, fmtDate(e.StartDate), strings.Join(e.MatchKeywords, ","),
		e.IsActive, lastOccurrenceColumn(e), e.ID, e.UserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("updating recurring expense: %w", err)
	}
	return err
}

func lastOccurrenceColumn(e *model.RecurringExpense) string {
	if e.LastOccurrenceDate.IsZero() {
		return ""
	}
	return fmtDate(e.LastOccurrenceDate)
}

// ListRecurringExpenses returns a user's templates in creation order.
func (s *SQLiteStore) ListRecurringExpenses(ctx context.Context, userID string, activeOnly bool) ([]model.RecurringExpense, error) {
	query := `
		SELECT id, user_id, name, amount, currency, category_id, day_of_month,
		       interval_months, start_date, match_keywords, is_active,
		       last_occurrence_date, created_at
		FROM recurring_expenses WHERE user_id = ?`
	if activeOnly {
		query += " AND is_active = 1"
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing recurring expenses: %w", err)
	}
	defer rows.Close()

	var out []model.RecurringExpense
	for rows.Next() {
		var e model.RecurringExpense
		var amount, start, keywords, lastOcc, created string
		err := rows.Scan(&e.ID, &e.UserID, &e.Name, &amount, &e.Currency,
			&e.CategoryID, &e.DayOfMonth, &e.IntervalMonths, &start,
			&keywords, &e.IsActive, &lastOcc, &created)
		if err != nil {
			return nil, fmt.Errorf("scanning recurring expense: %w", err)
		}
		e.Amount = parseAmountColumn(amount)
		e.StartDate = parseDate(start)
		if keywords != "" {
			e.MatchKeywords = strings.Split(keywords, ",")
		}
		e.LastOccurrenceDate = parseDate(lastOcc)
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertOverride replaces any override for the (expense, month) key. The
// unique constraint on (recurring_expense_id, override_month) backs this.
func (s *SQLiteStore) UpsertOverride(ctx context.Context, o *model.RecurringOverride) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Month = model.MonthOf(o.Month)

	var amount any
	if o.OverrideAmount != nil {
		amount = o.OverrideAmount.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recurring_overrides (
			id, recurring_expense_id, override_month, override_amount,
			is_skipped, is_manually_confirmed, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (recurring_expense_id, override_month) DO UPDATE SET
			override_amount = excluded.override_amount,
			is_skipped = excluded.is_skipped,
			is_manually_confirmed = excluded.is_manually_confirmed,
			notes = excluded.notes`,
		o.ID, o.RecurringExpenseID, fmtDate(o.Month), amount,
		o.IsSkipped, o.IsManuallyConfirmed, o.Notes)
	if err != nil {
		return fmt.Errorf("upserting override: %w", err)
	}
	return nil
}

// GetOverride returns the override for an (expense, month) key, or
// ErrNotFound.
func (s *SQLiteStore) GetOverride(ctx context.Context, recurringID string, month time.Time) (*model.RecurringOverride, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, recurring_expense_id, override_month, override_amount,
		       is_skipped, is_manually_confirmed, notes
		FROM recurring_overrides
		WHERE recurring_expense_id = ? AND override_month = ?`,
		recurringID, fmtDate(model.MonthOf(month)))

	var o model.RecurringOverride
	var monthStr string
	var amount sql.NullString
	err := row.Scan(&o.ID, &o.RecurringExpenseID, &monthStr, &amount,
		&o.IsSkipped, &o.IsManuallyConfirmed, &o.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading override: %w", err)
	}
	o.Month = parseDate(monthStr)
	if amount.Valid {
		d := parseAmountColumn(amount.String)
		o.OverrideAmount = &d
	}
	return &o, nil
}
