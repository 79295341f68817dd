package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"expense-chat/internal/category"
	"expense-chat/internal/database"
	"expense-chat/internal/models"
)

// Period names accepted by the aggregate helpers.
const (
	PeriodCurrentMonth = "current_month"
	PeriodLastMonth    = "last_month"
	PeriodCurrentWeek  = "current_week"
	PeriodToday        = "today"
	PeriodAllTime      = "all_time"
)

// DateLayout is the calendar-date format used throughout the store.
const DateLayout = "2006-01-02"

// ExpenseRepository handles expense database operations.
type ExpenseRepository struct {
	db database.PGXDB

	// now is injectable for tests of calendar arithmetic.
	now func() time.Time
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db database.PGXDB) *ExpenseRepository {
	return &ExpenseRepository{db: db, now: time.Now}
}

// Create inserts one expense row. The category is normalized through the
// fixed synonym table and the date defaults to today when unset.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if !expense.Amount.IsPositive() {
		return fmt.Errorf("expense amount must be positive, got %s", expense.Amount)
	}

	expense.Category = category.Normalize(expense.Category)
	if expense.Date == "" {
		expense.Date = r.now().Format(DateLayout)
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO expenses (user_id, amount, category, description, date, location, payment_method, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, expense.UserID, expense.Amount, expense.Category, expense.Description,
		expense.Date, expense.Location, expense.PaymentMethod, expense.Tags,
	).Scan(&expense.ID, &expense.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// RecentByUser retrieves the most recent expenses for a user.
func (r *ExpenseRepository) RecentByUser(ctx context.Context, userID int64, limit int) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, amount, category, description, date::TEXT,
		       location, payment_method, tags, created_at
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// Search finds a user's expenses whose description or category contains term.
func (r *ExpenseRepository) Search(ctx context.Context, userID int64, term string, limit int) ([]models.Expense, error) {
	pattern := "%" + term + "%"
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, amount, category, description, date::TEXT,
		       location, payment_method, tags, created_at
		FROM expenses
		WHERE user_id = $1 AND (description ILIKE $2 OR category ILIKE $2)
		ORDER BY date DESC, id DESC
		LIMIT $3
	`, userID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// SummaryByPeriod computes total spending for a fixed time window relative
// to the current instant. Unknown periods fall back to all time.
func (r *ExpenseRepository) SummaryByPeriod(ctx context.Context, userID int64, period string) (decimal.Decimal, error) {
	var total decimal.Decimal
	var err error

	start, end, bounded := r.periodRange(period)
	if bounded {
		err = r.db.QueryRow(ctx, `
			SELECT COALESCE(SUM(amount), 0) FROM expenses
			WHERE user_id = $1 AND date >= $2 AND date < $3
		`, userID, start, end).Scan(&total)
	} else {
		err = r.db.QueryRow(ctx, `
			SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE user_id = $1
		`, userID).Scan(&total)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get summary: %w", err)
	}
	return total, nil
}

// CategoryTotal is one row of a per-category spending breakdown.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// CategoryBreakdown returns spending grouped by category for a period,
// largest first.
func (r *ExpenseRepository) CategoryBreakdown(ctx context.Context, userID int64, period string, limit int) ([]CategoryTotal, error) {
	start, end, bounded := r.periodRange(period)

	query := `
		SELECT category, SUM(amount) AS total
		FROM expenses
		WHERE user_id = $1
		GROUP BY category
		ORDER BY total DESC
		LIMIT $2`
	args := []any{userID, limit}
	if bounded {
		query = `
		SELECT category, SUM(amount) AS total
		FROM expenses
		WHERE user_id = $1 AND date >= $3 AND date < $4
		GROUP BY category
		ORDER BY total DESC
		LIMIT $2`
		args = append(args, start, end)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query breakdown: %w", err)
	}
	defer rows.Close()

	var breakdown []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown row: %w", err)
		}
		breakdown = append(breakdown, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating breakdown: %w", err)
	}
	return breakdown, nil
}

// DailyTotal is the spending total for one calendar day.
type DailyTotal struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// DailyTotals returns per-day spending for the last N days.
func (r *ExpenseRepository) DailyTotals(ctx context.Context, userID int64, days int) ([]DailyTotal, error) {
	start := r.now().AddDate(0, 0, -days).Format(DateLayout)
	rows, err := r.db.Query(ctx, `
		SELECT date::TEXT, SUM(amount) AS total
		FROM expenses
		WHERE user_id = $1 AND date >= $2
		GROUP BY date
		ORDER BY date
	`, userID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer rows.Close()

	var totals []DailyTotal
	for rows.Next() {
		var dt DailyTotal
		if err := rows.Scan(&dt.Date, &dt.Total); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		totals = append(totals, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily totals: %w", err)
	}
	return totals, nil
}

// SpendingTrends compares the current month against the previous one.
type SpendingTrends struct {
	CurrentMonth     decimal.Decimal `json:"current_month"`
	LastMonth        decimal.Decimal `json:"last_month"`
	ChangePercent    decimal.Decimal `json:"change_percent"`
	AverageDaily     decimal.Decimal `json:"average_daily"`
	MostExpensiveDay *DailyTotal     `json:"most_expensive_day,omitempty"`
}

// Trends computes month-over-month change, average daily spending over the
// last 30 days, and the most expensive day on record.
func (r *ExpenseRepository) Trends(ctx context.Context, userID int64) (*SpendingTrends, error) {
	trends := &SpendingTrends{}

	current, err := r.SummaryByPeriod(ctx, userID, PeriodCurrentMonth)
	if err != nil {
		return nil, err
	}
	last, err := r.SummaryByPeriod(ctx, userID, PeriodLastMonth)
	if err != nil {
		return nil, err
	}
	trends.CurrentMonth = current
	trends.LastMonth = last
	if last.IsPositive() {
		trends.ChangePercent = current.Sub(last).Div(last).Mul(decimal.NewFromInt(100)).Round(2)
	}

	start := r.now().AddDate(0, 0, -30).Format(DateLayout)
	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(daily_total), 0) FROM (
			SELECT SUM(amount) AS daily_total
			FROM expenses
			WHERE user_id = $1 AND date >= $2
			GROUP BY date
		) d
	`, userID, start).Scan(&trends.AverageDaily)
	if err != nil {
		return nil, fmt.Errorf("failed to compute average daily spending: %w", err)
	}

	var day DailyTotal
	err = r.db.QueryRow(ctx, `
		SELECT date::TEXT, SUM(amount) AS total
		FROM expenses
		WHERE user_id = $1
		GROUP BY date
		ORDER BY total DESC
		LIMIT 1
	`, userID).Scan(&day.Date, &day.Total)
	if err == nil {
		trends.MostExpensiveDay = &day
	}

	return trends, nil
}

// ScopedResult holds the column names and rows of a scoped raw query.
type ScopedResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ScopedQuery executes a caller-supplied read statement restricted to the
// given user's rows. The statement runs in its own read-only transaction
// with app.current_user_id bound via set_config; the forced
// row-level-security policies restrict expense data to the owner and hide
// credential tables outright, so the query text is never rewritten. Writes
// fail at execution and the transaction is always rolled back.
func (r *ExpenseRepository) ScopedQuery(ctx context.Context, userID int64, sql string) (*ScopedResult, error) {
	beginner, ok := r.db.(database.TxBeginner)
	if !ok {
		return nil, fmt.Errorf("scoped queries require a transactional database handle")
	}

	tx, err := beginner.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin scoped transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SET TRANSACTION READ ONLY`); err != nil {
		return nil, fmt.Errorf("failed to mark scoped transaction read-only: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`SELECT set_config('app.current_user_id', $1, true)`,
		strconv.FormatInt(userID, 10),
	); err != nil {
		return nil, fmt.Errorf("failed to bind scope: %w", err)
	}

	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	defer rows.Close()

	result := &ScopedResult{}
	for _, fd := range rows.FieldDescriptions() {
		result.Columns = append(result.Columns, fd.Name)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, &QueryError{Err: err}
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Err: err}
	}

	return result, nil
}

// normalizeValue maps pgx wire types onto the types the rest of the system
// speaks: NUMERIC becomes decimal.Decimal, DATE becomes its calendar string,
// everything else passes through.
func normalizeValue(v any) any {
	if ts, ok := v.(time.Time); ok {
		if ts.Hour() == 0 && ts.Minute() == 0 && ts.Second() == 0 && ts.Nanosecond() == 0 {
			return ts.Format(DateLayout)
		}
		return v
	}

	num, ok := v.(pgtype.Numeric)
	if !ok {
		return v
	}
	dv, err := num.Value()
	if err != nil {
		return v
	}
	s, ok := dv.(string)
	if !ok {
		return v
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return v
	}
	return d
}

// periodRange computes the half-open [start, end) date window for a period
// name. bounded is false for all-time (and unknown) periods.
func (r *ExpenseRepository) periodRange(period string) (start, end string, bounded bool) {
	now := r.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case PeriodCurrentMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first.Format(DateLayout), first.AddDate(0, 1, 0).Format(DateLayout), true
	case PeriodLastMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first.AddDate(0, -1, 0).Format(DateLayout), first.Format(DateLayout), true
	case PeriodCurrentWeek:
		return today.AddDate(0, 0, -7).Format(DateLayout), today.AddDate(0, 0, 1).Format(DateLayout), true
	case PeriodToday:
		return today.Format(DateLayout), today.AddDate(0, 0, 1).Format(DateLayout), true
	default:
		return "", "", false
	}
}

// scanExpenses is a helper to scan expense rows.
func scanExpenses(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
},
) ([]models.Expense, error) {
	var expenses []models.Expense
	for rows.Next() {
		var exp models.Expense
		if err := rows.Scan(
			&exp.ID, &exp.UserID, &exp.Amount, &exp.Category, &exp.Description,
			&exp.Date, &exp.Location, &exp.PaymentMethod, &exp.Tags, &exp.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}
