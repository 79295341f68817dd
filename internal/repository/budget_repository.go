package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"expense-chat/internal/database"
	"expense-chat/internal/models"
)

// BudgetRepository handles monthly budget database operations.
type BudgetRepository struct {
	db database.PGXDB
}

// NewBudgetRepository creates a new BudgetRepository.
func NewBudgetRepository(db database.PGXDB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// Upsert sets a budget for (user, year, month, category). An empty category
// is the overall budget for the month.
func (r *BudgetRepository) Upsert(ctx context.Context, budget *models.MonthlyBudget) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO monthly_budgets (user_id, year, month, category, budget_amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, year, month, category) DO UPDATE SET
			budget_amount = EXCLUDED.budget_amount
		RETURNING id
	`, budget.UserID, budget.Year, budget.Month, budget.Category, budget.Amount,
	).Scan(&budget.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert budget: %w", err)
	}
	return nil
}

// BudgetStatus pairs a budget with actual spending for the month.
type BudgetStatus struct {
	Category  string          `json:"category"`
	Budget    decimal.Decimal `json:"budget"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
}

// StatusForMonth lists each budget for the month alongside the amount
// actually spent in its scope.
func (r *BudgetRepository) StatusForMonth(ctx context.Context, userID int64, year, month int) ([]BudgetStatus, error) {
	rows, err := r.db.Query(ctx, `
		SELECT b.category, b.budget_amount,
		       COALESCE((
		           SELECT SUM(e.amount) FROM expenses e
		           WHERE e.user_id = b.user_id
		             AND EXTRACT(YEAR FROM e.date) = b.year
		             AND EXTRACT(MONTH FROM e.date) = b.month
		             AND (b.category = '' OR e.category = b.category)
		       ), 0) AS spent
		FROM monthly_budgets b
		WHERE b.user_id = $1 AND b.year = $2 AND b.month = $3
		ORDER BY b.category
	`, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query budget status: %w", err)
	}
	defer rows.Close()

	var statuses []BudgetStatus
	for rows.Next() {
		var st BudgetStatus
		if err := rows.Scan(&st.Category, &st.Budget, &st.Spent); err != nil {
			return nil, fmt.Errorf("failed to scan budget status: %w", err)
		}
		st.Remaining = st.Budget.Sub(st.Spent)
		statuses = append(statuses, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget status: %w", err)
	}
	return statuses, nil
}
