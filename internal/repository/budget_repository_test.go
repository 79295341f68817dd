package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"expense-chat/internal/database"
	"expense-chat/internal/models"
)

func TestBudgetRepository_UpsertAndStatus(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	budgets := NewBudgetRepository(tx)
	expenses := NewExpenseRepository(tx)
	user := createTestUser(t, tx, "budgeter")

	budget := &models.MonthlyBudget{
		UserID:   user.ID,
		Year:     2024,
		Month:    6,
		Category: "food",
		Amount:   decimal.RequireFromString("1000.00"),
	}
	require.NoError(t, budgets.Upsert(ctx, budget))
	require.NotZero(t, budget.ID)

	// Upserting the same scope replaces the amount.
	budget.Amount = decimal.RequireFromString("1200.00")
	require.NoError(t, budgets.Upsert(ctx, budget))

	require.NoError(t, expenses.Create(ctx, testExpense(user.ID, "400.00", "food", "2024-06-10")))
	require.NoError(t, expenses.Create(ctx, testExpense(user.ID, "100.00", "other", "2024-06-10")))

	statuses, err := budgets.StatusForMonth(ctx, user.ID, 2024, 6)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.Equal(t, "food", statuses[0].Category)
	require.True(t, statuses[0].Budget.Equal(decimal.RequireFromString("1200.00")))
	require.True(t, statuses[0].Spent.Equal(decimal.RequireFromString("400.00")))
	require.True(t, statuses[0].Remaining.Equal(decimal.RequireFromString("800.00")))
}

func TestBudgetRepository_OverallBudgetCountsAllCategories(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	budgets := NewBudgetRepository(tx)
	expenses := NewExpenseRepository(tx)
	user := createTestUser(t, tx, "overall")

	require.NoError(t, budgets.Upsert(ctx, &models.MonthlyBudget{
		UserID: user.ID, Year: 2024, Month: 6,
		Amount: decimal.RequireFromString("2000.00"),
	}))

	require.NoError(t, expenses.Create(ctx, testExpense(user.ID, "300.00", "food", "2024-06-01")))
	require.NoError(t, expenses.Create(ctx, testExpense(user.ID, "200.00", "shopping", "2024-06-02")))

	statuses, err := budgets.StatusForMonth(ctx, user.ID, 2024, 6)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.True(t, statuses[0].Spent.Equal(decimal.RequireFromString("500.00")))
}
