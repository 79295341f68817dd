package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"expense-chat/internal/database"
	"expense-chat/internal/models"
)

// createTestUser inserts a user and returns it. Usernames must be unique per
// transaction; tests run against rolled-back transactions so collisions
// across tests are impossible.
func createTestUser(t *testing.T, db database.PGXDB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Salt:         "y",
		FullName:     "Test " + username,
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

// createTestUserModel builds an unsaved user with the given identity.
func createTestUserModel(username, email string) *models.User {
	return &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: "x",
		Salt:         "y",
	}
}

// testExpense builds an unsaved expense row.
func testExpense(userID int64, amount, cat, date string) *models.Expense {
	return &models.Expense{
		UserID:   userID,
		Amount:   decimal.RequireFromString(amount),
		Category: cat,
		Date:     date,
	}
}
