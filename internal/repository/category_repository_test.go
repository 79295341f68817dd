package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"expense-chat/internal/category"
	"expense-chat/internal/database"
)

func TestCategoryRepository_SeededVocabulary(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	repo := NewCategoryRepository(tx)

	cats, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, cats, len(category.Canonical))

	names := make(map[string]bool)
	for _, c := range cats {
		names[c.Name] = true
		require.NotEmpty(t, c.Color)
		require.NotEmpty(t, c.Icon)
	}
	for _, want := range category.Canonical {
		require.True(t, names[want], "vocabulary should contain %s", want)
	}
}

func TestCategoryRepository_GetByNameCaseInsensitive(t *testing.T) {
	tx := database.TestTx(t)
	repo := NewCategoryRepository(tx)

	cat, err := repo.GetByName(context.Background(), "FOOD")
	require.NoError(t, err)
	require.Equal(t, "food", cat.Name)
}
