package progress

import (
	"context"
	"path/filepath"
	"testing"

	"fitmate/internal/database"
	"fitmate/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(ctx, database.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = user.NewRepository(db).Register(ctx, "ana@example.com", "pw")
	require.NoError(t, err)

	repo := NewRepository(db)

	t.Run("GetBeforeCreate", func(t *testing.T) {
		_, err := repo.Get(ctx, "ana@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateBeforeCreate", func(t *testing.T) {
		_, err := repo.Update(ctx, "ana@example.com", Input{})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CreateAndGet", func(t *testing.T) {
		_, err := repo.Create(ctx, "ana@example.com", Input{
			Weight:            []map[string]any{{"date": "2026-01-01", "value": 70.5}},
			WorkoutsCompleted: 3,
			Streak:            2,
			CaloriesBurned:    900,
			LastWorkoutDay:    "Tuesday",
		})
		require.NoError(t, err)

		got, err := repo.Get(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.Equal(t, 3, got.WorkoutsCompleted)
		assert.Equal(t, "Tuesday", got.LastWorkoutDay)
		require.Len(t, got.Weight, 1)
		assert.Equal(t, 70.5, got.Weight[0]["value"])
		assert.Empty(t, got.PersonalRecords)
	})

	t.Run("CreateTwice", func(t *testing.T) {
		_, err := repo.Create(ctx, "ana@example.com", Input{})
		assert.ErrorIs(t, err, ErrExists)
	})

	t.Run("Update", func(t *testing.T) {
		_, err := repo.Update(ctx, "ana@example.com", Input{
			WorkoutsCompleted: 4,
			Streak:            3,
			PersonalRecords:   []map[string]any{{"exercise": "squat", "weight": 100.0}},
		})
		require.NoError(t, err)

		got, err := repo.Get(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.Equal(t, 4, got.WorkoutsCompleted)
		assert.Empty(t, got.LastWorkoutDay)
		assert.Empty(t, got.Weight)
		require.Len(t, got.PersonalRecords, 1)
		assert.Equal(t, "squat", got.PersonalRecords[0]["exercise"])
	})
}
