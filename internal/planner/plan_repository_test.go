package planner

import (
	"context"
	"path/filepath"
	"testing"

	"fitmate/internal/database"
	"fitmate/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlanRepository(t *testing.T) *PlanRepository {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewDB(ctx, database.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = user.NewRepository(db).Register(ctx, "ana@example.com", "pw")
	require.NoError(t, err)
	return NewPlanRepository(db)
}

func TestPlanRepositoryWorkout(t *testing.T) {
	ctx := context.Background()
	repo := newTestPlanRepository(t)

	_, err := repo.GetWorkout(ctx, "ana@example.com")
	assert.ErrorIs(t, err, ErrWorkoutPlanNotFound)

	prefs := WorkoutPreferences{WorkoutType: "strength", EquipmentAccess: []string{"dumbbells"}}
	stored, created, err := repo.UpsertWorkout(ctx, "ana@example.com", prefs, sampleWorkoutPlan())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, prefs, stored.Preferences)
	assert.Equal(t, sampleWorkoutPlan(), stored.Plan)

	updatedPlan := sampleWorkoutPlan()
	updatedPlan.Days[0].Exercises[0].Reps = 20
	stored2, created, err := repo.UpsertWorkout(ctx, "ana@example.com", WorkoutPreferences{WorkoutType: "cardio"}, updatedPlan)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, stored.ID, stored2.ID)
	assert.Equal(t, "cardio", stored2.Preferences.WorkoutType)
	assert.Empty(t, stored2.Preferences.EquipmentAccess)
	assert.Equal(t, 20, stored2.Plan.Days[0].Exercises[0].Reps)
}

func TestPlanRepositoryMeal(t *testing.T) {
	ctx := context.Background()
	repo := newTestPlanRepository(t)

	_, err := repo.GetMeal(ctx, "ana@example.com")
	assert.ErrorIs(t, err, ErrMealPlanNotFound)

	prefs := MealPreferences{Calories: CaloriesLow, Allergies: []string{"peanuts"}}
	stored, created, err := repo.UpsertMeal(ctx, "ana@example.com", prefs, sampleDietPlan())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, prefs, stored.Preferences)

	stored2, created, err := repo.UpsertMeal(ctx, "ana@example.com", MealPreferences{Calories: CaloriesHigh}, sampleDietPlan())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, stored.ID, stored2.ID)
	assert.Equal(t, CaloriesHigh, stored2.Preferences.Calories)
	assert.Equal(t, sampleDietPlan(), stored2.Plan)
}
