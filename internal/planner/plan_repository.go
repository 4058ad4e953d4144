package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fitmate/internal/database"
)

var (
	ErrWorkoutPlanNotFound = errors.New("no workout plan found")
	ErrMealPlanNotFound    = errors.New("no meal plan found")
)

// StoredWorkoutPlan is the persisted workout plan of a user with the preferences it was built from.
type StoredWorkoutPlan struct {
	ID          int64              `json:"id"`
	UserEmail   string             `json:"user_email"`
	Preferences WorkoutPreferences `json:"preferences"`
	Plan        WorkoutPlan        `json:"generated_plan"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// StoredMealPlan is the persisted meal plan of a user with the preferences it was built from.
type StoredMealPlan struct {
	ID          int64           `json:"id"`
	UserEmail   string          `json:"user_email"`
	Preferences MealPreferences `json:"preferences"`
	Plan        DietPlan        `json:"generated_plan"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PlanRepository is a database-backed repository for generated plans. Each
// user has at most one plan of each kind; saving again replaces it.
type PlanRepository struct {
	db *database.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *database.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// UpsertWorkout stores plan for email, reporting whether a new row was created.
func (r *PlanRepository) UpsertWorkout(ctx context.Context, email string, prefs WorkoutPreferences, plan WorkoutPlan) (*StoredWorkoutPlan, bool, error) {
	if prefs.EquipmentAccess == nil {
		prefs.EquipmentAccess = []string{}
	}
	equipment, err := json.Marshal(prefs.EquipmentAccess)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode equipment access: %w", err)
	}
	planData, err := json.Marshal(plan)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode workout plan: %w", err)
	}

	created, err := r.missing(ctx, "workout_plans", email)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workout_plans (user_email, workout_type, equipment_access, generated_plan, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_email) DO UPDATE SET
			workout_type = excluded.workout_type,
			equipment_access = excluded.equipment_access,
			generated_plan = excluded.generated_plan,
			updated_at = excluded.updated_at`,
		email, prefs.WorkoutType, string(equipment), string(planData), now, now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save workout plan for %s: %w", email, err)
	}

	stored, err := r.GetWorkout(ctx, email)
	return stored, created, err
}

// GetWorkout returns the workout plan of email.
func (r *PlanRepository) GetWorkout(ctx context.Context, email string) (*StoredWorkoutPlan, error) {
	s := &StoredWorkoutPlan{}
	var equipment, planData []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_email, workout_type, equipment_access, generated_plan, created_at, updated_at
		FROM workout_plans WHERE user_email = ?`, email,
	).Scan(&s.ID, &s.UserEmail, &s.Preferences.WorkoutType, &equipment, &planData, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWorkoutPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workout plan for %s: %w", email, err)
	}
	if err := json.Unmarshal(equipment, &s.Preferences.EquipmentAccess); err != nil {
		return nil, fmt.Errorf("failed to decode equipment access: %w", err)
	}
	if err := json.Unmarshal(planData, &s.Plan); err != nil {
		return nil, fmt.Errorf("failed to decode workout plan: %w", err)
	}
	return s, nil
}

// UpsertMeal stores plan for email, reporting whether a new row was created.
func (r *PlanRepository) UpsertMeal(ctx context.Context, email string, prefs MealPreferences, plan DietPlan) (*StoredMealPlan, bool, error) {
	if prefs.Allergies == nil {
		prefs.Allergies = []string{}
	}
	allergies, err := json.Marshal(prefs.Allergies)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode allergies: %w", err)
	}
	planData, err := json.Marshal(plan)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode diet plan: %w", err)
	}

	created, err := r.missing(ctx, "meal_plans", email)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO meal_plans (user_email, calories, allergies, generated_plan, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_email) DO UPDATE SET
			calories = excluded.calories,
			allergies = excluded.allergies,
			generated_plan = excluded.generated_plan,
			updated_at = excluded.updated_at`,
		email, prefs.Calories, string(allergies), string(planData), now, now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save meal plan for %s: %w", email, err)
	}

	stored, err := r.GetMeal(ctx, email)
	return stored, created, err
}

// GetMeal returns the meal plan of email.
func (r *PlanRepository) GetMeal(ctx context.Context, email string) (*StoredMealPlan, error) {
	s := &StoredMealPlan{}
	var allergies, planData []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_email, calories, allergies, generated_plan, created_at, updated_at
		FROM meal_plans WHERE user_email = ?`, email,
	).Scan(&s.ID, &s.UserEmail, &s.Preferences.Calories, &allergies, &planData, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMealPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan for %s: %w", email, err)
	}
	if err := json.Unmarshal(allergies, &s.Preferences.Allergies); err != nil {
		return nil, fmt.Errorf("failed to decode allergies: %w", err)
	}
	if err := json.Unmarshal(planData, &s.Plan); err != nil {
		return nil, fmt.Errorf("failed to decode diet plan: %w", err)
	}
	return s, nil
}

// missing reports whether table has no row for email. table is never user input.
func (r *PlanRepository) missing(ctx context.Context, table, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE user_email = ?", email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check %s for %s: %w", table, email, err)
	}
	return n == 0, nil
}
