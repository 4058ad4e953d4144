package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fitmate/internal/goal"
	"fitmate/internal/planner"
	"fitmate/internal/profile"

	"github.com/rs/zerolog"
)

// UpsertWorkoutPlan generates a workout plan from the user's profile and
// prefs and stores it, replacing any previous plan. created reports whether
// this is the user's first workout plan.
func (a *App) UpsertWorkoutPlan(ctx context.Context, email string, prefs planner.WorkoutPreferences) (*planner.StoredWorkoutPlan, bool, error) {
	if prefs.EquipmentAccess == nil {
		prefs.EquipmentAccess = []string{}
	}
	if err := checkPreferences(prefs, planner.WorkoutPreferencesSchema); err != nil {
		return nil, false, err
	}

	p, err := a.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}

	out, err := a.generator.GenerateWorkoutPlan(ctx, a.workoutGoal(ctx, email, prefs), p.Biometrics(), a.maxRetries)
	a.recordMetas(ctx, out.Meta)
	if err != nil {
		return nil, false, wrapTransport(planner.KindWorkout, err)
	}
	if !out.Succeeded() {
		zerolog.Ctx(ctx).Error().Err(out.Failure.LastErr).Int("attempts", out.Failure.AttemptsUsed).Msg(out.Failure.Reason)
		return nil, false, failed(planner.KindWorkout, out.Failure)
	}

	return a.plans.UpsertWorkout(ctx, email, prefs, *out.Plan)
}

// RegenerateWorkoutPlan builds a fresh plan from the preferences stored with the current one.
func (a *App) RegenerateWorkoutPlan(ctx context.Context, email string) (*planner.StoredWorkoutPlan, error) {
	current, err := a.plans.GetWorkout(ctx, email)
	if err != nil {
		return nil, err
	}
	stored, _, err := a.UpsertWorkoutPlan(ctx, email, current.Preferences)
	return stored, err
}

// GetWorkoutPlan returns the stored workout plan of email.
func (a *App) GetWorkoutPlan(ctx context.Context, email string) (*planner.StoredWorkoutPlan, error) {
	return a.plans.GetWorkout(ctx, email)
}

// UpsertMealPlan generates a diet plan from the user's profile and prefs and
// stores it, replacing any previous plan.
func (a *App) UpsertMealPlan(ctx context.Context, email string, prefs planner.MealPreferences) (*planner.StoredMealPlan, bool, error) {
	if prefs.Allergies == nil {
		prefs.Allergies = []string{}
	}
	if err := checkPreferences(prefs, planner.MealPreferencesSchema); err != nil {
		return nil, false, err
	}

	p, err := a.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}

	out, err := a.generator.GenerateDietPlan(ctx, a.latestGoal(ctx, email), p.Biometrics(), dietaryPreferences(p, prefs), a.maxRetries)
	a.recordMetas(ctx, out.Meta)
	if err != nil {
		return nil, false, wrapTransport(planner.KindDiet, err)
	}
	if !out.Succeeded() {
		zerolog.Ctx(ctx).Error().Err(out.Failure.LastErr).Int("attempts", out.Failure.AttemptsUsed).Msg(out.Failure.Reason)
		return nil, false, failed(planner.KindDiet, out.Failure)
	}

	return a.plans.UpsertMeal(ctx, email, prefs, *out.Plan)
}

// GetMealPlan returns the stored meal plan of email.
func (a *App) GetMealPlan(ctx context.Context, email string) (*planner.StoredMealPlan, error) {
	return a.plans.GetMeal(ctx, email)
}

func (a *App) workoutGoal(ctx context.Context, email string, prefs planner.WorkoutPreferences) string {
	var sb strings.Builder
	sb.WriteString(prefs.WorkoutType + " training")
	if len(prefs.EquipmentAccess) > 0 {
		sb.WriteString(" with access to " + strings.Join(prefs.EquipmentAccess, ", "))
	} else {
		sb.WriteString(" without equipment")
	}
	if g := a.latestGoal(ctx, email); g != "" {
		sb.WriteString("; current goal: " + g)
	}
	return sb.String()
}

// latestGoal describes the user's newest goal, or returns "" when there is none.
func (a *App) latestGoal(ctx context.Context, email string) string {
	g, err := a.goals.Latest(ctx, email)
	if err != nil {
		if !errors.Is(err, goal.ErrNotFound) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to load latest goal")
		}
		return ""
	}
	return g.Describe()
}

func dietaryPreferences(p *profile.Profile, prefs planner.MealPreferences) string {
	var parts []string
	if p.DietaryPreference != "" {
		parts = append(parts, p.DietaryPreference)
	}
	parts = append(parts, prefs.Calories+" calorie intake")
	if len(prefs.Allergies) > 0 {
		parts = append(parts, "allergic to "+strings.Join(prefs.Allergies, ", "))
	} else {
		parts = append(parts, "no known allergies")
	}
	return strings.Join(parts, "; ")
}

// checkPreferences runs v through the same validator that guards request bodies.
func checkPreferences(v any, schema *planner.Schema) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	return planner.DecodeValidated(raw, schema, &json.RawMessage{})
}
