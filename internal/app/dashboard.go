package app

import (
	"context"
	"errors"

	"fitmate/internal/goal"
	"fitmate/internal/planner"
	"fitmate/internal/profile"
	"fitmate/internal/progress"

	"golang.org/x/sync/errgroup"
)

// Dashboard aggregates everything stored for a user. Sections the user has
// not created yet are nil.
type Dashboard struct {
	Profile     *profile.Profile           `json:"profile"`
	WorkoutPlan *planner.StoredWorkoutPlan `json:"workout_plan"`
	MealPlan    *planner.StoredMealPlan    `json:"meal_plan"`
	Progress    *progress.Progress         `json:"progress"`
	Goals       []goal.Goal                `json:"goals"`
}

// Dashboard loads all sections of email concurrently.
func (a *App) Dashboard(ctx context.Context, email string) (*Dashboard, error) {
	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := a.profiles.GetByEmail(gctx, email)
		if errors.Is(err, profile.ErrNotFound) {
			return nil
		}
		d.Profile = p
		return err
	})
	g.Go(func() error {
		w, err := a.plans.GetWorkout(gctx, email)
		if errors.Is(err, planner.ErrWorkoutPlanNotFound) {
			return nil
		}
		d.WorkoutPlan = w
		return err
	})
	g.Go(func() error {
		m, err := a.plans.GetMeal(gctx, email)
		if errors.Is(err, planner.ErrMealPlanNotFound) {
			return nil
		}
		d.MealPlan = m
		return err
	})
	g.Go(func() error {
		p, err := a.progress.Get(gctx, email)
		if errors.Is(err, progress.ErrNotFound) {
			return nil
		}
		d.Progress = p
		return err
	})
	g.Go(func() error {
		goals, err := a.goals.ListByUser(gctx, email)
		d.Goals = goals
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
