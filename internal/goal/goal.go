package goal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitmate/internal/database"
)

const dateLayout = "2006-01-02"

var (
	ErrNotFound     = errors.New("goal not found")
	ErrInvalidRange = errors.New("end_date must not be before start_date")
)

// Goal is a measurable fitness target with a time window.
type Goal struct {
	ID          int64     `json:"id"`
	UserEmail   string    `json:"user_email"`
	GoalType    string    `json:"goal_type"`
	TargetValue int       `json:"target_value"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Input is the payload for a new goal. Dates use YYYY-MM-DD.
type Input struct {
	GoalType    string `json:"goal_type" binding:"required"`
	TargetValue int    `json:"target_value" binding:"required"`
	StartDate   string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// Describe renders the goal for inclusion in a prompt.
func (g *Goal) Describe() string {
	s := fmt.Sprintf("%s (target %d) starting %s", g.GoalType, g.TargetValue, g.StartDate)
	if g.EndDate != "" {
		s += " until " + g.EndDate
	}
	return s
}

// Repository persists goals.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a new goal for email.
func (r *Repository) Create(ctx context.Context, email string, in Input) (*Goal, error) {
	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %w", err)
	}
	var end sql.NullTime
	if in.EndDate != "" {
		t, err := time.Parse(dateLayout, in.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end_date: %w", err)
		}
		if t.Before(start) {
			return nil, ErrInvalidRange
		}
		end = sql.NullTime{Time: t, Valid: true}
	}

	g := &Goal{
		UserEmail:   email,
		GoalType:    in.GoalType,
		TargetValue: in.TargetValue,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatedAt:   time.Now().UTC(),
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO fitness_goals (user_email, goal_type, target_value, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		email, g.GoalType, g.TargetValue, start, end, g.CreatedAt,
	).Scan(&g.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert goal for %s: %w", email, err)
	}
	return g, nil
}

const selectColumns = "id, user_email, goal_type, target_value, start_date, end_date, created_at"

// Get returns goal id when it belongs to email.
func (r *Repository) Get(ctx context.Context, email string, id int64) (*Goal, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM fitness_goals WHERE id = ? AND user_email = ?", id, email)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal %d: %w", id, err)
	}
	return g, nil
}

// ListByUser returns the goals of email, newest first.
func (r *Repository) ListByUser(ctx context.Context, email string) ([]Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM fitness_goals WHERE user_email = ? ORDER BY created_at DESC, id DESC", email)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals for %s: %w", email, err)
	}
	defer rows.Close()

	goals := []Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// Latest returns the most recently created goal of email.
func (r *Repository) Latest(ctx context.Context, email string) (*Goal, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM fitness_goals WHERE user_email = ? ORDER BY created_at DESC, id DESC LIMIT 1", email)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest goal for %s: %w", email, err)
	}
	return g, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGoal(s scanner) (*Goal, error) {
	g := &Goal{}
	var start time.Time
	var end sql.NullTime
	if err := s.Scan(&g.ID, &g.UserEmail, &g.GoalType, &g.TargetValue, &start, &end, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.StartDate = start.Format(dateLayout)
	if end.Valid {
		g.EndDate = end.Time.Format(dateLayout)
	}
	return g, nil
}
