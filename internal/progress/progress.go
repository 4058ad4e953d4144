package progress

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
	ErrExists   = errors.New("progress already exists")
	ErrNotFound = errors.New("no progress found")
)

// Progress tracks a user's training history.
type Progress struct {
	ID                int64            `json:"id"`
	UserEmail         string           `json:"user_email"`
	Weight            []map[string]any `json:"weight"`
	WorkoutsCompleted int              `json:"workouts_completed"`
	Streak            int              `json:"streak"`
	CaloriesBurned    int              `json:"calories_burned"`
	LastWorkoutDay    string           `json:"last_workout_day,omitempty"`
	PersonalRecords   []map[string]any `json:"personal_records"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Input is the client-supplied progress snapshot.
type Input struct {
	Weight            []map[string]any `json:"weight"`
	WorkoutsCompleted int              `json:"workouts_completed" binding:"gte=0"`
	Streak            int              `json:"streak" binding:"gte=0"`
	CaloriesBurned    int              `json:"calories_burned" binding:"gte=0"`
	LastWorkoutDay    string           `json:"last_workout_day"`
	PersonalRecords   []map[string]any `json:"personal_records"`
}

// Repository persists one progress record per user.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Create stores the first progress record of email.
func (r *Repository) Create(ctx context.Context, email string, in Input) (*Progress, error) {
	weight, records, err := encodeLists(in)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	var id int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO progress (user_email, weight, workouts_completed, streak, calories_burned, last_workout_day, personal_records, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		email, weight, in.WorkoutsCompleted, in.Streak, in.CaloriesBurned,
		nullString(in.LastWorkoutDay), records, now,
	).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("failed to insert progress for %s: %w", email, err)
	}
	return fromInput(id, email, in, now), nil
}

// Update replaces the progress record of email.
func (r *Repository) Update(ctx context.Context, email string, in Input) (*Progress, error) {
	weight, records, err := encodeLists(in)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	var id int64
	err = r.db.QueryRowContext(ctx, `
		UPDATE progress
		SET weight = ?, workouts_completed = ?, streak = ?, calories_burned = ?, last_workout_day = ?, personal_records = ?, updated_at = ?
		WHERE user_email = ?
		RETURNING id`,
		weight, in.WorkoutsCompleted, in.Streak, in.CaloriesBurned,
		nullString(in.LastWorkoutDay), records, now, email,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update progress for %s: %w", email, err)
	}
	return fromInput(id, email, in, now), nil
}

// Get returns the progress record of email.
func (r *Repository) Get(ctx context.Context, email string) (*Progress, error) {
	p := &Progress{}
	var weight, records []byte
	var lastDay sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_email, weight, workouts_completed, streak, calories_burned, last_workout_day, personal_records, updated_at
		FROM progress WHERE user_email = ?`, email,
	).Scan(&p.ID, &p.UserEmail, &weight, &p.WorkoutsCompleted, &p.Streak, &p.CaloriesBurned, &lastDay, &records, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress for %s: %w", email, err)
	}
	if err := json.Unmarshal(weight, &p.Weight); err != nil {
		return nil, fmt.Errorf("failed to decode weight history: %w", err)
	}
	if err := json.Unmarshal(records, &p.PersonalRecords); err != nil {
		return nil, fmt.Errorf("failed to decode personal records: %w", err)
	}
	p.LastWorkoutDay = lastDay.String
	return p, nil
}

func encodeLists(in Input) (string, string, error) {
	if in.Weight == nil {
		in.Weight = []map[string]any{}
	}
	if in.PersonalRecords == nil {
		in.PersonalRecords = []map[string]any{}
	}
	weight, err := json.Marshal(in.Weight)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode weight history: %w", err)
	}
	records, err := json.Marshal(in.PersonalRecords)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode personal records: %w", err)
	}
	return string(weight), string(records), nil
}

func fromInput(id int64, email string, in Input, updated time.Time) *Progress {
	p := &Progress{
		ID:                id,
		UserEmail:         email,
		Weight:            in.Weight,
		WorkoutsCompleted: in.WorkoutsCompleted,
		Streak:            in.Streak,
		CaloriesBurned:    in.CaloriesBurned,
		LastWorkoutDay:    in.LastWorkoutDay,
		PersonalRecords:   in.PersonalRecords,
		UpdatedAt:         updated,
	}
	if p.Weight == nil {
		p.Weight = []map[string]any{}
	}
	if p.PersonalRecords == nil {
		p.PersonalRecords = []map[string]any{}
	}
	return p
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
