package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitmate/internal/database"
)

var (
	ErrExists   = errors.New("profile already exists")
	ErrNotFound = errors.New("no profile found")
)

// Profile holds the biometric data plans are tailored to.
type Profile struct {
	ID                int64     `json:"id"`
	UserEmail         string    `json:"user_email"`
	Name              string    `json:"name"`
	Age               int       `json:"age"`
	Sex               string    `json:"sex"`
	Height            float64   `json:"height"`
	Weight            float64   `json:"weight"`
	FitnessLevel      string    `json:"fitness_level"`
	DietaryPreference string    `json:"dietary_preference,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Input is the user-editable part of a profile.
type Input struct {
	Name              string  `json:"name" binding:"required"`
	Age               int     `json:"age" binding:"required,gt=0,lt=130"`
	Sex               string  `json:"sex" binding:"required"`
	Height            float64 `json:"height" binding:"required,gt=0"`
	Weight            float64 `json:"weight" binding:"required,gt=0"`
	FitnessLevel      string  `json:"fitness_level" binding:"required"`
	DietaryPreference string  `json:"dietary_preference"`
}

// Biometrics renders the profile as the free-text description used in prompts.
func (p *Profile) Biometrics() string {
	parts := []string{
		"Name: " + p.Name,
		fmt.Sprintf("Age: %d", p.Age),
		"Sex: " + p.Sex,
		fmt.Sprintf("Height: %g cm", p.Height),
		fmt.Sprintf("Weight: %g kg", p.Weight),
		"Fitness level: " + p.FitnessLevel,
	}
	return strings.Join(parts, "; ")
}

// Repository persists profiles, one per user.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = "id, user_email, name, age, sex, height, weight, fitness_level, dietary_preference, created_at, updated_at"

// Create stores the profile of email. A second profile for the same user fails with ErrExists.
func (r *Repository) Create(ctx context.Context, email string, in Input) (*Profile, error) {
	now := time.Now().UTC()
	p := &Profile{
		UserEmail:         email,
		Name:              in.Name,
		Age:               in.Age,
		Sex:               in.Sex,
		Height:            in.Height,
		Weight:            in.Weight,
		FitnessLevel:      in.FitnessLevel,
		DietaryPreference: in.DietaryPreference,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO profiles (user_email, name, age, sex, height, weight, fitness_level, dietary_preference, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		p.UserEmail, p.Name, p.Age, p.Sex, p.Height, p.Weight, p.FitnessLevel,
		nullString(p.DietaryPreference), p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("failed to insert profile for %s: %w", email, err)
	}
	return p, nil
}

// Update replaces the editable fields of an existing profile.
func (r *Repository) Update(ctx context.Context, email string, in Input) (*Profile, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET name = ?, age = ?, sex = ?, height = ?, weight = ?, fitness_level = ?, dietary_preference = ?, updated_at = ?
		WHERE user_email = ?`,
		in.Name, in.Age, in.Sex, in.Height, in.Weight, in.FitnessLevel,
		nullString(in.DietaryPreference), time.Now().UTC(), email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile for %s: %w", email, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByEmail(ctx, email)
}

// GetByEmail returns the profile of email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	p := &Profile{}
	var pref sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM profiles WHERE user_email = ?", email,
	).Scan(&p.ID, &p.UserEmail, &p.Name, &p.Age, &p.Sex, &p.Height, &p.Weight,
		&p.FitnessLevel, &pref, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile for %s: %w", email, err)
	}
	p.DietaryPreference = pref.String
	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
