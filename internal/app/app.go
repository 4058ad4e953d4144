package app

import (
	"context"
	"fmt"

	"fitmate/internal/database"
	"fitmate/internal/goal"
	"fitmate/internal/metrics"
	"fitmate/internal/planner"
	"fitmate/internal/profile"
	"fitmate/internal/progress"
	"fitmate/internal/shared"
	"fitmate/internal/user"

	"github.com/rs/zerolog"
)

// App holds the application's dependencies.
type App struct {
	db           *database.DB
	users        *user.Repository
	profiles     *profile.Repository
	goals        *goal.Repository
	progress     *progress.Repository
	plans        *planner.PlanRepository
	metricsStore *metrics.Store
	generator    *planner.Generator
	maxRetries   int
}

// NewApp creates and initializes a new App instance.
func NewApp(db *database.DB, generator *planner.Generator, maxRetries int) *App {
	if maxRetries < 1 {
		maxRetries = planner.DefaultMaxRetries
	}
	return &App{
		db:           db,
		users:        user.NewRepository(db),
		profiles:     profile.NewRepository(db),
		goals:        goal.NewRepository(db),
		progress:     progress.NewRepository(db),
		plans:        planner.NewPlanRepository(db),
		metricsStore: metrics.NewStore(db),
		generator:    generator,
		maxRetries:   maxRetries,
	}
}

// Register creates an account.
func (a *App) Register(ctx context.Context, email, password string) (*user.User, error) {
	return a.users.Register(ctx, email, password)
}

// Login checks credentials.
func (a *App) Login(ctx context.Context, email, password string) (*user.User, error) {
	return a.users.Authenticate(ctx, email, password)
}

// User returns the account registered under email.
func (a *App) User(ctx context.Context, email string) (*user.User, error) {
	return a.users.GetByEmail(ctx, email)
}

func (a *App) CreateProfile(ctx context.Context, email string, in profile.Input) (*profile.Profile, error) {
	return a.profiles.Create(ctx, email, in)
}

func (a *App) GetProfile(ctx context.Context, email string) (*profile.Profile, error) {
	return a.profiles.GetByEmail(ctx, email)
}

func (a *App) UpdateProfile(ctx context.Context, email string, in profile.Input) (*profile.Profile, error) {
	return a.profiles.Update(ctx, email, in)
}

func (a *App) CreateGoal(ctx context.Context, email string, in goal.Input) (*goal.Goal, error) {
	return a.goals.Create(ctx, email, in)
}

func (a *App) GetGoal(ctx context.Context, email string, id int64) (*goal.Goal, error) {
	return a.goals.Get(ctx, email, id)
}

func (a *App) ListGoals(ctx context.Context, email string) ([]goal.Goal, error) {
	return a.goals.ListByUser(ctx, email)
}

func (a *App) CreateProgress(ctx context.Context, email string, in progress.Input) (*progress.Progress, error) {
	return a.progress.Create(ctx, email, in)
}

func (a *App) GetProgress(ctx context.Context, email string) (*progress.Progress, error) {
	return a.progress.Get(ctx, email)
}

func (a *App) UpdateProgress(ctx context.Context, email string, in progress.Input) (*progress.Progress, error) {
	return a.progress.Update(ctx, email, in)
}

// Ping checks the database connection.
func (a *App) Ping(ctx context.Context) error {
	return a.db.Ping(ctx)
}

// Usage returns daily model usage for the last days.
func (a *App) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	return a.metricsStore.GetDailyUsage(ctx, days)
}

// CleanupMetrics drops usage records older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	return a.metricsStore.Cleanup(ctx, days)
}

// recordMetas stores per-attempt metrics. Failures are logged, never returned.
func (a *App) recordMetas(ctx context.Context, metas []shared.AgentMeta) {
	if err := a.metricsStore.RecordAll(ctx, metas); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to record generation metrics")
	}
}

// GenerationFailedError is returned when the model never produced a valid plan.
// Its message is safe to show to users.
type GenerationFailedError struct {
	Kind     planner.PlanKind
	Reason   string
	Attempts int
	Cause    error
}

func (e *GenerationFailedError) Error() string {
	return e.Reason
}

func (e *GenerationFailedError) Unwrap() error {
	return e.Cause
}

func failed(kind planner.PlanKind, f *planner.Failure) error {
	return &GenerationFailedError{Kind: kind, Reason: f.Reason, Attempts: f.AttemptsUsed, Cause: f.LastErr}
}

func wrapTransport(kind planner.PlanKind, err error) error {
	return fmt.Errorf("%s plan generation unavailable: %w", kind, err)
}
