package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fitmate/internal/llm"
	"fitmate/internal/shared"

	"github.com/rs/zerolog"
)

// DefaultMaxRetries is the attempt budget used when callers have no preference.
const DefaultMaxRetries = 3

// ErrInvalidRetryBudget is returned when fewer than one attempt is allowed.
var ErrInvalidRetryBudget = errors.New("planner: max retries must be at least 1")

// State is the position of a generation run in its retry state machine.
type State int

const (
	Attempting State = iota
	Succeeded
	ExhaustedRetries
)

func (s State) String() string {
	switch s {
	case Attempting:
		return "attempting"
	case Succeeded:
		return "succeeded"
	case ExhaustedRetries:
		return "exhausted_retries"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Failure describes a run that used its whole budget without a valid plan.
// LastErr is the rejection of the final attempt, a *ParseError or a
// *ValidationError. It is meant for logs, not for end users.
type Failure struct {
	Reason       string
	AttemptsUsed int
	LastErr      error
}

// Outcome is the result of a generation run. Exactly one of Plan and Failure
// is set once State is Succeeded or ExhaustedRetries.
type Outcome[P any] struct {
	State    State
	Plan     *P
	Failure  *Failure
	Attempts int
	Meta     []shared.AgentMeta
}

// Succeeded reports whether the run produced a plan.
func (o Outcome[P]) Succeeded() bool {
	return o.State == Succeeded
}

// Generator drives prompt, model call, parse and validation until a plan
// passes or the retry budget runs out. Transport failures are returned
// immediately and do not consume the budget.
type Generator struct {
	textGen llm.TextGenerator
}

// NewGenerator creates a Generator backed by textGen.
func NewGenerator(textGen llm.TextGenerator) *Generator {
	return &Generator{textGen: textGen}
}

type planDef struct {
	kind   PlanKind
	agent  string
	schema *Schema
	// unwrapList accepts [plan] in place of plan.
	unwrapList bool
}

var (
	workoutDef = planDef{kind: KindWorkout, agent: "WorkoutPlanner", schema: WorkoutSchema, unwrapList: true}
	dietDef    = planDef{kind: KindDiet, agent: "DietPlanner", schema: DietSchema}
)

// GenerateWorkoutPlan asks the model for a workout plan.
// A non-nil error is either ErrInvalidRetryBudget or wraps an *llm.TransportError.
func (g *Generator) GenerateWorkoutPlan(ctx context.Context, goal, biometrics string, maxRetries int) (Outcome[WorkoutPlan], error) {
	prompt := BuildWorkoutPrompt(GenerationRequest{Goal: goal, Biometrics: biometrics})
	return generate[WorkoutPlan](ctx, g.textGen, workoutDef, prompt, maxRetries)
}

// GenerateDietPlan asks the model for a diet plan.
// A non-nil error is either ErrInvalidRetryBudget or wraps an *llm.TransportError.
func (g *Generator) GenerateDietPlan(ctx context.Context, goal, biometrics, dietaryPreferences string, maxRetries int) (Outcome[DietPlan], error) {
	prompt := BuildDietPrompt(GenerationRequest{Goal: goal, Biometrics: biometrics, DietaryPreferences: dietaryPreferences})
	return generate[DietPlan](ctx, g.textGen, dietDef, prompt, maxRetries)
}

func generate[P any](ctx context.Context, textGen llm.TextGenerator, def planDef, prompt string, maxRetries int) (Outcome[P], error) {
	out := Outcome[P]{State: Attempting}
	if maxRetries < 1 {
		return out, ErrInvalidRetryBudget
	}

	logger := zerolog.Ctx(ctx).With().Str("plan_kind", string(def.kind)).Logger()
	remaining := maxRetries
	var lastErr error

	for out.State == Attempting {
		out.Attempts++
		start := time.Now()

		resp, err := textGen.GenerateContent(ctx, prompt)
		meta := shared.AgentMeta{AgentName: def.agent, Usage: resp.Usage, Latency: time.Since(start)}
		if err != nil {
			meta.Status = shared.AttemptTransportError
			out.Meta = append(out.Meta, meta)
			logger.Error().Err(err).Int("attempt", out.Attempts).Msg("model call failed")
			return out, fmt.Errorf("generate %s plan: %w", def.kind, err)
		}

		plan, err := decodePlan[P](resp.Content, def)
		switch {
		case err == nil:
			meta.Status = shared.AttemptSucceeded
			out.Meta = append(out.Meta, meta)
			out.State = Succeeded
			out.Plan = plan
			logger.Info().Int("attempt", out.Attempts).Dur("latency", meta.Latency).Msg("plan generated")
			return out, nil
		case isParseError(err):
			meta.Status = shared.AttemptParseError
		default:
			meta.Status = shared.AttemptValidationError
		}
		out.Meta = append(out.Meta, meta)

		lastErr = err
		remaining--
		logger.Warn().Err(err).
			Int("attempt", out.Attempts).
			Int("attempts_remaining", remaining).
			Msg("model response rejected")
		if remaining == 0 {
			out.State = ExhaustedRetries
		}
	}

	out.Failure = &Failure{
		Reason:       fmt.Sprintf("Failed to generate %s plan after %d retries", def.kind, maxRetries),
		AttemptsUsed: maxRetries,
		LastErr:      lastErr,
	}
	return out, nil
}

// decodePlan parses and validates one model reply. The returned error is a
// *ParseError or a *ValidationError.
func decodePlan[P any](content string, def planDef) (*P, error) {
	value, err := ParseResponse(content)
	if err != nil {
		return nil, err
	}

	if list, ok := value.([]any); ok && def.unwrapList && len(list) > 0 {
		value = list[0]
	}

	if err := Validate(value, def.schema); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, &ValidationError{Message: "re-encode validated plan: " + err.Error()}
	}
	var plan P
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, &ValidationError{Message: "decode validated plan: " + err.Error()}
	}
	return &plan, nil
}

func isParseError(err error) bool {
	var perr *ParseError
	return errors.As(err, &perr)
}
