package planner

import (
	"context"
	"errors"
	"testing"

	"fitmate/internal/llm"
	"fitmate/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const malformed = `{"workout": [{"day": "Monday", "exercises": [`

func TestGenerateWorkoutPlan(t *testing.T) {
	ctx := context.Background()
	valid := mustJSON(t, sampleWorkoutPlan())

	t.Run("SucceedsOnThirdAttempt", func(t *testing.T) {
		stub := &scriptedGenerator{replies: []scriptedReply{{content: malformed}, {content: malformed}, {content: valid}}}

		out, err := NewGenerator(stub).GenerateWorkoutPlan(ctx, "strength", "Age: 30", 3)
		require.NoError(t, err)
		assert.Equal(t, Succeeded, out.State)
		assert.True(t, out.Succeeded())
		assert.Nil(t, out.Failure)
		assert.Equal(t, 3, out.Attempts)
		assert.Equal(t, 3, stub.calls)
		require.NotNil(t, out.Plan)
		assert.Equal(t, sampleWorkoutPlan(), *out.Plan)

		require.Len(t, out.Meta, 3)
		assert.Equal(t, shared.AttemptParseError, out.Meta[0].Status)
		assert.Equal(t, shared.AttemptParseError, out.Meta[1].Status)
		assert.Equal(t, shared.AttemptSucceeded, out.Meta[2].Status)
		assert.Equal(t, "WorkoutPlanner", out.Meta[2].AgentName)
		assert.Equal(t, 150, out.Meta[2].Usage.TotalTokens)
	})

	t.Run("ExhaustsAfterBudget", func(t *testing.T) {
		stub := &scriptedGenerator{replies: []scriptedReply{{content: malformed}}}

		out, err := NewGenerator(stub).GenerateWorkoutPlan(ctx, "strength", "Age: 30", 3)
		require.NoError(t, err)
		assert.Equal(t, ExhaustedRetries, out.State)
		assert.False(t, out.Succeeded())
		assert.Nil(t, out.Plan)
		assert.Equal(t, 3, stub.calls)
		require.NotNil(t, out.Failure)
		assert.Equal(t, "Failed to generate workout plan after 3 retries", out.Failure.Reason)
		assert.Equal(t, 3, out.Failure.AttemptsUsed)

		var perr *ParseError
		assert.True(t, errors.As(out.Failure.LastErr, &perr))
	})

	t.Run("ValidationFailuresConsumeBudget", func(t *testing.T) {
		stub := &scriptedGenerator{replies: []scriptedReply{{content: `{"workout": [{"day": "Monday", "exercises": [{"name": "Plank", "sets": "3", "reps": 1, "rest": 30}]}]}`}}}

		out, err := NewGenerator(stub).GenerateWorkoutPlan(ctx, "", "", 2)
		require.NoError(t, err)
		assert.Equal(t, ExhaustedRetries, out.State)
		assert.Equal(t, 2, stub.calls)
		assert.Equal(t, "Failed to generate workout plan after 2 retries", out.Failure.Reason)
		assert.Equal(t, 2, out.Failure.AttemptsUsed)

		var verr *ValidationError
		assert.True(t, errors.As(out.Failure.LastErr, &verr))
		for _, m := range out.Meta {
			assert.Equal(t, shared.AttemptValidationError, m.Status)
		}
	})

	t.Run("TransportErrorPropagatesImmediately", func(t *testing.T) {
		transportErr := &llm.TransportError{Provider: "stub", Err: errors.New("connection refused")}
		stub := &scriptedGenerator{replies: []scriptedReply{{err: transportErr}, {content: valid}}}

		out, err := NewGenerator(stub).GenerateWorkoutPlan(ctx, "strength", "Age: 30", 3)
		require.Error(t, err)
		assert.Equal(t, 1, stub.calls)
		assert.Equal(t, 1, out.Attempts)
		assert.Nil(t, out.Plan)
		assert.Nil(t, out.Failure)

		var terr *llm.TransportError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, "stub", terr.Provider)
		require.Len(t, out.Meta, 1)
		assert.Equal(t, shared.AttemptTransportError, out.Meta[0].Status)
	})

	t.Run("TransportErrorAfterRejectedAttempt", func(t *testing.T) {
		transportErr := &llm.TransportError{Provider: "stub", Err: errors.New("timeout")}
		stub := &scriptedGenerator{replies: []scriptedReply{{content: malformed}, {err: transportErr}}}

		out, err := NewGenerator(stub).GenerateWorkoutPlan(ctx, "strength", "Age: 30", 3)
		require.Error(t, err)
		assert.Equal(t, 2, stub.calls)
		assert.Equal(t, 2, out.Attempts)
	})

	t.Run("UnwrapsTopLevelArray", func(t *testing.T) {
		stub := &scriptedGenerator{replies: []scriptedReply{{content: "[" + valid + "]"}}}

		out, err := NewGenerator(stub).GenerateWorkoutPlan(ctx, "strength", "Age: 30", 3)
		require.NoError(t, err)
		assert.True(t, out.Succeeded())
		assert.Equal(t, 1, stub.calls)
		assert.Equal(t, sampleWorkoutPlan(), *out.Plan)
	})

	t.Run("EmptyArrayIsRejected", func(t *testing.T) {
		stub := &scriptedGenerator{replies: []scriptedReply{{content: "[]"}}}

		out, err := NewGenerator(stub).GenerateWorkoutPlan(ctx, "strength", "Age: 30", 1)
		require.NoError(t, err)
		assert.Equal(t, ExhaustedRetries, out.State)
		assert.Equal(t, "Failed to generate workout plan after 1 retries", out.Failure.Reason)
	})

	t.Run("EmptyReplyIsRetried", func(t *testing.T) {
		stub := &scriptedGenerator{replies: []scriptedReply{{content: ""}, {content: valid}}}

		out, err := NewGenerator(stub).GenerateWorkoutPlan(ctx, "strength", "Age: 30", 3)
		require.NoError(t, err)
		assert.True(t, out.Succeeded())
		assert.Equal(t, 2, stub.calls)
		require.Len(t, out.Meta, 2)
		assert.Equal(t, shared.AttemptParseError, out.Meta[0].Status)
	})

	t.Run("FencedReply", func(t *testing.T) {
		stub := &scriptedGenerator{replies: []scriptedReply{{content: "```json\n" + valid + "\n```"}}}

		out, err := NewGenerator(stub).GenerateWorkoutPlan(ctx, "strength", "Age: 30", 3)
		require.NoError(t, err)
		assert.True(t, out.Succeeded())
	})

	t.Run("RejectsZeroBudget", func(t *testing.T) {
		stub := &scriptedGenerator{replies: []scriptedReply{{content: valid}}}

		_, err := NewGenerator(stub).GenerateWorkoutPlan(ctx, "strength", "Age: 30", 0)
		assert.ErrorIs(t, err, ErrInvalidRetryBudget)
		assert.Zero(t, stub.calls)
	})

	t.Run("SamePromptEveryAttempt", func(t *testing.T) {
		stub := &scriptedGenerator{replies: []scriptedReply{{content: malformed}, {content: valid}}}

		_, err := NewGenerator(stub).GenerateWorkoutPlan(ctx, "mobility", "Age: 70", 3)
		require.NoError(t, err)
		require.Len(t, stub.prompts, 2)
		assert.Equal(t, stub.prompts[0], stub.prompts[1])
		assert.Contains(t, stub.prompts[0], "Goal: mobility")
	})
}

func TestGenerateDietPlan(t *testing.T) {
	ctx := context.Background()
	valid := mustJSON(t, sampleDietPlan())

	t.Run("Success", func(t *testing.T) {
		stub := &scriptedGenerator{replies: []scriptedReply{{content: valid}}}

		out, err := NewGenerator(stub).GenerateDietPlan(ctx, "lose fat", "Age: 40", "vegetarian", DefaultMaxRetries)
		require.NoError(t, err)
		assert.True(t, out.Succeeded())
		assert.Equal(t, sampleDietPlan(), *out.Plan)
		assert.Equal(t, "DietPlanner", out.Meta[0].AgentName)
		assert.Contains(t, stub.prompts[0], "Dietary preferences: vegetarian")
	})

	t.Run("TopLevelArrayIsNotUnwrapped", func(t *testing.T) {
		stub := &scriptedGenerator{replies: []scriptedReply{{content: "[" + valid + "]"}}}

		out, err := NewGenerator(stub).GenerateDietPlan(ctx, "", "", "", 3)
		require.NoError(t, err)
		assert.Equal(t, ExhaustedRetries, out.State)
		assert.Equal(t, 3, stub.calls)
		assert.Equal(t, "Failed to generate diet plan after 3 retries", out.Failure.Reason)
	})

	t.Run("RecoversFromWrongTypes", func(t *testing.T) {
		bad := `{"diet_plan": [{"day": "Monday", "meals": [{"type": "lunch", "name": "Soup", "calories": 200.5, "carbs": 1, "protein": 1, "fat": 1}]}]}`
		stub := &scriptedGenerator{replies: []scriptedReply{{content: bad}, {content: valid}}}

		out, err := NewGenerator(stub).GenerateDietPlan(ctx, "", "", "", 3)
		require.NoError(t, err)
		assert.True(t, out.Succeeded())
		assert.Equal(t, 2, out.Attempts)
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "attempting", Attempting.String())
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "exhausted_retries", ExhaustedRetries.String())
}
