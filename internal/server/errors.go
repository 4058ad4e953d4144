package server

import (
	"context"
	"errors"
	"net/http"

	"fitmate/internal/app"
	"fitmate/internal/goal"
	"fitmate/internal/llm"
	"fitmate/internal/planner"
	"fitmate/internal/profile"
	"fitmate/internal/progress"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var notFound = map[error]string{
	profile.ErrNotFound:            "No profile found",
	planner.ErrWorkoutPlanNotFound: "No workout plan found",
	planner.ErrMealPlanNotFound:    "No meal plan found",
	progress.ErrNotFound:           "No progress found",
	goal.ErrNotFound:               "Goal not found",
}

var conflicts = map[error]string{
	profile.ErrExists:    "Profile already exists",
	progress.ErrExists:   "Progress already exists",
	goal.ErrInvalidRange: "end_date must not be before start_date",
}

// respondError maps domain errors to HTTP responses.
func respondError(c *gin.Context, err error) {
	var (
		gerr *app.GenerationFailedError
		terr *llm.TransportError
		verr *planner.ValidationError
		perr *planner.ParseError
	)

	// Generation failures wrap parse and validation errors, so they go first.
	switch {
	case errors.As(err, &gerr):
		c.JSON(http.StatusBadGateway, gin.H{"error": gerr.Reason, "attempts": gerr.Attempts})
		return
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timed out"})
		return
	case errors.As(err, &terr):
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("model provider unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Plan generation service unavailable"})
		return
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		return
	case errors.As(err, &perr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	for target, msg := range notFound {
		if errors.Is(err, target) {
			c.JSON(http.StatusNotFound, gin.H{"error": msg})
			return
		}
	}
	for target, msg := range conflicts {
		if errors.Is(err, target) {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
	}

	zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("unhandled error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// respondGenerationError is respondError for handlers that run the model,
// where a deadline means generation did not finish in time.
func respondGenerationError(c *gin.Context, err error) {
	var gerr *app.GenerationFailedError
	if !errors.As(err, &gerr) && errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Plan generation timed out"})
		return
	}
	respondError(c, err)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
