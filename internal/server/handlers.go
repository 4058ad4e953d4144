package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"fitmate/internal/goal"
	"fitmate/internal/metrics"
	"fitmate/internal/planner"
	"fitmate/internal/profile"
	"fitmate/internal/progress"
	"fitmate/internal/user"

	"github.com/gin-gonic/gin"
)

type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := s.app.Register(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, user.ErrUserExists) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := s.tokens.Issue(u.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "token": token})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := s.app.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, user.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := s.tokens.Issue(u.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) handleCreateProfile(c *gin.Context) {
	var in profile.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.app.CreateProfile(c.Request.Context(), currentEmail(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Profile created successfully", "profile": p})
}

func (s *Server) handleGetProfile(c *gin.Context) {
	p, err := s.app.GetProfile(c.Request.Context(), currentEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var in profile.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.app.UpdateProfile(c.Request.Context(), currentEmail(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "profile": p})
}

func (s *Server) handleCreateGoal(c *gin.Context) {
	var in goal.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	g, err := s.app.CreateGoal(c.Request.Context(), currentEmail(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"goal_id": g.ID, "goal": g})
}

func (s *Server) handleListGoals(c *gin.Context) {
	goals, err := s.app.ListGoals(c.Request.Context(), currentEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (s *Server) handleGetGoal(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid goal id"})
		return
	}
	g, err := s.app.GetGoal(c.Request.Context(), currentEmail(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// generationContext bounds a request that runs the model.
func (s *Server) generationContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.generationTimeout)
}

func (s *Server) handleUpsertWorkoutPlan(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, err)
		return
	}
	var prefs planner.WorkoutPreferences
	if err := planner.DecodeValidated(raw, planner.WorkoutPreferencesSchema, &prefs); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := s.generationContext(c)
	defer cancel()

	stored, created, err := s.app.UpsertWorkoutPlan(ctx, currentEmail(c), prefs)
	if err != nil {
		respondGenerationError(c, err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "Workout plan created successfully", "workout_plan": stored})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Workout plan updated successfully", "workout_plan": stored})
}

func (s *Server) handleGetWorkoutPlan(c *gin.Context) {
	stored, err := s.app.GetWorkoutPlan(c.Request.Context(), currentEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

func (s *Server) handleRegenerateWorkoutPlan(c *gin.Context) {
	ctx, cancel := s.generationContext(c)
	defer cancel()

	stored, err := s.app.RegenerateWorkoutPlan(ctx, currentEmail(c))
	if err != nil {
		respondGenerationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Workout plan regenerated successfully", "workout_plan": stored})
}

func (s *Server) handleUpsertMealPlan(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, err)
		return
	}
	var prefs planner.MealPreferences
	if err := planner.DecodeValidated(raw, planner.MealPreferencesSchema, &prefs); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := s.generationContext(c)
	defer cancel()

	stored, created, err := s.app.UpsertMealPlan(ctx, currentEmail(c), prefs)
	if err != nil {
		respondGenerationError(c, err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "Meal plan created successfully", "meal_plan": stored})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal plan updated successfully", "meal_plan": stored})
}

func (s *Server) handleGetMealPlan(c *gin.Context) {
	stored, err := s.app.GetMealPlan(c.Request.Context(), currentEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

func (s *Server) handleCreateProgress(c *gin.Context) {
	var in progress.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.app.CreateProgress(c.Request.Context(), currentEmail(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Progress created successfully", "progress": p})
}

func (s *Server) handleGetProgress(c *gin.Context) {
	p, err := s.app.GetProgress(c.Request.Context(), currentEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleUpdateProgress(c *gin.Context) {
	var in progress.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.app.UpdateProgress(c.Request.Context(), currentEmail(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Progress updated successfully", "progress": p})
}

func (s *Server) handleDashboard(c *gin.Context) {
	d, err := s.app.Dashboard(c.Request.Context(), currentEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()
	status, dbState, code := "ok", "up", http.StatusOK
	if err := s.app.Ping(ctx); err != nil {
		status, dbState, code = "degraded", "down", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":   status,
		"database": dbState,
		"system":   metrics.GetSysHealth(ctx, s.dataPath),
	})
}
