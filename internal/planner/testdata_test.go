package planner

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"fitmate/internal/llm"
	"fitmate/internal/shared"
)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func sampleWorkoutPlan() WorkoutPlan {
	plan := WorkoutPlan{}
	for _, day := range weekdays {
		plan.Days = append(plan.Days, WorkoutDay{
			Day: day,
			Exercises: []Exercise{
				{Name: "Push-ups", Sets: 3, Reps: 15, RestSeconds: 60},
				{Name: "Squats", Sets: 4, Reps: 12, RestSeconds: 90},
			},
		})
	}
	return plan
}

func sampleDietPlan() DietPlan {
	plan := DietPlan{}
	for _, day := range weekdays {
		plan.Days = append(plan.Days, DietDay{
			Day: day,
			Meals: []Meal{
				{MealType: "breakfast", Name: "Oatmeal with blueberries and almonds", Calories: 350, Carbs: 40, Protein: 10, Fat: 12},
				{MealType: "lunch", Name: "Chicken salad", Calories: 500, Carbs: 30, Protein: 40, Fat: 20},
			},
		})
	}
	return plan
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

// scriptedGenerator replays one reply per call and counts calls.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []scriptedReply
	calls   int
	prompts []string
}

type scriptedReply struct {
	content string
	err     error
}

func (s *scriptedGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	r := s.replies[len(s.replies)-1]
	if s.calls < len(s.replies) {
		r = s.replies[s.calls]
	}
	s.calls++
	if r.err != nil {
		return llm.ContentResponse{}, r.err
	}
	return llm.ContentResponse{
		Content: r.content,
		Usage:   shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150, Model: "stub"},
	}, nil
}
