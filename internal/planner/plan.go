package planner

// PlanKind names the two plan families the generator produces.
type PlanKind string

const (
	KindWorkout PlanKind = "workout"
	KindDiet    PlanKind = "diet"
)

// Exercise is one movement in a workout day. RestSeconds travels as "rest".
type Exercise struct {
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	RestSeconds int    `json:"rest"`
}

// WorkoutDay groups the exercises scheduled for one day.
type WorkoutDay struct {
	Day       string     `json:"day"`
	Exercises []Exercise `json:"exercises"`
}

// WorkoutPlan is a validated seven day workout schedule.
type WorkoutPlan struct {
	Days []WorkoutDay `json:"workout"`
}

// Meal is a single meal with its macro breakdown. MealType travels as "type".
type Meal struct {
	MealType string `json:"type"`
	Name     string `json:"name"`
	Calories int    `json:"calories"`
	Carbs    int    `json:"carbs"`
	Protein  int    `json:"protein"`
	Fat      int    `json:"fat"`
}

// DietDay groups the meals scheduled for one day.
type DietDay struct {
	Day   string `json:"day"`
	Meals []Meal `json:"meals"`
}

// DietPlan is a validated seven day diet schedule.
type DietPlan struct {
	Days []DietDay `json:"diet_plan"`
}

// WorkoutPreferences is what a user asks for when requesting a workout plan.
type WorkoutPreferences struct {
	WorkoutType     string   `json:"workout_type"`
	EquipmentAccess []string `json:"equipment_access"`
}

// Calorie tiers accepted in MealPreferences.
const (
	CaloriesLow    = "low"
	CaloriesMedium = "medium"
	CaloriesHigh   = "high"
)

// MealPreferences is what a user asks for when requesting a meal plan.
type MealPreferences struct {
	Calories  string   `json:"calories"`
	Allergies []string `json:"allergies"`
}

// GenerationRequest is the input of a single generation run.
type GenerationRequest struct {
	Goal               string
	Biometrics         string
	DietaryPreferences string
}

const (
	defaultGoal               = "general fitness"
	defaultBiometrics         = "not provided"
	defaultDietaryPreferences = "balanced"
)

func (r GenerationRequest) withDefaults() GenerationRequest {
	if r.Goal == "" {
		r.Goal = defaultGoal
	}
	if r.Biometrics == "" {
		r.Biometrics = defaultBiometrics
	}
	if r.DietaryPreferences == "" {
		r.DietaryPreferences = defaultDietaryPreferences
	}
	return r
}
