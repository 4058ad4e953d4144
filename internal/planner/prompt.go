package planner

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed workout_prompt.md
var workoutPrompt string

//go:embed diet_prompt.md
var dietPrompt string

var (
	workoutTmpl = template.Must(template.New("workout").Parse(workoutPrompt))
	dietTmpl    = template.Must(template.New("diet").Parse(dietPrompt))
)

// BuildWorkoutPrompt renders the workout instruction for req.
func BuildWorkoutPrompt(req GenerationRequest) string {
	return render(workoutTmpl, req.withDefaults())
}

// BuildDietPrompt renders the diet instruction for req.
func BuildDietPrompt(req GenerationRequest) string {
	return render(dietTmpl, req.withDefaults())
}

// render cannot fail: the templates only reference string fields of
// GenerationRequest and write to an in-memory buffer.
func render(tmpl *template.Template, req GenerationRequest) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, req); err != nil {
		panic("planner: prompt template: " + err.Error())
	}
	return buf.String()
}
