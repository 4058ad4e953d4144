package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Type is the JSON type a Schema node accepts.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeInteger Type = "integer"
)

// Schema describes the shape a decoded JSON value must have.
// Properties not listed in Required are optional but validated when present.
// Unknown properties are ignored.
type Schema struct {
	Type       Type
	Properties map[string]*Schema
	Required   []string
	Items      *Schema
	MinItems   int
	MaxItems   int // 0 means unbounded
	MinLength  int
	Enum       []string
	NonNeg     bool
}

// ValidationError carries the first schema violation found.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	path := e.Path
	if path == "" {
		path = "(root)"
	}
	return path + ": " + e.Message
}

var (
	integerField = &Schema{Type: TypeInteger, NonNeg: true}
	stringField  = &Schema{Type: TypeString}
	nameField    = &Schema{Type: TypeString, MinLength: 1}
	stringList   = &Schema{Type: TypeArray, Items: stringField}
)

// WorkoutSchema matches {"workout": [{"day", "exercises": [{"name", "sets", "reps", "rest"}]}]}.
var WorkoutSchema = &Schema{
	Type:     TypeObject,
	Required: []string{"workout"},
	Properties: map[string]*Schema{
		"workout": {
			Type:     TypeArray,
			MinItems: 7,
			MaxItems: 7,
			Items: &Schema{
				Type:     TypeObject,
				Required: []string{"day", "exercises"},
				Properties: map[string]*Schema{
					"day": nameField,
					"exercises": {
						Type: TypeArray,
						Items: &Schema{
							Type:     TypeObject,
							Required: []string{"name", "sets", "reps", "rest"},
							Properties: map[string]*Schema{
								"name": nameField,
								"sets": integerField,
								"reps": integerField,
								"rest": integerField,
							},
						},
					},
				},
			},
		},
	},
}

// DietSchema matches {"diet_plan": [{"day", "meals": [{"type", "name", "calories", "carbs", "protein", "fat"}]}]}.
var DietSchema = &Schema{
	Type:     TypeObject,
	Required: []string{"diet_plan"},
	Properties: map[string]*Schema{
		"diet_plan": {
			Type:     TypeArray,
			MinItems: 7,
			MaxItems: 7,
			Items: &Schema{
				Type:     TypeObject,
				Required: []string{"day", "meals"},
				Properties: map[string]*Schema{
					"day": nameField,
					"meals": {
						Type:     TypeArray,
						MinItems: 1,
						Items: &Schema{
							Type:     TypeObject,
							Required: []string{"type", "name", "calories", "carbs", "protein", "fat"},
							Properties: map[string]*Schema{
								"type":     nameField,
								"name":     nameField,
								"calories": integerField,
								"carbs":    integerField,
								"protein":  integerField,
								"fat":      integerField,
							},
						},
					},
				},
			},
		},
	},
}

// WorkoutPreferencesSchema validates the body of a workout plan request.
var WorkoutPreferencesSchema = &Schema{
	Type:     TypeObject,
	Required: []string{"workout_type"},
	Properties: map[string]*Schema{
		"workout_type":     nameField,
		"equipment_access": stringList,
	},
}

// MealPreferencesSchema validates the body of a meal plan request.
var MealPreferencesSchema = &Schema{
	Type:     TypeObject,
	Required: []string{"calories"},
	Properties: map[string]*Schema{
		"calories":  {Type: TypeString, Enum: []string{CaloriesLow, CaloriesMedium, CaloriesHigh}},
		"allergies": stringList,
	},
}

// Validate checks value against schema and returns the first violation.
// value is expected to come from a decoder with UseNumber enabled.
func Validate(value any, schema *Schema) error {
	return validate(value, schema, "")
}

// DecodeValidated decodes data, validates it against schema and only then
// unmarshals it into dst.
func DecodeValidated(data []byte, schema *Schema, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return &ParseError{Reason: "malformed JSON", Err: err}
	}
	if err := Validate(value, schema); err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func validate(value any, s *Schema, path string) error {
	switch s.Type {
	case TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return mismatch(path, "object", value)
		}
		for _, name := range s.Required {
			v, present := obj[name]
			if !present {
				return &ValidationError{Path: join(path, name), Message: "required field missing"}
			}
			if err := validate(v, s.Properties[name], join(path, name)); err != nil {
				return err
			}
		}
		for _, name := range optionalProperties(s) {
			if v, present := obj[name]; present {
				if err := validate(v, s.Properties[name], join(path, name)); err != nil {
					return err
				}
			}
		}
	case TypeArray:
		list, ok := value.([]any)
		if !ok {
			return mismatch(path, "array", value)
		}
		if len(list) < s.MinItems {
			return &ValidationError{Path: path, Message: fmt.Sprintf("expected at least %d items, got %d", s.MinItems, len(list))}
		}
		if s.MaxItems > 0 && len(list) > s.MaxItems {
			return &ValidationError{Path: path, Message: fmt.Sprintf("expected at most %d items, got %d", s.MaxItems, len(list))}
		}
		for i, item := range list {
			if err := validate(item, s.Items, path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
	case TypeString:
		str, ok := value.(string)
		if !ok {
			return mismatch(path, "string", value)
		}
		if len(strings.TrimSpace(str)) < s.MinLength {
			return &ValidationError{Path: path, Message: "must not be empty"}
		}
		if len(s.Enum) > 0 && !slices.Contains(s.Enum, str) {
			return &ValidationError{Path: path, Message: fmt.Sprintf("must be one of %s, got %q", strings.Join(s.Enum, ", "), str)}
		}
	case TypeInteger:
		num, ok := value.(json.Number)
		if !ok {
			return mismatch(path, "integer", value)
		}
		n, err := num.Int64()
		if err != nil {
			return mismatch(path, "integer", value)
		}
		if s.NonNeg && n < 0 {
			return &ValidationError{Path: path, Message: fmt.Sprintf("must not be negative, got %d", n)}
		}
	default:
		return fmt.Errorf("schema at %q has unknown type %q", path, s.Type)
	}
	return nil
}

func optionalProperties(s *Schema) []string {
	var names []string
	for name := range s.Properties {
		if !slices.Contains(s.Required, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func mismatch(path, want string, got any) error {
	return &ValidationError{Path: path, Message: fmt.Sprintf("expected %s, got %s", want, jsonKind(got))}
}

func jsonKind(v any) string {
	switch n := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return "integer"
		}
		return "number " + n.String()
	case float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
