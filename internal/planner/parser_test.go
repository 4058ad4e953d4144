package planner

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	t.Run("Object", func(t *testing.T) {
		v, err := ParseResponse(`{"workout": [{"day": "Monday"}]}`)
		require.NoError(t, err)
		obj, ok := v.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, obj, "workout")
	})

	t.Run("Array", func(t *testing.T) {
		v, err := ParseResponse(`  [{"workout": []}]  `)
		require.NoError(t, err)
		list, ok := v.([]any)
		require.True(t, ok)
		assert.Len(t, list, 1)
	})

	t.Run("MarkdownFence", func(t *testing.T) {
		v, err := ParseResponse("Here is your plan:\n```json\n{\"sets\": 3}\n```\nEnjoy!")
		require.NoError(t, err)
		assert.Equal(t, json.Number("3"), v.(map[string]any)["sets"])
	})

	t.Run("InlineFence", func(t *testing.T) {
		v, err := ParseResponse("```{\"a\": 1}```")
		require.NoError(t, err)
		assert.Equal(t, json.Number("1"), v.(map[string]any)["a"])
	})

	t.Run("SurroundingProse", func(t *testing.T) {
		v, err := ParseResponse(`Sure! {"reps": 12.5} Let me know if you need more.`)
		require.NoError(t, err)
		assert.Equal(t, json.Number("12.5"), v.(map[string]any)["reps"])
	})

	t.Run("BracketsInLeadingProse", func(t *testing.T) {
		v, err := ParseResponse("Here is your plan [7 days]:\n{\"workout\": []}")
		require.NoError(t, err)
		obj, ok := v.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, []any{}, obj["workout"])
	})

	t.Run("BracesInLeadingProse", func(t *testing.T) {
		v, err := ParseResponse(`Use {sets} x {reps} below. [{"workout": []}]`)
		require.NoError(t, err)
		assert.IsType(t, []any{}, v)
	})

	t.Run("ReportsFirstDecodeError", func(t *testing.T) {
		_, err := ParseResponse(`{"workout": [1, 2,, 3]}`)
		var perr *ParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "malformed JSON", perr.Reason)
		assert.Contains(t, perr.Err.Error(), "invalid character ','")
	})

	failures := map[string]string{
		"Empty":         "   ",
		"NoJSON":        "I cannot help with that.",
		"Truncated":     `{"workout": [{"day": "Monday", "exercises": [`,
		"Malformed":     `{"workout": [1, 2,, 3]}`,
		"UnclosedFence": "```json\n{\"workout\": ",
		"ScalarOnly":    "42",
	}
	for name, input := range failures {
		t.Run(name, func(t *testing.T) {
			_, err := ParseResponse(input)
			require.Error(t, err)
			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
		})
	}
}
