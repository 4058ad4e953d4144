package planner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports that a model reply did not contain a usable JSON value.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse model response: %s: %v", e.Reason, e.Err)
	}
	return "parse model response: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

const fence = "```"

// ParseResponse extracts the first JSON object or array from a model reply.
// Markdown code fences and surrounding prose are tolerated; a bracket in the
// prose that does not open a complete value is skipped. Numbers are kept as
// json.Number so integer fields can be told apart from decimals.
func ParseResponse(text string) (any, error) {
	body := strings.TrimSpace(stripFence(text))
	if body == "" {
		return nil, &ParseError{Reason: "empty response"}
	}

	start := strings.IndexAny(body, "{[")
	if start < 0 {
		return nil, &ParseError{Reason: "no JSON object or array found"}
	}

	var firstErr error
	for start >= 0 {
		value, err := decodeValue(body[start:])
		if err == nil {
			return value, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		next := strings.IndexAny(body[start+1:], "{[")
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, &ParseError{Reason: "malformed JSON", Err: firstErr}
}

func decodeValue(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

// stripFence returns the contents of the first fenced block, or text unchanged
// when it has none. An unclosed fence keeps everything after the opening line.
func stripFence(text string) string {
	open := strings.Index(text, fence)
	if open < 0 {
		return text
	}
	rest := text[open+len(fence):]
	// Drop the info string ("json", "JSON", ...) on the opening line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{[") {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, fence); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
