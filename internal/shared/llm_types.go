package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AttemptStatus classifies how a single generation attempt ended.
type AttemptStatus string

const (
	AttemptSucceeded       AttemptStatus = "success"
	AttemptParseError      AttemptStatus = "parse_error"
	AttemptValidationError AttemptStatus = "validation_error"
	AttemptTransportError  AttemptStatus = "transport_error"
)

// AgentMeta holds operational metadata for an agent execution.
type AgentMeta struct {
	AgentName string
	Status    AttemptStatus
	Usage     TokenUsage
	Latency   time.Duration
}
