package domain

import (
	"fmt"
	"time"
)

// Code is the closed set of terminal pipeline outcomes. Codes are stable
// across retries so callers can branch on them.
type Code string

const (
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeSanitizationFailed  Code = "SANITIZATION_FAILED"
	CodeValidationFailed    Code = "VALIDATION_FAILED"
	CodeBusinessRulesFailed Code = "BUSINESS_RULES_FAILED"
	CodeSafetyCheckFailed   Code = "SAFETY_CHECK_FAILED"
	CodeProductNotFound     Code = "APPLICATION_NOT_FOUND"
	CodePlatformNotFound    Code = "PLATFORM_NOT_FOUND"
	CodePriceMismatch       Code = "PRICE_MISMATCH"
	CodeDuplicateOrder      Code = "DUPLICATE_ORDER"
	CodeInsertFailed        Code = "INSERT_FAILED"
	CodeDatabaseError       Code = "DATABASE_ERROR"
	CodeUnknown             Code = "UNKNOWN_ERROR"
)

// PipelineError is the single failure type the orchestrator reports.
// Fields carries per-field validation detail, RetryAfter is set on
// RATE_LIMITED and DUPLICATE_ORDER outcomes.
type PipelineError struct {
	Code       Code
	Message    string
	Fields     map[string]string
	RetryAfter time.Duration
	cause      error
}

func (e *PipelineError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.cause }

func NewPipelineError(code Code, message string) *PipelineError {
	return &PipelineError{Code: code, Message: message}
}

func (e *PipelineError) WithFields(fields map[string]string) *PipelineError {
	e.Fields = fields
	return e
}

func (e *PipelineError) WithRetryAfter(d time.Duration) *PipelineError {
	e.RetryAfter = d
	return e
}

func (e *PipelineError) WithCause(err error) *PipelineError {
	e.cause = err
	return e
}
