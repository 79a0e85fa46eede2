package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPipelineErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	perr := NewPipelineError(CodeDatabaseError, "storage failure").WithCause(cause)

	assert.ErrorIs(t, perr, cause)
	assert.Contains(t, perr.Error(), "DATABASE_ERROR")
	assert.Contains(t, perr.Error(), "storage failure")
}

func TestPipelineErrorCarriesFieldsAndRetry(t *testing.T) {
	perr := NewPipelineError(CodeValidationFailed, "invalid input").
		WithFields(map[string]string{"email": "is required"}).
		WithRetryAfter(7 * time.Minute)

	assert.Equal(t, CodeValidationFailed, perr.Code)
	assert.Equal(t, "is required", perr.Fields["email"])
	assert.Equal(t, 7*time.Minute, perr.RetryAfter)
}

func TestPipelineErrorAsTarget(t *testing.T) {
	var err error = NewPipelineError(CodeDuplicateOrder, "duplicate order in cooldown window")

	var perr *PipelineError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, CodeDuplicateOrder, perr.Code)
}
