package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Retry Policy
// ==========================

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeAlertCheckFailed, 3},
		{ErrCodePriceQueryFailed, 3},
		{ErrCodeProfileSaveFailed, 3},
		{ErrCodePriceQueryTimeout, 2},
		{ErrCodeAdviceLLMTimeout, 1},
		{ErrCodeProfileNotFound, 0},
		{ErrCodeDuplicateProfile, 0},
		{ErrCodeAlertValidationFailed, 0},
		{ErrorCode("NO_RECIPIENT"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetRetryCount(tt.code))
			assert.Equal(t, tt.want > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

// ==========================
// BPMN Conversion
// ==========================

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewAlertCheckFailedError(fmt.Errorf("db gone"))

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "ALERT_CHECK_FAILED", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.Equal(t, "ALERT_CHECK_FAILED", bpmnErr.ErrorVariables["originalErrorCode"])
}

func TestConvertToBPMNError_NonRetryableForcesZeroRetries(t *testing.T) {
	stdErr := &StandardError{
		Code:      ErrCodeAlertCheckFailed,
		Message:   "manually marked terminal",
		Retryable: false,
	}

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, 0, bpmnErr.Retries)
}

func TestConvertToBPMNError_UnmappedCodePassesThrough(t *testing.T) {
	stdErr := &StandardError{Code: "PARSE_ERROR", Message: "bad json"}

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "PARSE_ERROR", bpmnErr.Code)
	assert.Equal(t, 0, bpmnErr.Retries)
}

func TestToErrorVariables(t *testing.T) {
	bpmnErr := &BPMNError{
		Code:      "PROFILE_NOT_FOUND",
		Message:   "Farmer profile not found",
		Retryable: false,
		ErrorVariables: map[string]interface{}{
			"username": "ramesh",
		},
	}

	vars := bpmnErr.ToErrorVariables()

	assert.Equal(t, "PROFILE_NOT_FOUND", vars["errorCode"])
	assert.Equal(t, "Farmer profile not found", vars["errorMessage"])
	assert.Equal(t, false, vars["retryable"])
	assert.Equal(t, "ramesh", vars["username"])
}

// ==========================
// Categories
// ==========================

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeAdviceLLMFailed, "ADVISOR"},
		{ErrCodeForecastFailed, "MARKET"},
		{ErrCodePriceIndexNotFound, "MARKET"},
		{ErrCodeNotificationSendFailed, "ALERTS"},
		{ErrCodeProfileNotFound, "PROFILE"},
		{ErrCodeChatLogFailed, "CHAT"},
		{ErrCodeQueryTimeout, "DATABASE"},
		{ErrorCode("SOMETHING_ELSE"), "OTHER"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GetErrorCategory(tt.code), string(tt.code))
	}
}

func TestConstructorsSetRetryability(t *testing.T) {
	assert.True(t, NewAdviceLLMFailedError(fmt.Errorf("503")).Retryable)
	assert.True(t, NewChatLogFailedError(fmt.Errorf("redis down")).Retryable)
	assert.False(t, NewProfileNotFoundError("ramesh").Retryable)
	assert.False(t, NewDuplicateProfileError("ramesh").Retryable)
	assert.False(t, NewPriceIndexNotFoundError("mandi-prices").Retryable)
}
