// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeAdviceLLMFailed  ErrorCode = "ADVICE_LLM_FAILED"
	ErrCodeAdviceLLMTimeout ErrorCode = "ADVICE_LLM_TIMEOUT"

	ErrCodePriceGenerationFailed ErrorCode = "PRICE_GENERATION_FAILED"
	ErrCodePriceQueryFailed      ErrorCode = "PRICE_QUERY_FAILED"
	ErrCodePriceQueryTimeout     ErrorCode = "PRICE_QUERY_TIMEOUT"
	ErrCodePriceIndexNotFound    ErrorCode = "PRICE_INDEX_NOT_FOUND"
	ErrCodeForecastFailed        ErrorCode = "FORECAST_FAILED"

	ErrCodeAlertValidationFailed  ErrorCode = "ALERT_VALIDATION_FAILED"
	ErrCodeAlertCheckFailed       ErrorCode = "ALERT_CHECK_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeProfileNotFound         ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileSaveFailed       ErrorCode = "PROFILE_SAVE_FAILED"
	ErrCodeDuplicateProfile        ErrorCode = "DUPLICATE_PROFILE"
	ErrCodeProfileValidationFailed ErrorCode = "PROFILE_VALIDATION_FAILED"

	ErrCodeChatLogFailed ErrorCode = "CHAT_LOG_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewAdviceLLMFailedError creates a retryable remote model error.
func NewAdviceLLMFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAdviceLLMFailed,
		Message:   "Remote advice model error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAdviceLLMTimeoutError creates a retryable remote model timeout error.
func NewAdviceLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeAdviceLLMTimeout,
		Message:   "Remote advice model timeout",
		Details:   "API call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPriceGenerationFailedError creates a retryable price feed error.
func NewPriceGenerationFailedError(crop string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePriceGenerationFailed,
		Message:   "Simulated price series generation failed",
		Details:   fmt.Sprintf("crop: %s, error: %s", crop, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPriceQueryFailedError creates a retryable price index query error.
func NewPriceQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePriceQueryFailed,
		Message:   "Price history query error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPriceQueryTimeoutError creates a retryable price query timeout error.
func NewPriceQueryTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodePriceQueryTimeout,
		Message:   "Price history query timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPriceIndexNotFoundError creates a non-retryable index error.
func NewPriceIndexNotFoundError(indexName string) *StandardError {
	return &StandardError{
		Code:      ErrCodePriceIndexNotFound,
		Message:   "Price index not found",
		Details:   fmt.Sprintf("indexName: %s", indexName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewForecastFailedError creates a retryable forecast error.
func NewForecastFailedError(crop string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeForecastFailed,
		Message:   "Price forecast generation failed",
		Details:   fmt.Sprintf("crop: %s, error: %s", crop, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlertValidationFailedError creates a non-retryable alert input error.
func NewAlertValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlertValidationFailed,
		Message:   "Alert threshold validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlertCheckFailedError creates a retryable alert evaluation error.
func NewAlertCheckFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlertCheckFailed,
		Message:   "Price alert evaluation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileNotFoundError creates a non-retryable profile lookup error.
func NewProfileNotFoundError(username string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "Farmer profile not found",
		Details:   fmt.Sprintf("username: %s", username),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileSaveFailedError creates a retryable profile persistence error.
func NewProfileSaveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileSaveFailed,
		Message:   "Farmer profile save failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateProfileError creates a non-retryable duplicate username error.
func NewDuplicateProfileError(username string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateProfile,
		Message:   "Username already registered",
		Details:   fmt.Sprintf("username: %s", username),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewChatLogFailedError creates a retryable conversation log error.
func NewChatLogFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeChatLogFailed,
		Message:   "Conversation log operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      "AUTHENTICATION_ERROR",
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
// The two sets are intentionally identical.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeAdviceLLMFailed:          "ADVICE_LLM_FAILED",
	ErrCodeAdviceLLMTimeout:         "ADVICE_LLM_TIMEOUT",
	ErrCodePriceGenerationFailed:    "PRICE_GENERATION_FAILED",
	ErrCodePriceQueryFailed:         "PRICE_QUERY_FAILED",
	ErrCodePriceQueryTimeout:        "PRICE_QUERY_TIMEOUT",
	ErrCodePriceIndexNotFound:       "PRICE_INDEX_NOT_FOUND",
	ErrCodeForecastFailed:           "FORECAST_FAILED",
	ErrCodeAlertValidationFailed:    "ALERT_VALIDATION_FAILED",
	ErrCodeAlertCheckFailed:         "ALERT_CHECK_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeProfileNotFound:          "PROFILE_NOT_FOUND",
	ErrCodeProfileSaveFailed:        "PROFILE_SAVE_FAILED",
	ErrCodeDuplicateProfile:         "DUPLICATE_PROFILE",
	ErrCodeProfileValidationFailed:  "PROFILE_VALIDATION_FAILED",
	ErrCodeChatLogFailed:            "CHAT_LOG_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeAdviceLLMFailed,
		ErrCodePriceGenerationFailed,
		ErrCodePriceQueryFailed,
		ErrCodeForecastFailed,
		ErrCodeAlertCheckFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeProfileSaveFailed,
		ErrCodeChatLogFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout,
		ErrCodePriceQueryTimeout:
		return 2 // Partial retry for timeouts

	case ErrCodeAdviceLLMTimeout:
		// The advice path never blocks on the remote model: one retry,
		// then the BPMN flow routes to the local fallback task.
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "ADVICE"):
		return "ADVISOR"
	case strings.Contains(codeStr, "PRICE") || strings.Contains(codeStr, "FORECAST"):
		return "MARKET"
	case strings.Contains(codeStr, "ALERT") || strings.Contains(codeStr, "NOTIFICATION"):
		return "ALERTS"
	case strings.Contains(codeStr, "PROFILE"):
		return "PROFILE"
	case strings.Contains(codeStr, "CHAT"):
		return "CHAT"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
