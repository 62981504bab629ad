// Package errors provides the standard error envelope shared by the assistant's
// outer surfaces (HTTP, workflow worker, CLI).
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode is a stable, machine readable error identifier.
type ErrorCode string

const (
	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"
	ErrCodeCatalogNotFound    ErrorCode = "CATALOG_NOT_FOUND"
	ErrCodeCatalogTimeout     ErrorCode = "CATALOG_TIMEOUT"

	ErrCodeOracleUnavailable ErrorCode = "ORACLE_UNAVAILABLE"
	ErrCodeOracleUnusable    ErrorCode = "ORACLE_UNUSABLE"
	ErrCodeOracleTimeout     ErrorCode = "ORACLE_TIMEOUT"

	ErrCodeWorkflowUnavailable ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"
	ErrCodeWorkflowTimeout     ErrorCode = "WORKFLOW_ENGINE_TIMEOUT"

	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewCatalogUnavailableError wraps a failed catalog call.
func NewCatalogUnavailableError(operation string, err error) *StandardError {
	e := newError(ErrCodeCatalogUnavailable, "Catalog gateway unavailable", err, true)
	e.Metadata = map[string]interface{}{"operation": operation}
	return e
}

func NewCatalogNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogNotFound,
		Message:   "Product not found in catalog",
		Details:   fmt.Sprintf("productId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewCatalogTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogTimeout,
		Message:   "Catalog gateway timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewOracleUnavailableError(task string, err error) *StandardError {
	e := newError(ErrCodeOracleUnavailable, "NLU oracle unavailable", err, true)
	e.Metadata = map[string]interface{}{"task": task}
	return e
}

// NewOracleUnusableError reports an oracle payload that failed validation.
func NewOracleUnusableError(task string, err error) *StandardError {
	e := newError(ErrCodeOracleUnusable, "NLU oracle returned an unusable payload", err, false)
	e.Metadata = map[string]interface{}{"task": task}
	return e
}

func NewOracleTimeoutError(task string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleTimeout,
		Message:   "NLU oracle timeout",
		Details:   fmt.Sprintf("task: %s", task),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewSessionStoreError(sessionID string, err error) *StandardError {
	e := newError(ErrCodeSessionStoreFailed, "Session store failure", err, true)
	e.Metadata = map[string]interface{}{"sessionId": sessionID}
	return e
}

// NewWorkflowEngineError wraps a failed call to the workflow broker.
func NewWorkflowEngineError(operation string, err error) *StandardError {
	e := newError(ErrCodeWorkflowUnavailable, "Workflow engine unavailable", err, true)
	e.Metadata = map[string]interface{}{"operation": operation}
	return e
}

func NewWorkflowTimeoutError(operation string, err error) *StandardError {
	e := newError(ErrCodeWorkflowTimeout, "Workflow engine timeout", err, true)
	e.Metadata = map[string]interface{}{"operation": operation}
	return e
}

func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Normalize converts any error into a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// BPMNError is the shape thrown to the workflow engine.
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

// ToErrorVariables returns a map suitable for job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSessionStoreFailed, ErrCodeCatalogUnavailable, ErrCodeOracleUnavailable:
		return 3
	case ErrCodeCatalogTimeout, ErrCodeOracleTimeout, ErrCodeWorkflowUnavailable, ErrCodeWorkflowTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
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

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.HasPrefix(codeStr, "ORACLE"):
		return "AI"
	case strings.HasPrefix(codeStr, "SESSION"):
		return "SESSION"
	case strings.HasPrefix(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// ToHTTPStatus maps a code onto the status the HTTP surface returns.
func ToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeCatalogNotFound:
		return http.StatusNotFound
	case ErrCodeCatalogTimeout, ErrCodeOracleTimeout, ErrCodeWorkflowTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeSessionStoreFailed, ErrCodeCatalogUnavailable, ErrCodeOracleUnavailable, ErrCodeWorkflowUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
