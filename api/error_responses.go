package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-bm25-solver/internal/errors"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client Error Codes (4xx)
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeSolverNotFound   ErrorCode = "SOLVER_NOT_FOUND"
	ErrorCodeSolverExists     ErrorCode = "SOLVER_ALREADY_EXISTS"
	ErrorCodeNoIndex          ErrorCode = "NO_CORPUS_LOADED"
	ErrorCodeEmptyCorpus      ErrorCode = "EMPTY_CORPUS"
	ErrorCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrorCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrorCodeInvalidQuery     ErrorCode = "INVALID_QUERY"
	ErrorCodeInvalidCorpus    ErrorCode = "INVALID_CORPUS"
	ErrorCodeJobNotFound      ErrorCode = "JOB_NOT_FOUND"

	// Server Error Codes (5xx)
	ErrorCodeInternalError  ErrorCode = "INTERNAL_ERROR"
	ErrorCodeIndexingFailed ErrorCode = "INDEXING_FAILED"
	ErrorCodeSearchFailed   ErrorCode = "SEARCH_FAILED"
)

// ErrorDetail provides additional context for an error
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError represents a standardized API error response
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIErrorResponse creates a standardized error response
func APIErrorResponse(code ErrorCode, message string, details ...ErrorDetail) *APIError {
	return &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	errorResponse := APIErrorResponse(code, message, details...)

	// Add request ID if available
	if requestID, exists := c.Get(requestIDKey); exists {
		if id, ok := requestID.(string); ok {
			errorResponse.RequestID = id
		}
	}

	c.JSON(statusCode, errorResponse)
}

// SendStructuredValidationError sends a validation error with structured details
func SendStructuredValidationError(c *gin.Context, result *ValidationResult) {
	details := make([]ErrorDetail, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = ErrorDetail{
			Field:   err.Field,
			Message: err.Message,
			Code:    "VALIDATION_ERROR",
		}
	}

	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", details...)
}

// SendSolverNotFoundError sends a standardized solver not found error
func SendSolverNotFoundError(c *gin.Context, solverName string) {
	SendError(c, http.StatusNotFound, ErrorCodeSolverNotFound,
		"Solver '"+solverName+"' not found")
}

// SendSolverExistsError sends a standardized solver already exists error
func SendSolverExistsError(c *gin.Context, solverName string) {
	SendError(c, http.StatusConflict, ErrorCodeSolverExists,
		"Solver '"+solverName+"' already exists")
}

// SendInvalidJSONError sends a standardized invalid JSON error
func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON,
		"Invalid JSON in request body: "+err.Error())
}

// SendInternalError sends a standardized internal server error
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation+": "+err.Error())
}

// SendSolverError maps solver errors to responses. A solver without a corpus
// is a conflict, not a server failure: callers use it to fall back to
// another solver.
func SendSolverError(c *gin.Context, solverName, operation string, err error) {
	var validationErr *internalErrors.ValidationError

	switch {
	case errors.Is(err, internalErrors.ErrSolverNotFound):
		SendSolverNotFoundError(c, solverName)
	case errors.Is(err, internalErrors.ErrJobNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeJobNotFound, err.Error())
	case errors.Is(err, internalErrors.ErrSolverAlreadyExists):
		SendSolverExistsError(c, solverName)
	case errors.Is(err, internalErrors.ErrNoIndex):
		SendError(c, http.StatusConflict, ErrorCodeNoIndex,
			"Solver '"+solverName+"' has no corpus loaded")
	case errors.Is(err, internalErrors.ErrEmptyCorpus):
		SendError(c, http.StatusBadRequest, ErrorCodeEmptyCorpus,
			"Cannot load an empty corpus into solver '"+solverName+"'")
	case errors.As(err, &validationErr):
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed",
			ErrorDetail{Field: validationErr.Field, Message: validationErr.Message, Code: "VALIDATION_ERROR"})
	case operation == "load corpus":
		SendError(c, http.StatusInternalServerError, ErrorCodeIndexingFailed,
			"Indexing failed for solver '"+solverName+"': "+err.Error())
	case operation == "search":
		SendError(c, http.StatusInternalServerError, ErrorCodeSearchFailed,
			"Search failed on solver '"+solverName+"': "+err.Error())
	default:
		SendInternalError(c, operation, err)
	}
}
