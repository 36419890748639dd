// Package api provides validation utilities for API request handling.
package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-bm25-solver/config"
)

// maxOptions bounds the candidates of a single rerank request.
const maxOptions = 1000

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateSolverName validates a solver name parameter
func ValidateSolverName(solverName string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if solverName == "" {
		result.AddError("solverName", "Solver name is required")
		return result
	}

	if strings.TrimSpace(solverName) != solverName {
		result.AddError("solverName", "Solver name cannot have leading or trailing whitespace")
		return result
	}

	return result
}

// ValidateSolverSettings validates solver settings for creation. Defaults are
// applied first so omitted fields are not reported.
func ValidateSolverSettings(settings *config.SolverSettings) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if settings == nil {
		result.AddError("settings", "Solver settings are required")
		return result
	}

	if nameResult := ValidateSolverName(settings.Name); nameResult.HasErrors() {
		return nameResult
	}

	checked := *settings
	checked.ApplyDefaults()
	for _, problem := range checked.Validate() {
		result.AddError("settings", problem)
	}

	return result
}

// ValidateRetrieval validates the top_k and min_confidence knobs of a search request
func ValidateRetrieval(topK int, minConfidence float64) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if topK < 1 {
		result.AddError("top_k", fmt.Sprintf("top_k must be at least 1, got %d", topK))
	}
	if minConfidence < 0 {
		result.AddError("min_confidence", fmt.Sprintf("min_confidence must be non-negative, got %v", minConfidence))
	}

	return result
}

// ValidateOptions validates the candidate options of a rerank request
func ValidateOptions(options []string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(options) == 0 {
		result.AddError("options", "At least one option is required")
		return result
	}
	if len(options) > maxOptions {
		result.AddError("options", fmt.Sprintf("At most %d options are allowed, got %d", maxOptions, len(options)))
	}

	return result
}

// SendValidationError sends a validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}
