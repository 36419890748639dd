package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrEmptyCorpus is returned when a corpus with zero documents is loaded
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrNoIndex is returned when a solver is queried before any corpus was loaded
	ErrNoIndex = errors.New("no index loaded")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrSolverNotFound is returned when a named solver does not exist
	ErrSolverNotFound = errors.New("solver not found")

	// ErrSolverAlreadyExists is returned when trying to create a solver that already exists
	ErrSolverAlreadyExists = errors.New("solver already exists")

	// ErrJobNotFound is returned when a background job ID is unknown or was cleaned up
	ErrJobNotFound = errors.New("job not found")

	// ErrTranslationUnavailable is returned by translators that cannot serve a request.
	// Solvers recover from it locally and never surface it.
	ErrTranslationUnavailable = errors.New("translation unavailable")
)

// EmptyCorpusError represents an attempt to index zero documents
type EmptyCorpusError struct {
	Solver string
}

func (e *EmptyCorpusError) Error() string {
	if e.Solver != "" {
		return fmt.Sprintf("cannot load empty corpus into solver '%s'", e.Solver)
	}
	return "cannot build index from empty corpus"
}

func (e *EmptyCorpusError) Is(target error) bool {
	return target == ErrEmptyCorpus
}

// NewEmptyCorpusError creates a new EmptyCorpusError
func NewEmptyCorpusError(solver ...string) *EmptyCorpusError {
	err := &EmptyCorpusError{}
	if len(solver) > 0 {
		err.Solver = solver[0]
	}
	return err
}

// NoIndexError represents a query against a solver without a loaded corpus
type NoIndexError struct {
	Solver string
}

func (e *NoIndexError) Error() string {
	if e.Solver != "" {
		return fmt.Sprintf("solver '%s' has no corpus loaded", e.Solver)
	}
	return "solver has no corpus loaded"
}

func (e *NoIndexError) Is(target error) bool {
	return target == ErrNoIndex
}

// NewNoIndexError creates a new NoIndexError
func NewNoIndexError(solver string) *NoIndexError {
	return &NoIndexError{Solver: solver}
}

// SolverNotFoundError represents a solver not found error with context
type SolverNotFoundError struct {
	Name string
}

func (e *SolverNotFoundError) Error() string {
	return fmt.Sprintf("solver named '%s' not found", e.Name)
}

func (e *SolverNotFoundError) Is(target error) bool {
	return target == ErrSolverNotFound
}

// NewSolverNotFoundError creates a new SolverNotFoundError
func NewSolverNotFoundError(name string) *SolverNotFoundError {
	return &SolverNotFoundError{Name: name}
}

// SolverAlreadyExistsError represents a solver already exists error with context
type SolverAlreadyExistsError struct {
	Name string
}

func (e *SolverAlreadyExistsError) Error() string {
	return fmt.Sprintf("solver named '%s' already exists", e.Name)
}

func (e *SolverAlreadyExistsError) Is(target error) bool {
	return target == ErrSolverAlreadyExists
}

// NewSolverAlreadyExistsError creates a new SolverAlreadyExistsError
func NewSolverAlreadyExistsError(name string) *SolverAlreadyExistsError {
	return &SolverAlreadyExistsError{Name: name}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TranslationError wraps a collaborator failure while translating a query
type TranslationError struct {
	Source string
	Target string
	Err    error
}

func (e *TranslationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("translation %s->%s unavailable: %v", e.Source, e.Target, e.Err)
	}
	return fmt.Sprintf("translation %s->%s unavailable", e.Source, e.Target)
}

func (e *TranslationError) Is(target error) bool {
	return target == ErrTranslationUnavailable
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// NewTranslationError creates a new TranslationError
func NewTranslationError(source, target string, err error) *TranslationError {
	return &TranslationError{Source: source, Target: target, Err: err}
}
