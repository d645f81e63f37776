// Package errors provides the typed errors used across menumerge.
// Every failure a reconciliation cycle or the HTTP surface can produce maps
// onto one of these types so callers can branch with errors.Is / errors.As.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As and Join are re-exported so callers need only this package.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Sentinel errors.
var (
	// ErrNotFound indicates that a requested record does not exist yet.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable indicates that an upstream source answered with a server-side failure.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateLimited indicates that the upstream rate limit has been exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = errors.New("operation canceled")

	// ErrFetchFailed indicates the secondary source could not be retrieved after all attempts.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrFetchInvalid indicates the secondary source answered with an unusable payload.
	ErrFetchInvalid = errors.New("fetch returned invalid data")

	// ErrMergeSourceMissing indicates the merge could not run because the secondary dataset is empty.
	ErrMergeSourceMissing = errors.New("merge source missing")

	// ErrStoreUnavailable indicates that the durable store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// NotFoundError represents an error when a record is not found.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents a non-success HTTP answer from an upstream source.
type APIError struct {
	Source     string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Source, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode == 429 {
		return target == ErrRateLimited
	}
	if e.StatusCode >= 500 {
		return target == ErrSourceUnavailable
	}
	return false
}

// Retryable reports whether the status code describes a condition that may clear on its own.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// NewAPIError creates a new APIError
func NewAPIError(source string, statusCode int, message string) *APIError {
	return &APIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// FetchFailedError is returned once every fetch attempt against a source has failed
// with a transient error, or when a permanent transport-level failure ends the fetch early.
type FetchFailedError struct {
	Source   string
	Attempts int
	Err      error
}

// Error implements the error interface
func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch from %s failed after %d attempt(s): %v", e.Source, e.Attempts, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *FetchFailedError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FetchFailedError) Is(target error) bool {
	return target == ErrFetchFailed
}

// NewFetchFailedError creates a new FetchFailedError
func NewFetchFailedError(source string, attempts int, err error) *FetchFailedError {
	return &FetchFailedError{Source: source, Attempts: attempts, Err: err}
}

// FetchInvalidError is returned when a source answered but the payload is malformed
// or violates the dataset schema. It is never retried.
type FetchInvalidError struct {
	Source string
	Reason string
	Err    error
}

// Error implements the error interface
func (e *FetchInvalidError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid data from %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid data from %s: %s", e.Source, e.Reason)
}

// Unwrap implements errors.Unwrap
func (e *FetchInvalidError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FetchInvalidError) Is(target error) bool {
	return target == ErrFetchInvalid
}

// NewFetchInvalidError creates a new FetchInvalidError
func NewFetchInvalidError(source, reason string, err error) *FetchInvalidError {
	return &FetchInvalidError{Source: source, Reason: reason, Err: err}
}

// MergeError represents a failure while combining datasets.
type MergeError struct {
	Source      string
	Target      string
	ConflictIDs []string
	Err         error
}

// Error implements the error interface
func (e *MergeError) Error() string {
	if len(e.ConflictIDs) > 0 {
		return fmt.Sprintf("merge conflict between %s and %s for IDs: %v", e.Source, e.Target, e.ConflictIDs)
	}
	return fmt.Sprintf("merge error between %s and %s: %v", e.Source, e.Target, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *MergeError) Unwrap() error {
	return e.Err
}

// NewMergeError creates a new MergeError
func NewMergeError(source, target string, conflictIDs []string, err error) *MergeError {
	return &MergeError{
		Source:      source,
		Target:      target,
		ConflictIDs: conflictIDs,
		Err:         err,
	}
}

// MergeSourceMissingError is returned when the dataset that forms the merge base is absent or empty.
type MergeSourceMissingError struct {
	Source string
}

// Error implements the error interface
func (e *MergeSourceMissingError) Error() string {
	return fmt.Sprintf("merge source %s is missing or empty", e.Source)
}

// Is implements errors.Is support
func (e *MergeSourceMissingError) Is(target error) bool {
	return target == ErrMergeSourceMissing
}

// NewMergeSourceMissingError creates a new MergeSourceMissingError
func NewMergeSourceMissingError(source string) *MergeSourceMissingError {
	return &MergeSourceMissingError{Source: source}
}

// StoreUnavailableError wraps a durable storage failure.
type StoreUnavailableError struct {
	Operation string // "load", "save", "ping"
	Key       string
	Err       error
}

// Error implements the error interface
func (e *StoreUnavailableError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store unavailable during %s of %s: %v", e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("store unavailable during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// NewStoreUnavailableError creates a new StoreUnavailableError
func NewStoreUnavailableError(operation, key string, err error) *StoreUnavailableError {
	return &StoreUnavailableError{Operation: operation, Key: key, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error, including a bare
// context.Canceled.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// IsSourceUnavailable checks if an error indicates upstream unavailability
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsFetchFailed checks if an error is a FetchFailedError
func IsFetchFailed(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}

// IsFetchInvalid checks if an error is a FetchInvalidError
func IsFetchInvalid(err error) bool {
	return errors.Is(err, ErrFetchInvalid)
}

// IsMergeSourceMissing checks if an error is a MergeSourceMissingError
func IsMergeSourceMissing(err error) bool {
	return errors.Is(err, ErrMergeSourceMissing)
}

// IsStoreUnavailable checks if an error is a StoreUnavailableError
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d:%d: %s", e.Format, e.File, e.Line, e.Column, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error while building or operating a component.
type ResourceError struct {
	Operation string // "create", "open", "start", "stop"
	Resource  string // "store", "fetcher", "scheduler", "client"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// TimeoutError represents an operation timeout
type TimeoutError struct {
	Operation string
	Duration  string
	Message   string
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	if e.Duration != "" {
		return fmt.Sprintf("operation %s timed out after %s: %s", e.Operation, e.Duration, e.Message)
	}
	return fmt.Sprintf("operation %s timed out: %s", e.Operation, e.Message)
}

// Is implements errors.Is support
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(operation, duration, message string) *TimeoutError {
	return &TimeoutError{
		Operation: operation,
		Duration:  duration,
		Message:   message,
	}
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapStore wraps an error as a StoreUnavailableError
func WrapStore(operation, key string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreUnavailableError(operation, key, err)
}
