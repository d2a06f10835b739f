// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrEmptyChain     = errors.New("option chain enumeration is empty")
	ErrDataNotFound   = errors.New("data not found")
	ErrInvalidRequest = errors.New("invalid simulation request")
	ErrJobNotFound    = errors.New("job not found")
)

// ConfigurationError represents malformed construction-time inputs:
// bad regimes, a non-stochastic transition matrix, invalid surface shape
// parameters. Construction fails fast before any random draw occurs.
type ConfigurationError struct {
	Component string
	Message   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error [%s]: %s", e.Component, e.Message)
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(component, message string) *ConfigurationError {
	return &ConfigurationError{Component: component, Message: message}
}

// NewConfigurationErrorf creates a new ConfigurationError with a formatted message.
func NewConfigurationErrorf(component, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Component: component, Message: fmt.Sprintf(format, args...)}
}

// ValidationError represents malformed simulation parameters:
// non-positive dt, negative volatility, zero periods, or a generated
// path that failed the requested market-type checks.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// InvalidContractError represents malformed option terms.
type InvalidContractError struct {
	Field   string
	Value   float64
	Message string
}

func (e *InvalidContractError) Error() string {
	return fmt.Sprintf("invalid contract: %s (%g): %s", e.Field, e.Value, e.Message)
}

// NewInvalidContractError creates a new InvalidContractError.
func NewInvalidContractError(field string, value float64, message string) *InvalidContractError {
	return &InvalidContractError{Field: field, Value: value, Message: message}
}

// EmptyChainError represents a degenerate strike or expiry enumeration.
type EmptyChainError struct {
	Dimension string
	Message   string
}

func (e *EmptyChainError) Error() string {
	return fmt.Sprintf("empty chain [%s]: %s", e.Dimension, e.Message)
}

func (e *EmptyChainError) Unwrap() error {
	return ErrEmptyChain
}

// NewEmptyChainError creates a new EmptyChainError.
func NewEmptyChainError(dimension, message string) *EmptyChainError {
	return &EmptyChainError{Dimension: dimension, Message: message}
}

// StorageError represents a failure surfaced from the persistence
// collaborator. It is never silently swallowed and never recovered from.
type StorageError struct {
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage error [%s] %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("storage error [%s] %s", e.Operation, e.Path)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError.
func NewStorageError(operation, path string, err error) *StorageError {
	return &StorageError{Operation: operation, Path: path, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
