package common

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across packages
var (
	// ErrInvalidConfiguration indicates configuration issues detected before any network activity
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrRetriesExhausted is returned by the poll loop once the retry budget is spent
	ErrRetriesExhausted = errors.New("connection retries exhausted")
	// ErrInvalidToken indicates the provider rejected the access token
	ErrInvalidToken = errors.New("invalid token")
)

// WrapError wraps an error with additional context information
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context information
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewError creates a new error with a formatted message
func NewError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// ConfigurationError describes a required setting that is missing or malformed.
// Flag and EnvVar name the sources that can provide the setting.
type ConfigurationError struct {
	Section string
	Field   string
	Reason  string
	Flag    string
	EnvVar  string
}

func (e *ConfigurationError) Error() string {
	var msg string
	switch {
	case e.Section != "" && e.Field != "":
		msg = fmt.Sprintf("configuration error in section '%s', field '%s': %s", e.Section, e.Field, e.Reason)
	case e.Section != "":
		msg = fmt.Sprintf("configuration error in section '%s': %s", e.Section, e.Reason)
	default:
		msg = fmt.Sprintf("configuration error: %s", e.Reason)
	}

	if hint := e.Hint(); hint != "" {
		msg += ". " + hint
	}
	return msg
}

// Hint returns the user-facing remediation for a missing setting
func (e *ConfigurationError) Hint() string {
	switch {
	case e.Flag != "" && e.EnvVar != "":
		return fmt.Sprintf("Please set it via %q argument or %q environment variable", e.Flag, e.EnvVar)
	case e.Flag != "":
		return fmt.Sprintf("Please set it via %q argument", e.Flag)
	case e.EnvVar != "":
		return fmt.Sprintf("Please set it via %q environment variable", e.EnvVar)
	}
	return ""
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(section, field, reason string) *ConfigurationError {
	return &ConfigurationError{
		Section: section,
		Field:   field,
		Reason:  reason,
	}
}

// NewMissingSettingError creates a configuration error for a required setting that was not provided
func NewMissingSettingError(section, field, description, flag, envVar string) *ConfigurationError {
	return &ConfigurationError{
		Section: section,
		Field:   field,
		Reason:  description + " is not provided",
		Flag:    flag,
		EnvVar:  envVar,
	}
}

// ConnectivityError represents an unreachable provider or a non-2xx response
type ConnectivityError struct {
	URL        string
	StatusCode int
	Reason     string
	Wrapped    error
}

func (e *ConnectivityError) Error() string {
	switch {
	case e.Wrapped != nil:
		return fmt.Sprintf("connectivity error for '%s': %s: %v", e.URL, e.Reason, e.Wrapped)
	case e.StatusCode != 0:
		return fmt.Sprintf("connectivity error for '%s': HTTP %d: %s", e.URL, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("connectivity error for '%s': %s", e.URL, e.Reason)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Wrapped
}

// NewConnectivityError creates a connectivity error wrapping a transport failure
func NewConnectivityError(url, reason string, wrapped error) *ConnectivityError {
	return &ConnectivityError{
		URL:     url,
		Reason:  reason,
		Wrapped: wrapped,
	}
}

// NewStatusError creates a connectivity error for an unexpected HTTP status
func NewStatusError(url string, statusCode int, reason string) *ConnectivityError {
	return &ConnectivityError{
		URL:        url,
		StatusCode: statusCode,
		Reason:     reason,
	}
}

// NotFoundError reports a remote resource (space, folder, entry) that does not exist
type NotFoundError struct {
	Resource string
	URL      string
}

func (e *NotFoundError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s not found ('%s')", e.Resource, e.URL)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// NewNotFoundError creates a new not-found error
func NewNotFoundError(resource, url string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		URL:      url,
	}
}

// AuthError reports a token rejected by the provider (HTTP 401)
type AuthError struct {
	URL string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("invalid token for '%s'", e.URL)
}

func (e *AuthError) Unwrap() error {
	return ErrInvalidToken
}

// DeliveryError represents a failed webhook invocation
type DeliveryError struct {
	URL        string
	StatusCode int
	Wrapped    error
}

func (e *DeliveryError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("delivery to '%s' failed: %v", e.URL, e.Wrapped)
	}
	return fmt.Sprintf("delivery to '%s' failed with status %d", e.URL, e.StatusCode)
}

func (e *DeliveryError) Unwrap() error {
	return e.Wrapped
}

// IsConnectivityError reports whether err is, or wraps, a ConnectivityError
func IsConnectivityError(err error) bool {
	var target *ConnectivityError
	return errors.As(err, &target)
}

// IsNotFoundError reports whether err is, or wraps, a NotFoundError
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// CombineErrors combines multiple errors into a single error with formatted message
func CombineErrors(errs []error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}

	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	}

	messages := make([]string, 0, len(nonNil))
	for _, err := range nonNil {
		messages = append(messages, err.Error())
	}
	return &MultiError{Errors: nonNil, message: strings.Join(messages, "; ")}
}

// MultiError keeps every collected error reachable through errors.As
type MultiError struct {
	Errors  []error
	message string
}

func (e *MultiError) Error() string {
	return fmt.Sprintf("multiple errors occurred: [%s]", e.message)
}

func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// ErrorCollector helps collect multiple errors during processing
type ErrorCollector struct {
	errors []error
}

// Add adds an error to the collector
func (ec *ErrorCollector) Add(err error) {
	if err != nil {
		ec.errors = append(ec.errors, err)
	}
}

// HasErrors returns true if any errors were collected
func (ec *ErrorCollector) HasErrors() bool {
	return len(ec.errors) > 0
}

// Error returns a combined error from all collected errors
func (ec *ErrorCollector) Error() error {
	return CombineErrors(ec.errors)
}

// Errors returns all collected errors
func (ec *ErrorCollector) Errors() []error {
	return ec.errors
}
