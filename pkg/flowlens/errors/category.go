// Package errors classifies backend and configuration failures.
//
// Remote backends are called exactly once per request, so a category never
// triggers a retry. It is recorded on the usage record and in logs so that
// operators can tell a flaky backend from a misconfigured one:
//   - Transient: rate limits, timeouts, server errors
//   - Permanent: bad credentials, unknown endpoints, invalid configuration
//   - Malformed: the backend answered, but not with something parseable
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Category represents how an error should be reported.
type Category int

const (
	// CategoryTransient indicates the same request may succeed later.
	CategoryTransient Category = iota

	// CategoryPermanent indicates the request will keep failing until
	// configuration changes.
	CategoryPermanent

	// CategoryMalformed indicates the backend replied with an unusable body.
	CategoryMalformed
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	case CategoryMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be reported.
	Category Category

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s)", e.Context, e.Err, e.Category)
	}
	return fmt.Sprintf("%s (category: %s)", e.Err, e.Category)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

func categorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{
		Err:      err,
		Category: category,
		Context:  context,
	}
}

// Transient marks err as transient, for failures such as a refused
// connection that carry no category of their own.
func Transient(err error, context string) *CategorizedError {
	return categorized(err, CategoryTransient, context)
}

// Permanent marks err as permanent.
func Permanent(err error, context string) *CategorizedError {
	return categorized(err, CategoryPermanent, context)
}

// Categorize determines how an error should be reported.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent // shouldn't happen, fail safe
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	var credErr *CredentialError
	if errors.As(err, &credErr) {
		return CategoryPermanent
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case 408, 429, 503, 504:
			return CategoryTransient
		case 401, 403:
			return CategoryPermanent
		default:
			if httpErr.StatusCode >= 500 {
				return CategoryTransient // server errors are often transient
			}
			return CategoryPermanent
		}
	}

	var jsonErr *JSONParseError
	if errors.As(err, &jsonErr) {
		return CategoryMalformed
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return CategoryPermanent
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return CategoryTransient
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}

	// Unknown errors are permanent (fail safe)
	return CategoryPermanent
}

// IsTransient reports whether the same request may succeed later.
func IsTransient(err error) bool {
	return Categorize(err) == CategoryTransient
}

// IsMalformed reports whether the backend replied with an unusable body.
func IsMalformed(err error) bool {
	return Categorize(err) == CategoryMalformed
}
