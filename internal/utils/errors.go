package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type AppError struct {
	Code    string
	Message string
	Details []string `json:",omitempty"` // Validator messages, if any
	Origin  error    `json:"-"`          // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

func (appErr *AppError) Unwrap() error {
	return appErr.Origin
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrDuplicate    = "DUPLICATE"
	ErrInvalidInput = "INVALID_INPUT"

	// Authentication/Authorization errors
	ErrUnauthorized = "UNAUTHORIZED"
	ErrForbidden    = "FORBIDDEN" // User is authenticated but doesn't have permission
	ErrInvalidToken = "INVALID_TOKEN"

	// User-specific errors
	ErrUserNotFound       = "USER_NOT_FOUND"
	ErrUserAlreadyExists  = "USER_ALREADY_EXISTS"
	ErrInvalidCredentials = "INVALID_CREDENTIALS"

	// Debate/argument errors
	ErrDebateNotFound      = "DEBATE_NOT_FOUND"
	ErrArgumentNotFound    = "ARGUMENT_NOT_FOUND"
	ErrValidation          = "VALIDATION_FAILED"
	ErrInvalidParent       = "INVALID_PARENT"
	ErrQualityTooLow       = "QUALITY_TOO_LOW"
	ErrAnalysisUnavailable = "ANALYSIS_UNAVAILABLE"

	// Rating errors. These are expected rejections, not failures.
	ErrSelfRating   = "SELF_RATING"
	ErrAlreadyRated = "ALREADY_RATED"

	// Actor communication errors
	ErrActorTimeout    = "ACTOR_TIMEOUT"
	ErrActorNotFound   = "ACTOR_NOT_FOUND"
	ErrMessageRejected = "MESSAGE_REJECTED"

	// Rate limiting
	ErrTooManyRequests = "TOO_MANY_REQUESTS"

	ErrDatabase = "database_error"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

// NewValidationError wraps the messages produced by the validation package.
func NewValidationError(messages []string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: "Validation failed: " + strings.Join(messages, "; "),
		Details: messages,
	}
}

func NewUserNotFoundError(userId string) *AppError {
	return &AppError{
		Code:    ErrUserNotFound,
		Message: "User not found: " + userId,
	}
}

func NewUnauthorizedError(reason string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "Unauthorized: " + reason,
	}
}

func NewDebateNotFoundError(debateID string) *AppError {
	return &AppError{
		Code:    ErrDebateNotFound,
		Message: "Debate not found: " + debateID,
	}
}

func NewArgumentNotFoundError(argumentID string) *AppError {
	return &AppError{
		Code:    ErrArgumentNotFound,
		Message: "Argument not found: " + argumentID,
	}
}

func NewSelfRatingError() *AppError {
	return &AppError{
		Code:    ErrSelfRating,
		Message: "You cannot rate your own argument",
	}
}

func NewAlreadyRatedError(ratingType string) *AppError {
	return &AppError{
		Code:    ErrAlreadyRated,
		Message: fmt.Sprintf("You have already rated this argument as %s", ratingType),
	}
}

func NewRateLimitedError(action string) *AppError {
	return &AppError{
		Code:    ErrTooManyRequests,
		Message: "Too many requests for " + action + ", please try again later",
	}
}

func NewActorTimeoutError(actorName string) *AppError {
	return &AppError{
		Code:    ErrActorTimeout,
		Message: "Actor communication timeout: " + actorName,
	}
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Helper method to check if an error is related to authentication
func IsAuthError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrUnauthorized ||
			appErr.Code == ErrForbidden ||
			appErr.Code == ErrInvalidToken
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound, ErrUserNotFound, ErrDebateNotFound, ErrArgumentNotFound, ErrActorNotFound:
		return http.StatusNotFound
	case ErrInvalidInput, ErrInvalidCredentials, ErrValidation, ErrInvalidParent:
		return http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidToken:
		return http.StatusUnauthorized
	case ErrForbidden, ErrSelfRating:
		return http.StatusForbidden
	case ErrDuplicate, ErrUserAlreadyExists, ErrAlreadyRated:
		return http.StatusConflict
	case ErrQualityTooLow:
		return http.StatusUnprocessableEntity
	case ErrTooManyRequests:
		return http.StatusTooManyRequests
	case ErrAnalysisUnavailable:
		return http.StatusServiceUnavailable
	case ErrDatabase, ErrActorTimeout, ErrMessageRejected:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
