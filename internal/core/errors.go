// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenRevoked  = errors.New("token revoked")
	ErrTokenInvalid  = errors.New("token invalid")
	ErrPaymentNeeded = errors.New("subscription required")
)

// Account and session errors. Each is terminal for the operation that
// raised it and is passed through to the caller unmodified.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrDuplicateIdentity = errors.New("identity already registered")
	ErrWeakCredential    = errors.New("credential does not satisfy policy")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrAccountRejected   = errors.New("account rejected")
	ErrPendingApproval   = errors.New("account pending approval")
	ErrSessionError      = errors.New("session error")
	ErrMalformedAccount  = errors.New("malformed account record")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
	Category   string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithCategory tags the error with the user-facing message category.
func (e *AppError) WithCategory(category string) *AppError {
	e.Category = category
	return e
}

func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		fmt.Sprintf("%s already exists", field),
		http.StatusConflict,
		"DUPLICATE",
	)
}

func ValidationError(message string) *AppError {
	return NewAppError(
		ErrInvalidInput,
		message,
		http.StatusBadRequest,
		"VALIDATION_ERROR",
	)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(
		ErrUnauthorized,
		message,
		http.StatusUnauthorized,
		"UNAUTHORIZED",
	)
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func TokenExpiredError() *AppError {
	return NewAppError(
		ErrTokenExpired,
		"token has expired",
		http.StatusUnauthorized,
		"TOKEN_EXPIRED",
	)
}

func TokenRevokedError() *AppError {
	return NewAppError(
		ErrTokenRevoked,
		"token has been revoked",
		http.StatusUnauthorized,
		"TOKEN_REVOKED",
	)
}

func TokenInvalidError() *AppError {
	return NewAppError(
		ErrTokenInvalid,
		"token is invalid",
		http.StatusUnauthorized,
		"TOKEN_INVALID",
	)
}

func InternalError(err error) *AppError {
	return NewAppError(
		err,
		"internal server error",
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
	)
}

// DomainError translates the account and session sentinels into an
// AppError with a stable code. Errors it does not recognise become
// internal errors.
func DomainError(err error) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, ErrInvalidCredential):
		return NewAppError(
			err,
			"invalid email or password",
			http.StatusUnauthorized,
			"INVALID_CREDENTIAL",
		)
	case errors.Is(err, ErrPendingApproval):
		return NewAppError(
			err,
			"account is awaiting admin verification",
			http.StatusForbidden,
			"PENDING_APPROVAL",
		)
	case errors.Is(err, ErrAccountRejected):
		return NewAppError(
			err,
			"account has been rejected, contact the administrator",
			http.StatusForbidden,
			"ACCOUNT_REJECTED",
		)
	case errors.Is(err, ErrAccountNotFound):
		return NewAppError(
			err,
			"no account is linked to this identity",
			http.StatusUnauthorized,
			"ACCOUNT_NOT_FOUND",
		)
	case errors.Is(err, ErrDuplicateIdentity):
		return NewAppError(
			err,
			"email is already registered",
			http.StatusConflict,
			"DUPLICATE_IDENTITY",
		)
	case errors.Is(err, ErrWeakCredential):
		return NewAppError(
			err,
			"password does not satisfy the password policy",
			http.StatusBadRequest,
			"WEAK_CREDENTIAL",
		)
	case errors.Is(err, ErrInvalidRole):
		return NewAppError(
			err,
			"role must be teacher or student",
			http.StatusBadRequest,
			"INVALID_ROLE",
		)
	case errors.Is(err, ErrInvalidTransition):
		return NewAppError(
			err,
			"account status cannot change this way",
			http.StatusConflict,
			"INVALID_TRANSITION",
		)
	case errors.Is(err, ErrInvalidInput):
		return NewAppError(err, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
	case errors.Is(err, ErrStoreUnavailable):
		return NewAppError(
			err,
			"service temporarily unavailable",
			http.StatusServiceUnavailable,
			"STORE_UNAVAILABLE",
		)
	case errors.Is(err, ErrSessionError):
		return NewAppError(
			err,
			"session could not be completed",
			http.StatusInternalServerError,
			"SESSION_ERROR",
		)
	case errors.Is(err, ErrMalformedAccount):
		return NewAppError(
			err,
			"account record is corrupt",
			http.StatusInternalServerError,
			"MALFORMED_ACCOUNT",
		)
	case errors.Is(err, ErrPaymentNeeded):
		return NewAppError(
			err,
			"an active subscription is required",
			http.StatusPaymentRequired,
			"SUBSCRIPTION_REQUIRED",
		)
	case errors.Is(err, ErrTokenExpired):
		return TokenExpiredError()
	case errors.Is(err, ErrTokenRevoked):
		return TokenRevokedError()
	case errors.Is(err, ErrTokenInvalid):
		return TokenInvalidError()
	case errors.Is(err, ErrForbidden):
		return ForbiddenError("")
	case errors.Is(err, ErrUnauthorized):
		return UnauthorizedError("")
	case errors.Is(err, ErrNotFound):
		return NewAppError(err, "resource not found", http.StatusNotFound, "NOT_FOUND")
	case errors.Is(err, ErrDuplicateKey):
		return NewAppError(err, "resource already exists", http.StatusConflict, "DUPLICATE")
	default:
		return InternalError(err)
	}
}
