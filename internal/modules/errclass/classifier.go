package errclass

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryNone              Category = ""
	CategoryValidation        Category = "validation"
	CategoryConflict          Category = "conflict"
	CategoryNotFound          Category = "not_found"
	CategoryInvalidTransition Category = "invalid_transition"
	CategoryAuth              Category = "auth"
	CategoryPermission        Category = "permission"
	CategoryTransient         Category = "transient"
)

// Retryable reports whether an automatic retry may change the outcome.
func (c Category) Retryable() bool {
	return c == CategoryTransient
}

var authCodes = map[string]struct{}{
	"28000":                   {}, // invalid_authorization_specification
	"28P01":                   {}, // invalid_password
	"PGRST301":                {},
	"PGRST302":                {},
	"401":                     {},
	"bad_jwt":                 {},
	"invalid_jwt":             {},
	"jwt_expired":             {},
	"session_expired":         {},
	"session_not_found":       {},
	"refresh_token_not_found": {},
	"refresh_token_revoked":   {},
}

var permissionCodes = map[string]struct{}{
	"42501":                  {}, // insufficient_privilege
	"403":                    {},
	"insufficient_privilege": {},
}

var validationCodes = map[string]struct{}{
	"22007": {}, // invalid_datetime_format
	"22008": {}, // datetime_field_overflow
	"22P02": {}, // invalid_text_representation
	"23502": {}, // not_null_violation
	"23503": {}, // foreign_key_violation
	"23514": {}, // check_violation
}

var conflictCodes = map[string]struct{}{
	"23P01": {}, // exclusion_violation on the no-overlap constraint
}

var authSignatures = []string{
	"jwt expired",
	"token is expired",
	"invalid jwt",
	"session expired",
	"session not found",
	"not authenticated",
	"refresh token",
}

var permissionSignatures = []string{
	"row-level security",
	"row level security",
	"insufficient privilege",
	"permission denied",
}

// Classify decides what a failure means for the caller: whether it may be
// retried, whether the session must end or whether membership is revoked.
// Unknown errors are transient.
func Classify(err error) Category {
	if err == nil {
		return CategoryNone
	}

	switch {
	case errors.Is(err, ErrAuth):
		return CategoryAuth
	case errors.Is(err, ErrPermission):
		return CategoryPermission
	case errors.Is(err, ErrValidation):
		return CategoryValidation
	case errors.Is(err, ErrConflict):
		return CategoryConflict
	case errors.Is(err, ErrInvalidTransition):
		return CategoryInvalidTransition
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrTransient):
		return CategoryTransient
	}

	if errors.Is(err, jwt.ErrTokenExpired) ||
		errors.Is(err, jwt.ErrTokenMalformed) ||
		errors.Is(err, jwt.ErrTokenSignatureInvalid) ||
		errors.Is(err, jwt.ErrTokenNotValidYet) ||
		errors.Is(err, jwt.ErrTokenUnverifiable) {
		return CategoryAuth
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if c := byCode(pgErr.Code); c != CategoryNone {
			return c
		}
		return byMessage(pgErr.Message + " " + pgErr.Detail)
	}

	var be *BackendError
	if errors.As(err, &be) {
		if c := byCode(be.Code); c != CategoryNone {
			return c
		}
		return byMessage(be.Message + " " + be.Details)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}

	return byMessage(err.Error())
}

func byCode(code string) Category {
	code = strings.TrimSpace(code)
	if code == "" {
		return CategoryNone
	}
	if _, ok := authCodes[code]; ok {
		return CategoryAuth
	}
	if _, ok := permissionCodes[code]; ok {
		return CategoryPermission
	}
	if _, ok := conflictCodes[code]; ok {
		return CategoryConflict
	}
	if _, ok := validationCodes[code]; ok {
		return CategoryValidation
	}
	return CategoryNone
}

func byMessage(msg string) Category {
	msg = strings.ToLower(msg)
	for _, s := range authSignatures {
		if strings.Contains(msg, s) {
			return CategoryAuth
		}
	}
	for _, s := range permissionSignatures {
		if strings.Contains(msg, s) {
			return CategoryPermission
		}
	}
	return CategoryTransient
}

// Normalize wraps err with the sentinel of its category so callers further up
// can rely on errors.Is regardless of which driver produced it.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	var sentinel error
	switch Classify(err) {
	case CategoryAuth:
		sentinel = ErrAuth
	case CategoryPermission:
		sentinel = ErrPermission
	case CategoryValidation:
		sentinel = ErrValidation
	case CategoryConflict:
		sentinel = ErrConflict
	case CategoryNotFound:
		sentinel = ErrNotFound
	case CategoryInvalidTransition:
		sentinel = ErrInvalidTransition
	default:
		sentinel = ErrTransient
	}
	if errors.Is(err, sentinel) {
		return err
	}
	return &classified{sentinel: sentinel, err: err}
}

type classified struct {
	sentinel error
	err      error
}

func (c *classified) Error() string   { return c.sentinel.Error() + ": " + c.err.Error() }
func (c *classified) Unwrap() []error { return []error{c.sentinel, c.err} }
