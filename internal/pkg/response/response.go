package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"venuebook/internal/modules/errclass"
)

// Outcome is the structured result rendered by the UI layer. Kind is stable;
// Message is informational and never localized here.
type Outcome struct {
	OK      bool   `json:"ok"`
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

const KindInternal = "internal"

func Success(c *gin.Context, statusCode int, kind string, data interface{}) {
	c.JSON(statusCode, Outcome{OK: true, Kind: kind, Data: data})
}

func SuccessWithDetails(c *gin.Context, statusCode int, kind string, data any, details any) {
	c.JSON(statusCode, Outcome{OK: true, Kind: kind, Data: data, Details: details})
}

func Error(c *gin.Context, statusCode int, kind string, message string) {
	c.JSON(statusCode, Outcome{OK: false, Kind: kind, Message: message})
}

func ErrorWithDetails(c *gin.Context, statusCode int, kind string, message string, details any) {
	c.JSON(statusCode, Outcome{OK: false, Kind: kind, Message: message, Details: details})
}

// FromError renders err according to its classification.
func FromError(c *gin.Context, err error) {
	cat := errclass.Classify(err)
	status, message := statusFor(cat, err)
	kind := string(cat)
	if status == http.StatusInternalServerError {
		kind = KindInternal
	}
	_ = c.Error(err)
	if cat == errclass.CategoryConflict && err.Error() != message {
		ErrorWithDetails(c, status, kind, message, err.Error())
		return
	}
	Error(c, status, kind, message)
}

func statusFor(cat errclass.Category, err error) (int, string) {
	switch cat {
	case errclass.CategoryValidation:
		return http.StatusBadRequest, err.Error()
	case errclass.CategoryConflict:
		return http.StatusConflict, errclass.ErrConflict.Error()
	case errclass.CategoryInvalidTransition:
		return http.StatusConflict, err.Error()
	case errclass.CategoryNotFound:
		return http.StatusNotFound, "reservation or resource not found"
	case errclass.CategoryAuth:
		return http.StatusUnauthorized, "session expired, sign in again"
	case errclass.CategoryPermission:
		return http.StatusForbidden, "access to this venue was denied"
	case errclass.CategoryTransient:
		if errors.Is(err, errclass.ErrTransient) {
			return http.StatusServiceUnavailable, "backend temporarily unavailable"
		}
	}
	return http.StatusInternalServerError, "internal server error"
}
