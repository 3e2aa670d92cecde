package server

import (
	"errors"
	"net/http"
	"strings"

	auditdomain "github.com/agencydesk/agencydesk/internal/audit/domain"
	"github.com/agencydesk/agencydesk/internal/authorization"
	organizationdomain "github.com/agencydesk/agencydesk/internal/organization/domain"
	reportdomain "github.com/agencydesk/agencydesk/internal/report/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not_found")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrTooManyRequests = errors.New("too_many_requests")
	ErrInternal        = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	case isValidationError(err):
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    code,
			Message: validationMessage(code),
		}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, organizationdomain.ErrForbidden),
		errors.Is(err, organizationdomain.ErrNoDashboardAccess),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, organizationdomain.ErrAlreadyMember),
		errors.Is(err, organizationdomain.ErrRequestDecided):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    err.Error(),
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, organizationdomain.ErrInvalidName),
		errors.Is(err, organizationdomain.ErrInvalidAgent),
		errors.Is(err, organizationdomain.ErrInvalidOrganization),
		errors.Is(err, organizationdomain.ErrInvalidEmail),
		errors.Is(err, organizationdomain.ErrInvalidRole),
		errors.Is(err, organizationdomain.ErrInvalidInvite),
		errors.Is(err, organizationdomain.ErrInvalidRequest),
		errors.Is(err, auditdomain.ErrInvalidOrganization),
		errors.Is(err, auditdomain.ErrInvalidAction),
		errors.Is(err, reportdomain.ErrInvalidOrganization),
		errors.Is(err, reportdomain.ErrInvalidStatusFilter):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, organizationdomain.ErrNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}

func validationMessage(code string) string {
	if code == "invalid_request" {
		return "invalid request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return "invalid " + strings.ReplaceAll(strings.TrimPrefix(code, "invalid_"), "_", " ")
	}
	return "invalid value"
}

// classifyErrorForLog feeds the request logger's error fields.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Code
	if code == "" {
		code = payload.Type
	}
	switch {
	case status >= 500:
		return "internal", code
	case status == http.StatusForbidden, status == http.StatusUnauthorized:
		return "auth", code
	case status == http.StatusTooManyRequests:
		return "rate_limit", code
	default:
		return "client", code
	}
}
