package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/webtrainer-in/ExpenseTracker/internal/errors"
	"github.com/webtrainer-in/ExpenseTracker/internal/logger"
	"github.com/webtrainer-in/ExpenseTracker/internal/middleware"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
	"github.com/webtrainer-in/ExpenseTracker/internal/services"
	"github.com/webtrainer-in/ExpenseTracker/internal/uuid"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// getActor returns the authenticated caller with its role.
func getActor(c *gin.Context) (services.Actor, error) {
	userID, err := getUserID(c)
	if err != nil {
		return services.Actor{}, err
	}
	role, _ := c.Get(middleware.ContextRole)
	r, _ := role.(models.Role)
	if r == "" {
		r = models.RoleMember
	}
	return services.Actor{UserID: userID, Role: r}, nil
}

// parsePathID reads a UUID path parameter.
func parsePathID(c *gin.Context, param string) (string, error) {
	id := c.Param(param)
	if !uuid.IsValid(id) {
		return "", apperrors.InvalidField(param, "Invalid "+param)
	}
	return id, nil
}

// parseFlexibleTime accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// parseOptionalDate parses s when present. A nil s yields the zero time.
func parseOptionalDate(s *string) (time.Time, error) {
	if s == nil || *s == "" {
		return time.Time{}, nil
	}
	t, err := parseFlexibleTime(*s)
	if err != nil {
		return time.Time{}, apperrors.InvalidField("date", "invalid date format, use RFC3339 or YYYY-MM-DD")
	}
	return t, nil
}

// parseTransactionFilter reads type, from_date and to_date query parameters.
func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("type"); v != "" {
		typ := models.TransactionType(v)
		if !typ.IsValid() {
			return filter, apperrors.ErrInvalidTransactionType
		}
		filter.Type = &typ
	}

	from, to, err := parseDateRange(c)
	if err != nil {
		return filter, err
	}
	filter.FromDate, filter.ToDate = from, to
	return filter, nil
}

func parseDateRange(c *gin.Context) (from, to *time.Time, err error) {
	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return nil, nil, apperrors.InvalidField("from_date", "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		from = &t
	}
	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return nil, nil, apperrors.InvalidField("to_date", "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		// A bare date covers the whole day.
		if len(v) == len(time.DateOnly) {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		to = &t
	}
	return from, to, nil
}

// bindError reports a request binding failure as INVALID_INPUT.
func bindError(err error) *apperrors.AppError {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// respondWithError writes a consistent JSON error response. AppErrors keep
// their status, code, message and details. Anything else is logged and
// reported as an internal error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, middleware.ErrorBody(appErr))
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, middleware.ErrorBody(apperrors.ErrInternalServer))
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
