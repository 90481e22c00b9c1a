package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bako110/Anniv/internal/apperrors"
	"github.com/bako110/Anniv/internal/helpers"
	"github.com/bako110/Anniv/internal/models"
	"github.com/gin-gonic/gin"
)

// respondError writes the error envelope. Unexpected errors are attached to
// the context for ErrorHandler to log and reach the client only as a generic message.
func respondError(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)
	requestID := c.GetString("request_id")

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, models.ApiResponse{
			Success:   false,
			Error:     "internal server error",
			RequestID: requestID,
		})
		return
	}

	c.AbortWithStatusJSON(status, models.ApiResponse{
		Success:   false,
		Error:     err.Error(),
		Field:     apperrors.FieldOf(err),
		RequestID: requestID,
	})
}

func respondOK(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, models.SuccessResponse(data, message))
}

func parseIDParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError(name, name+" must be a positive integer")
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(name, name+" must be an integer")
	}
	return n, nil
}

func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.NewValidationError("", "invalid request payload: "+err.Error())
	}
	return nil
}

// principalID returns the authenticated caller or writes a 401.
func principalID(c *gin.Context) (int64, bool) {
	p, ok := helpers.CurrentPrincipal(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return 0, false
	}
	return p.UserID, true
}

// optionalPrincipalID is nil for anonymous callers.
func optionalPrincipalID(c *gin.Context) *int64 {
	p, ok := helpers.CurrentPrincipal(c)
	if !ok {
		return nil
	}
	id := p.UserID
	return &id
}
