// Package response renders the uniform API envelope. Domain failures are
// part of the envelope ({success:false, message}) with HTTP 200; only
// transport-level failures use non-2xx status codes.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivio/service-rental/internal/domain"
)

// OK writes a success envelope, merging the payload fields alongside
// "success": true.
func OK(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Fail writes a domain-failure envelope with HTTP 200.
func Fail(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": false, "message": message})
}

// BadRequest rejects a malformed request at the transport level.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

// Unauthorized rejects an unauthenticated request at the transport level.
func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
}

// Error renders any service error. Expected domain errors become envelope
// failures; everything else is an infrastructure failure and surfaces as 500.
func Error(c *gin.Context, err error) {
	var (
		validationErr   *domain.ValidationError
		notFoundErr     *domain.NotFoundError
		forbiddenErr    *domain.ForbiddenError
		conflictErr     *domain.ConflictError
		invalidStateErr *domain.InvalidStateError
	)

	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &notFoundErr),
		errors.As(err, &forbiddenErr),
		errors.As(err, &conflictErr),
		errors.As(err, &invalidStateErr):
		Fail(c, err.Error())
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "internal server error",
		})
	}
}
