package handler

import (
	"errors"
	"net/http"

	"mediahub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

// respondError maps the service error taxonomy onto status codes:
// validation/unsupported-kind 400, not-found 404, conflict 409, upstream
// fetch 502, everything else 500.
func respondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var kindErr *service.UnsupportedKindError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": validationErr.Fields})
	case errors.As(err, &kindErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": kindErr.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUpstreamFetch):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
