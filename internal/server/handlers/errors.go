package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fishfarm/internal/service/entries"
	"github.com/mamadbah2/fishfarm/internal/service/reporting"
	"github.com/mamadbah2/fishfarm/pkg/clients/farmapi"
)

// respondError maps service errors onto HTTP responses. Unknown errors are
// treated as backend failures so the console keeps the entered values.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		fields entries.FieldErrors
		apiErr *farmapi.APIError
	)
	switch {
	case errors.As(err, &fields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "fields": fields})
	case errors.Is(err, entries.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest && len(apiErr.Fields) > 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErr.Message, "fields": apiErr.Fields})
	case errors.Is(err, farmapi.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "backend rejected the credentials"})
	case errors.Is(err, farmapi.ErrNotFound), errors.Is(err, reporting.ErrPondNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, reporting.ErrSnapshotsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report snapshots are not configured"})
	default:
		logger.Error("backend request failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusBadGateway, gin.H{"error": backendMessage(err)})
	}
}

func backendMessage(err error) string {
	var apiErr *farmapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "the farm backend is unavailable, please try again"
}
