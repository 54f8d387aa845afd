package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"medsim/models"
)

// writeError maps sentinel errors to HTTP statuses. Server-side failures get
// a generic message; details go to the log only.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrScenarioNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Scenario not found"})
	case errors.Is(err, models.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
