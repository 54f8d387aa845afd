package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"medsim/services"
)

var validate = validator.New()

type ProgressController struct {
	progress  *services.ProgressService
	predictor *services.PerformancePredictor
}

func NewProgressController(progress *services.ProgressService, predictor *services.PerformancePredictor) *ProgressController {
	return &ProgressController{progress: progress, predictor: predictor}
}

type attemptRequest struct {
	UserID     string   `json:"userId" validate:"required"`
	ScenarioID string   `json:"scenarioId" validate:"required"`
	Score      float64  `json:"score" validate:"gte=0,lte=100"`
	Decisions  []string `json:"decisions" validate:"required,min=1"`
}

// RecordAttempt evaluates and persists one completed attempt.
func (pc *ProgressController) RecordAttempt() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body attemptRequest
		if err := c.BindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attempt payload"})
			return
		}
		if err := validate.Struct(body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		id, stats, err := pc.progress.RecordAttempt(c.Request.Context(), body.UserID, body.ScenarioID, body.Score, body.Decisions)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": id, "stats": stats})
	}
}

// GetProgress returns all progress records for a user, newest first.
func (pc *ProgressController) GetProgress() gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := pc.progress.History(c.Request.Context(), c.Param("userId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

// Predict forecasts the user's performance on a target scenario.
func (pc *ProgressController) Predict() gin.HandlerFunc {
	return func(c *gin.Context) {
		forecast, err := pc.predictor.PredictPerformance(c.Request.Context(), c.Param("userId"), c.Param("scenarioId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, forecast)
	}
}
