package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medsim/models"
	"medsim/services"
)

type ScenarioController struct {
	scenarios services.ScenarioStore
	stats     services.StatsAggregator
}

func NewScenarioController(scenarios services.ScenarioStore, stats services.StatsAggregator) *ScenarioController {
	return &ScenarioController{scenarios: scenarios, stats: stats}
}

func (sc *ScenarioController) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		scenarios, err := sc.scenarios.List(c.Request.Context(), c.Query("difficulty"), c.Query("category"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, scenarios)
	}
}

func (sc *ScenarioController) GetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		scenario, err := sc.scenarios.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, scenario)
	}
}

func (sc *ScenarioController) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var scenario models.Scenario
		if err := c.BindJSON(&scenario); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scenario payload"})
			return
		}
		if err := validate.Struct(scenario); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := sc.scenarios.Insert(c.Request.Context(), &scenario); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, scenario)
	}
}

// Stats returns the aggregated rollup for one scenario.
func (sc *ScenarioController) Stats() gin.HandlerFunc {
	return func(c *gin.Context) {
		scenarioID := c.Param("id")
		if _, err := sc.scenarios.GetByID(c.Request.Context(), scenarioID); err != nil {
			writeError(c, err)
			return
		}
		stats, err := sc.stats.Get(c.Request.Context(), scenarioID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
