package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medsim/services"
)

type SessionController struct {
	sessions *services.SessionService
}

func NewSessionController(sessions *services.SessionService) *SessionController {
	return &SessionController{sessions: sessions}
}

// Create starts a session for a loaded patient, replacing any prior session
// for the same patient.
func (sc *SessionController) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			PatientID string `json:"patient_id"`
		}
		if err := c.BindJSON(&body); err != nil || body.PatientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "patient_id is required"})
			return
		}
		c.JSON(http.StatusCreated, sc.sessions.Create(body.PatientID))
	}
}

func (sc *SessionController) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := sc.sessions.Get(c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func (sc *SessionController) End() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sc.sessions.End(c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "session ended"})
	}
}
