package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"medsim/models"
	"medsim/services"
)

type AIController struct {
	cache       *services.ResponseCache
	model       services.ModelClient
	nlp         *services.NLPProcessor
	engine      *services.ClinicalReasoningEngine
	dialogueTTL time.Duration
}

func NewAIController(cache *services.ResponseCache, model services.ModelClient, nlp *services.NLPProcessor, engine *services.ClinicalReasoningEngine, dialogueTTL time.Duration) *AIController {
	return &AIController{cache: cache, model: model, nlp: nlp, engine: engine, dialogueTTL: dialogueTTL}
}

// Dialogue answers a patient-dialogue prompt, short-circuiting to the cache
// for identical prompt/context/history within the TTL window.
func (ac *AIController) Dialogue() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Prompt  string               `json:"prompt"`
			Context string               `json:"context"`
			History []models.ChatMessage `json:"history"`
		}
		if err := c.BindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dialogue payload"})
			return
		}
		if body.Prompt == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
			return
		}

		historyJSON, err := json.Marshal(body.History)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid history"})
			return
		}
		key := services.CacheKey("dialogue", body.Prompt, body.Context, string(historyJSON))

		messages := make([]services.ModelMessage, 0, len(body.History)+2)
		if body.Context != "" {
			messages = append(messages, services.ModelMessage{Role: "system", Content: body.Context})
		}
		for _, msg := range body.History {
			role := "user"
			if msg.Sender == models.SenderAI {
				role = "assistant"
			}
			messages = append(messages, services.ModelMessage{Role: role, Content: msg.Content})
		}
		messages = append(messages, services.ModelMessage{Role: "user", Content: body.Prompt})

		reply, err := ac.cache.GetOrCompute(c.Request.Context(), key, ac.dialogueTTL, func(ctx context.Context) (string, error) {
			return ac.model.Chat(ctx, messages)
		})
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": reply})
	}
}

// Feedback compares decisions against a supplied reference path and returns
// the model-authored feedback text.
func (ac *AIController) Feedback() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Decisions   []string `json:"decisions"`
			CorrectPath []string `json:"correctPath"`
		}
		if err := c.BindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feedback payload"})
			return
		}
		if len(body.Decisions) == 0 || len(body.CorrectPath) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "decisions and correctPath are required"})
			return
		}

		feedback, err := ac.engine.FeedbackText(c.Request.Context(), body.Decisions, body.CorrectPath)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"feedback": feedback})
	}
}

// Analyze runs the NLP interaction analysis over a conversation.
func (ac *AIController) Analyze() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Messages []models.ChatMessage `json:"messages"`
		}
		if err := c.BindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid analyze payload"})
			return
		}

		analysis, err := ac.nlp.AnalyzePatientInteraction(c.Request.Context(), body.Messages)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, analysis)
	}
}
