package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"medsim/config"
	"medsim/controllers"
	"medsim/helpers"
	"medsim/routes"
	"medsim/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slog.Info("starting medsim...")

	ctx := context.Background()

	mongoClient, err := config.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("MongoDB is not reachable: %v", err)
	}
	db := mongoClient.Database(cfg.MongoDatabase)

	redisClient, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Fatalf("Redis is not reachable: %v", err)
	}

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = config.GenerateRandomKey()
		slog.Warn("JWT_SECRET not set, generated an ephemeral key")
	}
	helpers.SetJWTKey(jwtSecret)

	model := services.NewOpenRouterClient(cfg.ModelBaseURL, cfg.ModelAPIKey, cfg.ModelName, cfg.ModelTimeout)
	cache := services.NewResponseCache(services.NewRedisStore(redisClient))
	stats := services.NewRedisStats(redisClient)

	scenarioStore := services.NewMongoScenarioStore(db)
	progressStore := services.NewMongoProgressStore(db)
	decisionStore := services.NewMongoDecisionStore(db)
	userStore := services.NewMongoUserStore(db)

	nlp := services.NewNLPProcessor(cache, model, cfg.TermCacheTTL)
	engine := services.NewClinicalReasoningEngine(model, decisionStore)
	progressService := services.NewProgressService(progressStore, scenarioStore, engine, stats)
	predictor := services.NewPerformancePredictor(progressStore, scenarioStore, model, cfg.HistoryWindow)
	sessions := services.NewSessionService()

	r := gin.Default()
	api := r.Group("/api")
	routes.SetupRoutes(api,
		controllers.NewUserController(userStore),
		controllers.NewAIController(cache, model, nlp, engine, cfg.DialogueCacheTTL),
		controllers.NewProgressController(progressService, predictor),
		controllers.NewScenarioController(scenarioStore, stats),
		controllers.NewSessionController(sessions),
	)

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("server listening", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
