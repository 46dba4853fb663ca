package server

import (
	"context"
	"log"
	"net/http"

	"codearena/configs"
	"codearena/internal/dbs"
	"codearena/internal/handlers"
	"codearena/internal/logger"
	"codearena/internal/middlewares"
	"codearena/internal/repositories"
	"codearena/internal/services"
	"codearena/internal/workerpool"

	"github.com/gin-gonic/gin"
)

const submissionStream = "contest_submissions"

func StartGinServer() {
	logger.InitLogger()
	defer logger.SyncLogger()

	config := configs.LoadConfig()

	db, err := dbs.Init(config)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := dbs.InitRedis(ctx, config.RedisAddr); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer dbs.CloseRedis()

	cache := services.NewRedisCache(dbs.RedisClient)

	contestRepo := repositories.NewContestRepository(db)
	submissionRepo := repositories.NewSubmissionRepository(db)
	problemRepo := repositories.NewProblemRepository(db, cache)
	userRepo := repositories.NewUserRepository(db, cache)

	oracle := services.NewOracleClient(config.OracleURL, config.OracleToken,
		config.OracleAcceptedStatus, config.OracleTLEStatus, config.OracleTimeout)
	judgeService := services.NewJudgeService(oracle)
	contestService := services.NewContestService(contestRepo, submissionRepo, problemRepo, judgeService)
	tokenService := services.NewTokenService(config.JWTSecret)

	statsPool := workerpool.NewStatsWorkerPool(config.NumberOfWorkers, dbs.RedisClient, submissionStream, "scoreboard-stats")
	if err := statsPool.Start(ctx); err != nil {
		logger.Log.Error("Failed starting stats worker pool")
		log.Fatalf("failed to start stats worker pool: %v", err)
	}

	router := gin.New()
	router.Use(middlewares.ErrorHandlerMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	authHandler := handlers.NewAuthHandler(userRepo, tokenService)
	authHandler.RegisterRoutes(router)

	contestHandler := handlers.NewContestHandler(contestService, contestRepo, submissionRepo, dbs.RedisClient, submissionStream)
	contestHandler.RegisterRoutes(router, middlewares.AuthMiddleware(tokenService))

	port := ":" + config.ServerPort
	log.Printf("Starting server on port %s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
