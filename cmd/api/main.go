package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"telecom-recon/internal/cache"
	"telecom-recon/internal/config"
	"telecom-recon/internal/handler"
	"telecom-recon/internal/middleware"
	"telecom-recon/internal/repository"
	"telecom-recon/internal/service"
	"telecom-recon/pkg/logger"
)

// @title Telecom Settlement Reconciliation API
// @version 1.0
// @description API for reconciling operator settlement records against internal sale records

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel)
	logger.GetLogger().Info("Starting Settlement Reconciliation Service")

	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	logger.GetLogger().Info("Database connection established")

	recordRepo := repository.NewOperatorRecordRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	resultStore := cache.NewResultStore()

	reconService := service.NewReconciliationService(recordRepo, saleRepo, linkRepo, resultStore, cfg.App.ChunkSize)
	commitService := service.NewCommitService(recordRepo, saleRepo, linkRepo, auditRepo, resultStore, cfg.App.CommitBatchSize)

	reconHandler := handler.NewReconciliationHandler(reconService, commitService)

	router := setupRouter(reconHandler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.GetLogger().WithField("address", addr).Info("Server starting")

	if err := router.Run(addr); err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to start server")
	}
}

func connectDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func setupRouter(reconHandler *handler.ReconciliationHandler) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		reconciliation := v1.Group("/reconciliation")
		{
			reconciliation.GET("/batches", reconHandler.Batches)
			reconciliation.POST("/manual-link", reconHandler.ManualLink)
			reconciliation.POST("/:label/run", reconHandler.Run)
			reconciliation.POST("/:label/reprocess", reconHandler.Reprocess)
			reconciliation.POST("/:label/commit", reconHandler.Commit)
			reconciliation.GET("/:label/divergences", reconHandler.Divergences)
			reconciliation.GET("/:label/gaps", reconHandler.Gaps)
		}
	}

	return router
}
