package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/dbos-inc/dbos-transact-golang/dbos"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"dashchat/config"
	"dashchat/conversation"
	"dashchat/handlers"
	"dashchat/services"
	"dashchat/store"
	"dashchat/workflows"
)

func main() {
	// Load .env if present, then read configuration
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Select the history store backend
	var historyStore store.Store
	var dbosCtx dbos.DBOSContext
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatalf("Failed to ping database: %v", err)
		}
		historyStore, err = store.NewPostgresStore(context.Background(), db)
		if err != nil {
			log.Fatalf("Failed to initialize Postgres store: %v", err)
		}
		log.Println("Using PostgreSQL history store")
	} else {
		historyStore = store.NewFileStore(cfg.HistoryFilePath)
		log.Printf("Using file history store at %s", cfg.HistoryFilePath)
	}

	// Provider clients and flows
	chatClient := services.NewChatClient(cfg.DashScopeAPIKey, "")
	imageClient := services.NewImageClient(cfg.DashScopeAPIKey, "", cfg.PollInterval, cfg.MaxPollRetries)
	manager := conversation.NewManager(historyStore)
	chatWorkflows := workflows.NewChatWorkflows(manager, chatClient, imageClient)

	// Durable workflows need Postgres; with the file store the flows run
	// in process instead.
	if cfg.DatabaseURL != "" {
		ctx, err := dbos.NewDBOSContext(context.Background(), dbos.Config{
			DatabaseURL: cfg.DatabaseURL,
			AppName:     "dashchat",
		})
		if err != nil {
			log.Fatalf("Failed to initialize DBOS: %v", err)
		}

		// Workflows must be registered before Launch
		dbos.RegisterWorkflow(ctx, chatWorkflows.SendMessageWorkflow)
		dbos.RegisterWorkflow(ctx, chatWorkflows.GenerateImageWorkflow)

		if err := dbos.Launch(ctx); err != nil {
			log.Fatalf("Failed to launch DBOS: %v", err)
		}
		defer dbos.Shutdown(ctx, 5*time.Second)
		dbosCtx = ctx
		log.Println("DBOS initialized - durable workflows enabled")
	}

	// Handlers
	chatHandler := handlers.NewChatHandler(chatWorkflows, dbosCtx)
	historyHandler := handlers.NewHistoryHandler(historyStore)
	proxyHandler := handlers.NewProxyHandler("")

	// Setup Gin router
	router := gin.Default()

	// Enable CORS for local development
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	handlers.RegisterRoutes(router, chatHandler, historyHandler, proxyHandler)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Serve the browser UI
	router.Static("/static", "./static")
	router.GET("/", func(c *gin.Context) {
		c.File("./static/index.html")
	})

	log.Printf("Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
