package main

import (
	"log"
	"math/rand"
	"time"

	"tagmode/config"
	"tagmode/handlers"
	"tagmode/middleware"
	"tagmode/models"
	"tagmode/routes"
	"tagmode/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.Player{},
		&models.SafeZone{},
		&models.Sabotage{},
		&models.Alliance{},
		&models.Bounty{},
		&models.Event{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	// Initialize services
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	eventService := services.NewEventService(db)
	authService := services.NewAuthService(db, cfg.JWTSecret)
	gameService := services.NewGameService(db, redisClient, eventService, rng)
	sabotageService := services.NewSabotageService(db, eventService)
	locationService := services.NewLocationService(db, sabotageService, eventService)
	bountyService := services.NewBountyService(db, eventService)
	allianceService := services.NewAllianceService(db, eventService)

	// Initialize WebSocket hub
	hub := services.NewHub(gameService)
	go hub.Run()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	gameHandler := handlers.NewGameHandler(gameService, hub)
	locationHandler := handlers.NewLocationHandler(locationService, hub)
	sabotageHandler := handlers.NewSabotageHandler(sabotageService, hub)
	bountyHandler := handlers.NewBountyHandler(bountyService, hub)
	allianceHandler := handlers.NewAllianceHandler(allianceService, hub)
	eventHandler := handlers.NewEventHandler(eventService)

	// Setup Gin router
	router := gin.Default()
	router.Use(middleware.CORS())

	routes.SetupRoutes(
		router,
		authHandler,
		gameHandler,
		locationHandler,
		sabotageHandler,
		bountyHandler,
		allianceHandler,
		eventHandler,
		hub,
		gameService,
		cfg.JWTSecret,
	)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
