package routes

import (
	"log"
	"net/http"
	"strconv"

	"tagmode/handlers"
	"tagmode/middleware"
	"tagmode/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	gameHandler *handlers.GameHandler,
	locationHandler *handlers.LocationHandler,
	sabotageHandler *handlers.SabotageHandler,
	bountyHandler *handlers.BountyHandler,
	allianceHandler *handlers.AllianceHandler,
	eventHandler *handlers.EventHandler,
	hub *services.Hub,
	gameService *services.GameService,
	jwtSecret string,
) {
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			protected.GET("/auth/profile", authHandler.GetProfile)

			games := protected.Group("/games")
			{
				games.POST("", gameHandler.CreateGame)
				games.GET("/:id", gameHandler.GetGame)
				games.POST("/:id/start", gameHandler.StartGame)
				games.POST("/:id/end", gameHandler.EndGame)
				games.POST("/:id/join", gameHandler.JoinGame)
				games.POST("/:id/leave", gameHandler.LeaveGame)
				games.POST("/:id/tag", gameHandler.Tag)

				games.POST("/:id/location", locationHandler.UpdateLocation)

				games.POST("/:id/sabotages", sabotageHandler.Deploy)
				games.GET("/:id/sabotages", sabotageHandler.ListDeployed)

				games.POST("/:id/bounties", bountyHandler.Place)
				games.GET("/:id/bounties", bountyHandler.ListActive)
				games.POST("/:id/bounties/:bountyId/claim", bountyHandler.Claim)

				games.POST("/:id/alliances", allianceHandler.Create)
				games.POST("/:id/alliances/:allianceId/join", allianceHandler.Join)
				games.POST("/:id/alliance/leave", allianceHandler.Leave)

				games.GET("/:id/events", eventHandler.Recent)
			}
		}
	}

	// WebSocket endpoint for real-time game notifications
	router.GET("/ws/:gameID/:playerID", func(c *gin.Context) {
		gameID, err := strconv.ParseUint(c.Param("gameID"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
			return
		}
		playerID, err := strconv.ParseUint(c.Param("playerID"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid player ID"})
			return
		}

		// The socket carries no location data, but membership is still
		// required before upgrading.
		if err := validatePlayerAccess(gameService, uint(gameID), uint(playerID)); err != nil {
			log.Printf("WebSocket access denied for game %d, player %d: %v", gameID, playerID, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Player not found in game"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for game %d, player %d: %v", gameID, playerID, err)
			return
		}

		hub.RegisterClient(conn, uint(gameID), uint(playerID))
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// validatePlayerAccess checks that the player belongs to the game.
func validatePlayerAccess(gameService *services.GameService, gameID, playerID uint) error {
	game, err := gameService.GetGame(gameID)
	if err != nil {
		return err
	}

	for _, player := range game.Players {
		if player.ID == playerID {
			return nil
		}
	}
	return services.ErrNotAParticipant
}
