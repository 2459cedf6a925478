package handlers

import (
	"net/http"

	"tagmode/services"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	gameService *services.GameService
	hub         *services.Hub
}

func NewGameHandler(gameService *services.GameService, hub *services.Hub) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		hub:         hub,
	}
}

func (h *GameHandler) CreateGame(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game, err := h.gameService.CreateGame(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, game)
}

func (h *GameHandler) GetGame(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}

	game, err := h.gameService.GetGame(gameID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

func (h *GameHandler) StartGame(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}

	game, err := h.gameService.StartGame(gameID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastToGame(gameID, "game_started", gin.H{"game": game})
	c.JSON(http.StatusOK, game)
}

func (h *GameHandler) EndGame(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}

	game, err := h.gameService.EndGame(gameID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastToGame(gameID, "game_ended", gin.H{"game": game})
	c.JSON(http.StatusOK, game)
}

func (h *GameHandler) JoinGame(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}

	player, err := h.gameService.JoinGame(gameID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastToGame(gameID, "player_joined", gin.H{"player_id": player.ID})
	c.JSON(http.StatusOK, player)
}

func (h *GameHandler) LeaveGame(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.gameService.LeaveGame(gameID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastToGame(gameID, "player_left", gin.H{"user_id": userID})
	c.JSON(http.StatusOK, gin.H{"message": "Left the game"})
}

func (h *GameHandler) Tag(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.gameService.Tag(gameID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastToGame(gameID, "player_tagged", gin.H{
		"target_id":     req.TargetID,
		"new_hunter_id": result.NewHunterID,
	})
	c.JSON(http.StatusOK, result)
}
