package handlers

import (
	"net/http"

	"tagmode/services"

	"github.com/gin-gonic/gin"
)

type SabotageHandler struct {
	sabotageService *services.SabotageService
	hub             *services.Hub
}

func NewSabotageHandler(sabotageService *services.SabotageService, hub *services.Hub) *SabotageHandler {
	return &SabotageHandler{
		sabotageService: sabotageService,
		hub:             hub,
	}
}

func (h *SabotageHandler) Deploy(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.DeploySabotageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sabotage, err := h.sabotageService.Deploy(gameID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	// Announce the deployment without the trap's position.
	h.hub.BroadcastToGame(gameID, "sabotage_deployed", gin.H{"type": sabotage.Type})
	c.JSON(http.StatusCreated, sabotage)
}

func (h *SabotageHandler) ListDeployed(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}

	sabotages, err := h.sabotageService.ListDeployed(gameID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sabotages)
}
