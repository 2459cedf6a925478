package handlers

import (
	"net/http"

	"tagmode/services"

	"github.com/gin-gonic/gin"
)

type AllianceHandler struct {
	allianceService *services.AllianceService
	hub             *services.Hub
}

func NewAllianceHandler(allianceService *services.AllianceService, hub *services.Hub) *AllianceHandler {
	return &AllianceHandler{
		allianceService: allianceService,
		hub:             hub,
	}
}

func (h *AllianceHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.CreateAllianceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alliance, err := h.allianceService.Create(gameID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, alliance)
}

func (h *AllianceHandler) Join(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	allianceID, ok := pathID(c, "allianceId")
	if !ok {
		return
	}

	alliance, err := h.allianceService.Join(gameID, allianceID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, alliance)
}

func (h *AllianceHandler) Leave(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.allianceService.Leave(gameID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left the alliance"})
}
