package handlers

import (
	"net/http"

	"tagmode/services"

	"github.com/gin-gonic/gin"
)

type BountyHandler struct {
	bountyService *services.BountyService
	hub           *services.Hub
}

func NewBountyHandler(bountyService *services.BountyService, hub *services.Hub) *BountyHandler {
	return &BountyHandler{
		bountyService: bountyService,
		hub:           hub,
	}
}

func (h *BountyHandler) Place(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.PlaceBountyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bounty, err := h.bountyService.Place(gameID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastToGame(gameID, "bounty_placed", gin.H{
		"bounty_id": bounty.ID,
		"target_id": bounty.TargetID,
		"reward":    bounty.Reward,
	})
	c.JSON(http.StatusCreated, bounty)
}

func (h *BountyHandler) Claim(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	bountyID, ok := pathID(c, "bountyId")
	if !ok {
		return
	}

	bounty, err := h.bountyService.Claim(gameID, bountyID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastToGame(gameID, "bounty_claimed", gin.H{
		"bounty_id": bounty.ID,
		"reward":    bounty.Reward,
	})
	c.JSON(http.StatusOK, bounty)
}

func (h *BountyHandler) ListActive(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}

	bounties, err := h.bountyService.ListActive(gameID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bounties)
}
