package handlers

import (
	"net/http"

	"tagmode/services"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	locationService *services.LocationService
	hub             *services.Hub
}

func NewLocationHandler(locationService *services.LocationService, hub *services.Hub) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		hub:             hub,
	}
}

// UpdateLocation ingests a coordinate and returns the combined zone,
// safe-zone, proximity and sabotage results. Nothing location-derived is
// broadcast: proximity data belongs to the requester only.
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.locationService.UpdateLocation(gameID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	for _, t := range result.TriggeredSabotages {
		h.hub.BroadcastToGame(gameID, "sabotage_triggered", gin.H{
			"sabotage_id": t.SabotageID,
			"type":        t.Type,
		})
	}

	c.JSON(http.StatusOK, result)
}
