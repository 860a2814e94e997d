package handlers

import (
	"pos-engine/internal/events"

	"github.com/gin-gonic/gin"
)

// EventsHandler upgrades clients onto the change feed
type EventsHandler struct {
	hub *events.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// @Summary Subscribe to change events
// @Description WebSocket feed of committed changes. Pass the token as access_token.
// @Tags events
// @Param access_token query string true "Session token"
// @Router /events/ws [get]
func (h *EventsHandler) Subscribe(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}
